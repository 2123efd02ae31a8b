package renderer

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Work unit lifecycle. Units move Pending -> InFlight and from there to
// Completed, back to Pending (timeout or failure within the retry budget),
// to Failed (budget exhausted) or to Cancelled (render aborted while they
// were still queued).
type unitState int

const (
	unitPending unitState = iota
	unitInFlight
	unitCompleted
	unitFailed
	unitCancelled
)

type workUnit struct {
	id   int
	rect Rect

	state      unitState
	retries    int
	assignedAt time.Time
}

// tileQueue hands out frame tiles to workers on a pull basis. All state is
// guarded by a single mutex; workers block on the condition variable when
// the queue is drained but units are still in flight and may be requeued.
type tileQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	units   []workUnit
	pending []int

	remaining  int
	maxRetries int
	aborted    bool
	err        error
}

// Partition the frame into tiles and build the queue over them. Edge tiles
// are clipped to the frame bounds.
func newTileQueue(frameW, frameH, tileSize uint32, maxRetries int) *tileQueue {
	q := &tileQueue{maxRetries: maxRetries}
	q.cond = sync.NewCond(&q.mu)

	for y := uint32(0); y < frameH; y += tileSize {
		for x := uint32(0); x < frameW; x += tileSize {
			rect := Rect{X: x, Y: y, W: tileSize, H: tileSize}
			if x+rect.W > frameW {
				rect.W = frameW - x
			}
			if y+rect.H > frameH {
				rect.H = frameH - y
			}
			id := len(q.units)
			q.units = append(q.units, workUnit{id: id, rect: rect, state: unitPending})
			q.pending = append(q.pending, id)
		}
	}
	q.remaining = len(q.units)
	return q
}

func (q *tileQueue) unitCount() int {
	return len(q.units)
}

// next blocks until a unit is available and returns it marked InFlight.
// Returns false when all units have reached a terminal state or the queue
// was aborted.
func (q *tileQueue) next() (int, Rect, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) == 0 && q.remaining > 0 && !q.aborted {
		q.cond.Wait()
	}
	if q.aborted || q.remaining == 0 {
		return 0, Rect{}, false
	}

	id := q.pending[0]
	q.pending = q.pending[1:]
	unit := &q.units[id]
	unit.state = unitInFlight
	unit.assignedAt = time.Now()
	return id, unit.rect, true
}

// complete marks the unit done. Returns true exactly once per unit; stale
// completions of an already-finished unit report false so the caller drops
// the duplicate result.
func (q *tileQueue) complete(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	unit := &q.units[id]
	if unit.state == unitCompleted || unit.state == unitFailed || unit.state == unitCancelled {
		return false
	}

	// The unit may have been requeued by the timeout scanner before its
	// original result arrived; pull it back out of the pending list.
	if unit.state == unitPending {
		q.removePending(id)
	}

	unit.state = unitCompleted
	q.remaining--
	q.cond.Broadcast()
	return true
}

// fail records a failed attempt, requeueing the unit while the retry budget
// lasts and aborting the queue once it runs out.
func (q *tileQueue) fail(id int, cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failLocked(id, cause)
}

func (q *tileQueue) failLocked(id int, cause error) {
	unit := &q.units[id]
	if unit.state != unitInFlight {
		return
	}

	unit.retries++
	if unit.retries > q.maxRetries {
		unit.state = unitFailed
		q.aborted = true
		q.err = errors.Wrapf(cause, "tile %d failed after %d attempts", id, unit.retries)
		q.cond.Broadcast()
		return
	}

	unit.state = unitPending
	q.pending = append(q.pending, id)
	q.cond.Broadcast()
}

// requeueStale returns units that have been in flight longer than the
// timeout to the pending list, charging their retry budget.
func (q *tileQueue) requeueStale(timeout time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for i := range q.units {
		if q.units[i].state == unitInFlight && now.Sub(q.units[i].assignedAt) > timeout {
			q.failLocked(q.units[i].id, errors.Errorf("no result within %s", timeout))
		}
	}
}

// abort cancels all pending units and wakes every waiting worker. In-flight
// units are left alone; their results are still merged when they arrive.
func (q *tileQueue) abort(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.aborted {
		return
	}
	q.aborted = true
	if q.err == nil {
		q.err = err
	}
	for _, id := range q.pending {
		q.units[id].state = unitCancelled
	}
	q.pending = q.pending[:0]
	q.cond.Broadcast()
}

// done reports whether every unit reached a terminal state.
func (q *tileQueue) done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining == 0
}

func (q *tileQueue) failure() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *tileQueue) removePending(id int) {
	for i, pid := range q.pending {
		if pid == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestQueuePartitionClipsEdgeTiles(t *testing.T) {
	q := newTileQueue(70, 50, 32, 1)

	// 3 columns x 2 rows.
	if got, want := q.unitCount(), 6; got != want {
		t.Fatalf("expected %d tiles, got %d", want, got)
	}

	for i := range q.units {
		rect := q.units[i].rect
		if rect.X+rect.W > 70 || rect.Y+rect.H > 50 {
			t.Fatalf("tile %d exceeds the frame bounds: %+v", i, rect)
		}
		if rect.W == 0 || rect.H == 0 {
			t.Fatalf("tile %d has a degenerate rect: %+v", i, rect)
		}
	}
}

func TestQueueCompletesEachUnitExactlyOnce(t *testing.T) {
	q := newTileQueue(64, 32, 32, 1)

	id, _, ok := q.next()
	if !ok {
		t.Fatal("expected a pending unit")
	}
	if !q.complete(id) {
		t.Fatal("expected the first completion to be accepted")
	}
	if q.complete(id) {
		t.Fatal("expected the duplicate completion to be rejected")
	}
}

func TestQueueRequeuesStaleUnits(t *testing.T) {
	q := newTileQueue(32, 32, 32, 3)

	id, _, ok := q.next()
	if !ok {
		t.Fatal("expected a pending unit")
	}

	// Nothing in flight long enough yet.
	q.requeueStale(time.Hour)
	if len(q.pending) != 0 {
		t.Fatal("expected no requeue before the timeout elapses")
	}

	q.requeueStale(0)
	if len(q.pending) != 1 {
		t.Fatal("expected the stale unit back on the pending list")
	}

	// The original worker answers after the requeue but before a
	// reassignment; the completion must still count exactly once.
	if !q.complete(id) {
		t.Fatal("expected the late completion to be accepted")
	}
	if !q.done() {
		t.Fatal("expected the queue to drain")
	}
	if _, _, ok := q.next(); ok {
		t.Fatal("expected no further units after the queue drained")
	}
}

func TestQueueAbortsAfterRetryBudget(t *testing.T) {
	q := newTileQueue(32, 32, 32, 1)

	cause := errors.New("connection reset")
	for attempt := 0; attempt < 2; attempt++ {
		id, _, ok := q.next()
		if !ok {
			t.Fatalf("[attempt %d] expected the unit to be requeued", attempt)
		}
		q.fail(id, cause)
	}

	if _, _, ok := q.next(); ok {
		t.Fatal("expected the queue to stop handing out units after aborting")
	}
	err := q.failure()
	if err == nil {
		t.Fatal("expected a failure to be recorded")
	}
	if !strings.Contains(err.Error(), "tile 0") {
		t.Fatalf("expected the failure to name the tile, got %q", err.Error())
	}
}

func TestQueueAbortCancelsPendingOnly(t *testing.T) {
	q := newTileQueue(96, 32, 32, 1)

	id, _, ok := q.next()
	if !ok {
		t.Fatal("expected a pending unit")
	}

	q.abort(errors.New("render cancelled"))

	for i := range q.units {
		if q.units[i].id == id {
			continue
		}
		if q.units[i].state != unitCancelled {
			t.Fatalf("expected queued unit %d to be cancelled", q.units[i].id)
		}
	}

	// The in-flight unit still completes and its result is kept.
	if !q.complete(id) {
		t.Fatal("expected the in-flight unit to complete after the abort")
	}
}

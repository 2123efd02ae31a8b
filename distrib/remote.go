package distrib

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vega-render/vega/log"
	"github.com/vega-render/vega/renderer"
)

const handshakeTimeout = 10 * time.Second

// RemoteWorker is the master-side handle for a worker connection. It
// satisfies the coordinator's tracer contract so remote workers are pumped
// from the tile queue exactly like local ones; transport errors surface as
// job failures, which the queue answers by requeueing the unit.
type RemoteWorker struct {
	logger log.Logger

	id      string
	conn    *websocket.Conn
	options renderer.Options

	// One job in flight per connection.
	mu sync.Mutex
}

// Dial connects to the worker at addr (host:port) and performs the ready
// handshake. The options supply the frame geometry and integrator limits
// shipped with every job, and the per-job response deadline.
func Dial(addr string, options renderer.Options) (*RemoteWorker, error) {
	if options.WorkerTimeout == 0 {
		options.WorkerTimeout = renderer.DefaultWorkerTimeout
	}

	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "distrib: connecting to worker %s", addr)
	}

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var ready ReadyMsg
	if err = conn.ReadJSON(&ready); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "distrib: handshake with worker %s", addr)
	}
	conn.SetReadDeadline(time.Time{})

	return &RemoteWorker{
		logger:  log.New("distrib"),
		id:      ready.WorkerID,
		conn:    conn,
		options: options,
	}, nil
}

func (r *RemoteWorker) ID() string {
	return r.id
}

// Close tears down the worker connection.
func (r *RemoteWorker) Close() error {
	return r.conn.Close()
}

// Trace ships the job to the remote worker and waits for its result. A
// missed deadline, a transport error or a failure reported by the worker
// all return an error; the coordinator then requeues the tile.
func (r *RemoteWorker) Trace(ctx context.Context, job renderer.Job) (renderer.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := time.Now().Add(r.options.WorkerTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	msg := JobMsg{
		Job:             job,
		FrameW:          r.options.FrameW,
		FrameH:          r.options.FrameH,
		NumBounces:      r.options.NumBounces,
		MinBouncesForRR: r.options.MinBouncesForRR,
	}

	r.conn.SetWriteDeadline(deadline)
	if err := r.conn.WriteJSON(msg); err != nil {
		return renderer.Result{}, errors.Wrapf(err, "distrib: sending tile %d to worker %s", job.TileID, r.id)
	}

	r.conn.SetReadDeadline(deadline)
	for {
		var res ResultMsg
		if err := r.conn.ReadJSON(&res); err != nil {
			return renderer.Result{}, errors.Wrapf(err, "distrib: waiting on tile %d from worker %s", job.TileID, r.id)
		}

		// Results for earlier jobs that missed their deadline may still
		// be queued on the connection; drop them, the coordinator has
		// already requeued those tiles.
		if res.JobID != job.JobID {
			r.logger.Debugf("worker %s: discarding late result for job %s", r.id, res.JobID)
			continue
		}

		if res.Status != StatusOK {
			return renderer.Result{}, errors.Errorf("distrib: worker %s failed tile %d: %s", r.id, job.TileID, res.Error)
		}
		return res.Result, nil
	}
}

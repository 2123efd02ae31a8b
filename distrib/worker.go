package distrib

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vega-render/vega/bvh"
	"github.com/vega-render/vega/integrator"
	"github.com/vega-render/vega/log"
	"github.com/vega-render/vega/renderer"
	"github.com/vega-render/vega/scene"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Worker renders tiles on behalf of remote masters. It owns its copy of the
// scene and its acceleration structure; masters only ship tile assignments.
type Worker struct {
	logger log.Logger

	id    string
	sc    *scene.Scene
	accel *bvh.BVH

	// Serializes job execution; a worker handles one master at a time.
	mu sync.Mutex
}

// NewWorker builds the acceleration structure over the scene and prepares a
// worker that can be mounted as an http.Handler or served directly.
func NewWorker(sc *scene.Scene) (*Worker, error) {
	if sc == nil {
		return nil, renderer.ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, renderer.ErrCameraNotDefined
	}
	return &Worker{
		logger: log.New("distrib"),
		id:     uuid.New().String(),
		sc:     sc,
		accel:  bvh.Build(sc.Primitives),
	}, nil
}

// Serve blocks, accepting master connections on addr.
func (w *Worker) Serve(addr string) error {
	w.logger.Noticef("worker %s listening on %s", w.id, addr)
	mux := http.NewServeMux()
	mux.Handle("/", w)
	return errors.Wrap(http.ListenAndServe(addr, mux), "distrib: worker server failed")
}

// ServeHTTP upgrades the master connection and renders jobs until the
// connection closes.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		w.logger.Warningf("rejecting connection from %s: %v", req.RemoteAddr, err)
		return
	}
	defer conn.Close()

	if err = conn.WriteJSON(ReadyMsg{WorkerID: w.id}); err != nil {
		w.logger.Warningf("handshake with %s failed: %v", req.RemoteAddr, err)
		return
	}
	w.logger.Noticef("master connected from %s", req.RemoteAddr)

	for {
		var job JobMsg
		if err = conn.ReadJSON(&job); err != nil {
			w.logger.Noticef("master %s disconnected: %v", req.RemoteAddr, err)
			return
		}

		res := w.render(&job)
		if err = conn.WriteJSON(res); err != nil {
			w.logger.Warningf("sending result for tile %d failed: %v", job.TileID, err)
			return
		}
	}
}

func (w *Worker) render(job *JobMsg) ResultMsg {
	w.mu.Lock()
	defer w.mu.Unlock()

	if job.FrameW == 0 || job.FrameH == 0 || job.SamplesPerPixel == 0 {
		return ResultMsg{
			Result: renderer.Result{JobID: job.JobID, TileID: job.TileID},
			Status: StatusFailed,
			Error:  "malformed job parameters",
		}
	}

	w.sc.Camera.SetupProjection(float32(job.FrameW) / float32(job.FrameH))
	tr := renderer.TileRenderer{
		Scene:  w.sc,
		Accel:  w.accel,
		FrameW: job.FrameW,
		FrameH: job.FrameH,
		Integrator: integrator.Path{
			MinDepth: job.MinBouncesForRR,
			MaxDepth: job.NumBounces,
		},
	}

	w.logger.Debugf("rendering tile %d (%+v) at %d spp", job.TileID, job.Rect, job.SamplesPerPixel)
	return ResultMsg{
		Result: renderer.Result{
			JobID:   job.JobID,
			TileID:  job.TileID,
			Rect:    job.Rect,
			Pix:     tr.Render(job.Rect, job.SamplesPerPixel, job.Seed),
			Samples: job.SamplesPerPixel,
		},
		Status: StatusOK,
	}
}

// Package distrib adds remote workers to the render coordinator. A worker
// process loads its own copy of the scene and serves a websocket endpoint;
// the master dials each worker, pumps it with tile jobs like any local
// worker and merges the streamed results. Messages are JSON-encoded; every
// job carries a unique id so results retransmitted after a timeout are
// deduplicated instead of double-counted.
package distrib

import "github.com/vega-render/vega/renderer"

// Result status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ReadyMsg is the first message on a new connection, sent by the worker to
// announce itself.
type ReadyMsg struct {
	WorkerID string `json:"worker_id"`
}

// JobMsg assigns a tile to the worker. The frame geometry and integrator
// limits ride along so the master alone decides the render parameters; the
// worker only contributes its copy of the scene.
type JobMsg struct {
	renderer.Job

	FrameW uint32 `json:"frame_w"`
	FrameH uint32 `json:"frame_h"`

	NumBounces      uint32 `json:"num_bounces"`
	MinBouncesForRR uint32 `json:"min_bounces_for_rr"`
}

// ResultMsg returns a rendered tile, or the reason it could not be
// rendered.
type ResultMsg struct {
	renderer.Result

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

package cmd

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/vega-render/vega/distrib"
	"github.com/vega-render/vega/scene"
)

// Run a worker process serving tile render jobs to a remote master. The
// worker loads its own copy of the scene; masters only ship tile
// assignments, so both sides must name the same scene.
func RunWorker(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene name argument")
	}
	sc, err := scene.ByName(ctx.Args().First())
	if err != nil {
		return err
	}

	worker, err := distrib.NewWorker(sc)
	if err != nil {
		return err
	}
	return worker.Serve(ctx.String("listen"))
}

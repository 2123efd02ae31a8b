package main

import (
	"os"

	"github.com/urfave/cli"
	"github.com/vega-render/vega/cmd"
	"github.com/vega-render/vega/renderer"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "vega"
	app.Usage = "render scenes using path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a single frame of a scene",
			Description: `
Render a frame of one of the built-in scenes using Monte Carlo path tracing.
The frame is split into tiles which are distributed to local workers and,
optionally, to remote worker processes started with the worker command.`,
			ArgsUsage: "scene_name",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 16,
					Usage: "samples per pixel",
				},
				cli.IntFlag{
					Name:  "tile-size",
					Value: int(renderer.DefaultTileSize),
					Usage: "edge length of the tiles distributed to workers",
				},
				cli.IntFlag{
					Name:  "num-workers",
					Usage: "number of local render workers (0 = one per CPU, -1 = none)",
				},
				cli.IntFlag{
					Name:  "num-bounces",
					Value: 8,
					Usage: "maximum path length",
				},
				cli.IntFlag{
					Name:  "rr-bounces",
					Value: 3,
					Usage: "bounces before russian roulette path elimination kicks in",
				},
				cli.IntFlag{
					Name:  "seed",
					Value: 1,
					Usage: "base seed for the deterministic sampler",
				},
				cli.StringSliceFlag{
					Name:  "worker",
					Usage: "host:port of a remote worker; may be repeated",
				},
				cli.IntFlag{
					Name:  "worker-timeout",
					Value: 30,
					Usage: "seconds before an unanswered tile is reassigned",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: cmd.RenderFrame,
		},
		{
			Name:  "worker",
			Usage: "serve tile render jobs to a remote master",
			Description: `
Run a render worker. The worker loads the named scene and listens for a
master started with the render command and a matching --worker flag.`,
			ArgsUsage: "scene_name",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "listen",
					Value: ":35620",
					Usage: "address to listen for master connections on",
				},
			},
			Action: cmd.RunWorker,
		},
	}

	app.Run(os.Args)
}

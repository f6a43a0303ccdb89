// spotglobe watches regional spot prices on a terminal globe and migrates
// workloads to cheaper regions.
//
// Usage:
//
//	spotglobe watch [--api URL] [--push websocket|redis|none] [--mute]
//	spotglobe simulate [--addr :8080] [--redis host:6379]
//	spotglobe prices [--format table|json]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/lixenwraith/spotglobe/parameter"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "spotglobe",
		Usage:   "Spot price globe with one-key region migration",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Value:   parameter.DefaultAPIBase,
				Usage:   "Orchestration service HTTP root",
				EnvVars: []string{"SPOTGLOBE_API"},
			},
			&cli.StringFlag{
				Name:    "redis",
				Usage:   "Redis address for the redis price source and push channel",
				EnvVars: []string{"SPOTGLOBE_REDIS"},
			},
			&cli.StringFlag{
				Name:    "regions",
				Usage:   "GeoJSON file overriding the built-in region table",
				EnvVars: []string{"SPOTGLOBE_REGIONS"},
			},
		},
		Commands: []*cli.Command{
			watchCommand(),
			simulateCommand(),
			pricesCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

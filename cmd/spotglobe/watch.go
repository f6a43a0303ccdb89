package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/dashboard"
	"github.com/lixenwraith/spotglobe/geo"
	"github.com/lixenwraith/spotglobe/logging"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/status"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the interactive globe",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ws",
				Value:   parameter.DefaultPushURL,
				Usage:   "WebSocket push channel URL",
				EnvVars: []string{"SPOTGLOBE_WS"},
			},
			&cli.StringFlag{
				Name:    "push",
				Value:   "websocket",
				Usage:   "Push channel (websocket, redis, none)",
				EnvVars: []string{"SPOTGLOBE_PUSH"},
			},
			&cli.StringFlag{
				Name:    "price-source",
				Value:   parameter.PriceSourceHTTP,
				Usage:   "Price snapshot source (http, redis)",
				EnvVars: []string{"SPOTGLOBE_PRICE_SOURCE"},
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Value:   parameter.PollInterval,
				Usage:   "Price poll period",
				EnvVars: []string{"SPOTGLOBE_POLL_INTERVAL"},
			},
			&cli.Float64Flag{
				Name:    "drop-ratio",
				Value:   parameter.DropRatio,
				Usage:   "Alert when a price falls below this fraction of its previous value",
				EnvVars: []string{"SPOTGLOBE_DROP_RATIO"},
			},
			&cli.StringFlag{
				Name:    "tie-break",
				Value:   parameter.DropTieBreak,
				Usage:   "Drop pick when several regions qualify (first, largest-drop, lowest-price)",
				EnvVars: []string{"SPOTGLOBE_TIE_BREAK"},
			},
			&cli.IntFlag{
				Name:    "fleet-size",
				Value:   parameter.FleetSize,
				Usage:   "Node count used to annualize savings",
				EnvVars: []string{"SPOTGLOBE_FLEET_SIZE"},
			},
			&cli.Float64Flag{
				Name:    "baseline-price",
				Value:   parameter.BaselinePrice,
				Usage:   "Hourly price of the current deployment",
				EnvVars: []string{"SPOTGLOBE_BASELINE_PRICE"},
			},
			&cli.Float64Flag{
				Name:    "initial-savings",
				Usage:   "Starting value of the savings counter",
				EnvVars: []string{"SPOTGLOBE_INITIAL_SAVINGS"},
			},
			&cli.StringFlag{
				Name:    "source-policy",
				Value:   parameter.SourcePolicy,
				Usage:   "Migration source inference (pair, tracked)",
				EnvVars: []string{"SPOTGLOBE_SOURCE_POLICY"},
			},
			&cli.Float64Flag{
				Name:    "damping",
				Value:   parameter.RotationDamping,
				Usage:   "Rotation damping toward a selected region",
				EnvVars: []string{"SPOTGLOBE_DAMPING"},
			},
			&cli.BoolFlag{
				Name:    "mute",
				Usage:   "Disable alert chimes",
				EnvVars: []string{"SPOTGLOBE_MUTE"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Write a JSON log under " + logging.LogDir,
				EnvVars: []string{"SPOTGLOBE_DEBUG"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Serve Prometheus metrics on this address",
				EnvVars: []string{"SPOTGLOBE_METRICS_ADDR"},
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := watchConfig(c)
	if err != nil {
		return err
	}

	table, err := loadTable(c.String("regions"))
	if err != nil {
		return err
	}

	log, closeLog, err := logging.Setup(c.Bool("debug"))
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer closeLog()

	reg := status.NewRegistry()
	if addr := c.String("metrics-addr"); addr != "" {
		serveMetrics(addr, reg, log)
	}

	d, err := dashboard.New(cfg, dashboard.Deps{
		Table:  table,
		Logger: log,
		Status: reg,
	})
	if err != nil {
		return err
	}
	return d.Run(c.Context)
}

// watchConfig layers flags over the dashboard defaults and validates the result
func watchConfig(c *cli.Context) (dashboard.Config, error) {
	cfg := dashboard.DefaultConfig()
	cfg.APIBase = c.String("api")
	cfg.RedisAddr = c.String("redis")
	cfg.PushURL = c.String("ws")
	cfg.PriceSource = c.String("price-source")
	cfg.PollInterval = c.Duration("poll-interval")
	if cfg.FetchTimeout > cfg.PollInterval {
		cfg.FetchTimeout = cfg.PollInterval
	}
	cfg.DropRatio = c.Float64("drop-ratio")
	cfg.TieBreak = c.String("tie-break")
	cfg.FleetSize = c.Int("fleet-size")
	cfg.BaselinePrice = c.Float64("baseline-price")
	cfg.InitialSavings = c.Float64("initial-savings")
	cfg.SourcePolicy = c.String("source-policy")
	cfg.Damping = c.Float64("damping")
	cfg.Muted = c.Bool("mute")

	push, err := dashboard.ParsePush(c.String("push"))
	if err != nil {
		return cfg, err
	}
	cfg.Push = push

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadTable(path string) (*geo.Table, error) {
	if path == "" {
		return geo.DefaultTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("regions: %w", err)
	}
	defer f.Close()
	t, err := geo.LoadTable(f, parameter.MarkerRadius)
	if err != nil {
		return nil, fmt.Errorf("regions %s: %w", path, err)
	}
	return t, nil
}

// serveMetrics exposes the status registry until the process exits
func serveMetrics(addr string, reg *status.Registry, log *zap.Logger) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(status.NewCollector(reg))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	core.Go(func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics_listener_failed", zap.String("addr", addr), zap.Error(err))
		}
	})
	log.Info("metrics_listening", zap.String("addr", addr))
}

package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/simulator"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Serve a local price feed, migrate endpoint and push channel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   parameter.SimulatorAddr,
				Usage:   "Listen address",
				EnvVars: []string{"SPOTGLOBE_SIM_ADDR"},
			},
			&cli.DurationFlag{
				Name:    "tick",
				Value:   parameter.SimulatorTickInterval,
				Usage:   "Price re-randomization period",
				EnvVars: []string{"SPOTGLOBE_SIM_TICK"},
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Price generator seed, 0 for time-based",
			},
		},
		Action: runSimulate,
	}
}

func runSimulate(c *cli.Context) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer log.Sync()

	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	regions := simulator.DefaultRegions()

	var (
		store simulator.Store = &simulator.MemoryStore{}
		relay simulator.Relay
	)
	if addr := c.String("redis"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		if err := rdb.Ping(c.Context).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", addr, err)
		}
		store = simulator.NewRedisStore(rdb, regions)
		relay = rdb
		log.Info("simulator_redis", zap.String("addr", addr))
	}

	oracle := simulator.NewOracle(store, regions, rand.New(rand.NewSource(seed)), log.Named("oracle"))
	if err := oracle.Tick(c.Context); err != nil {
		return fmt.Errorf("seed prices: %w", err)
	}

	hub := simulator.NewHub(relay, log.Named("hub"))
	srv := simulator.New(simulator.Config{
		Addr:         c.String("addr"),
		TickInterval: c.Duration("tick"),
	}, oracle, hub, log)
	return srv.Run(c.Context)
}

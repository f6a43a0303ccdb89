package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/geo"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
)

func pricesCommand() *cli.Command {
	return &cli.Command{
		Name:  "prices",
		Usage: "Fetch one price snapshot and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Value:   parameter.PriceSourceHTTP,
				Usage:   "Price snapshot source (http, redis)",
				EnvVars: []string{"SPOTGLOBE_PRICE_SOURCE"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: parameter.FetchTimeout,
				Usage: "Fetch timeout",
			},
		},
		Action: runPrices,
	}
}

func runPrices(c *cli.Context) error {
	table, err := loadTable(c.String("regions"))
	if err != nil {
		return err
	}

	var fetcher price.Fetcher
	switch src := c.String("source"); src {
	case parameter.PriceSourceHTTP:
		fetcher = price.NewHTTPFetcher(c.String("api"), &http.Client{}, zap.NewNop())
	case parameter.PriceSourceRedis:
		addr := c.String("redis")
		if addr == "" {
			return fmt.Errorf("--redis is required for the redis source")
		}
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		var names []string
		for _, r := range table.Regions() {
			names = append(names, r.Name)
		}
		fetcher = price.NewRedisFetcher(rdb, names, zap.NewNop())
	default:
		return fmt.Errorf("unknown price source %q", src)
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	snap, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	return printSnapshot(os.Stdout, snap, table, c.String("format"))
}

func printSnapshot(w io.Writer, snap price.Snapshot, table *geo.Table, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			FetchedAt time.Time           `json:"fetchedAt"`
			Prices    []price.RegionPrice `json:"prices"`
		}{time.Now().UTC(), snap.Prices()})
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "REGION\tPRICE/HR\tCHEAP\tKNOWN")
		for _, p := range snap.Prices() {
			_, known := table.Lookup(p.Region)
			fmt.Fprintf(tw, "%s\t%s\t%v\t%v\n",
				p.Region,
				decimal.NewFromFloat(p.Price).StringFixed(4),
				snap.IsCheap(p.Region, parameter.CheapPriceThreshold),
				known)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q (want table or json)", format)
}

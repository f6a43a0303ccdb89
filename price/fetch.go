package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/parameter"
)

// ErrBadStatus is returned for non-2xx price responses
var ErrBadStatus = errors.New("price: unexpected response status")

const maxPriceBody = 1 << 20

// Fetcher returns the current price snapshot
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// HTTPFetcher reads GET <base>/prices
type HTTPFetcher struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewHTTPFetcher creates a fetcher against the orchestration API root
func NewHTTPFetcher(apiBase string, client *http.Client, log *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: parameter.FetchTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPFetcher{
		url:    strings.TrimRight(apiBase, "/") + "/prices",
		client: client,
		log:    log,
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", parameter.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPriceBody))
		return Snapshot{}, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var raw []RegionPrice
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPriceBody)).Decode(&raw); err != nil {
		return Snapshot{}, fmt.Errorf("decode prices: %w", err)
	}

	snap, err := ParseSnapshot(raw)
	if err != nil {
		h.log.Warn("price_entries_rejected", zap.Error(err))
	}
	return snap, nil
}

// RedisReader is the subset of the go-redis client used by RedisFetcher
type RedisReader interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// RedisFetcher reads the oracle store directly, one JSON value per region key
// Keys are <prefix><region>; missing keys are skipped
type RedisFetcher struct {
	rdb     RedisReader
	prefix  string
	regions []string
	log     *zap.Logger
}

// NewRedisFetcher creates a fetcher for the given regions, in that order
func NewRedisFetcher(rdb RedisReader, regions []string, log *zap.Logger) *RedisFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisFetcher{
		rdb:     rdb,
		prefix:  parameter.PriceKeyPrefix,
		regions: append([]string(nil), regions...),
		log:     log,
	}
}

func (r *RedisFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	if len(r.regions) == 0 {
		return Snapshot{}, nil
	}
	keys := make([]string, len(r.regions))
	for i, region := range r.regions {
		keys[i] = r.prefix + region
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis mget prices: %w", err)
	}

	raw := make([]RegionPrice, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rp RegionPrice
		if err := json.Unmarshal([]byte(s), &rp); err != nil {
			r.log.Warn("price_value_malformed", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		if rp.Region == "" {
			rp.Region = r.regions[i]
		}
		raw = append(raw, rp)
	}

	snap, err := ParseSnapshot(raw)
	if err != nil {
		r.log.Warn("price_entries_rejected", zap.Error(err))
	}
	return snap, nil
}

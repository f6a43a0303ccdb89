package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/geo"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
)

// Region pairs a display name with its cluster context identifier
type Region struct {
	Name      string
	ContextID string
}

// DefaultRegions derives the simulated regions from the built-in coordinate table
func DefaultRegions() []Region {
	var out []Region
	for _, r := range geo.DefaultTable().Regions() {
		out = append(out, Region{Name: r.Name, ContextID: "ctx-" + strings.ToLower(r.Name)})
	}
	return out
}

// Store persists the latest simulated prices
type Store interface {
	Put(ctx context.Context, prices []price.RegionPrice) error
	Get(ctx context.Context) ([]price.RegionPrice, error)
}

// MemoryStore keeps prices in process
type MemoryStore struct {
	mu     sync.RWMutex
	prices []price.RegionPrice
}

func (m *MemoryStore) Put(_ context.Context, prices []price.RegionPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices = append(m.prices[:0], prices...)
	return nil
}

func (m *MemoryStore) Get(context.Context) ([]price.RegionPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]price.RegionPrice(nil), m.prices...), nil
}

// RedisKV is the subset of the go-redis client used by RedisStore
type RedisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore writes one expiring JSON value per region under price:<region>
// Keys that expired or were never written read back as a neutral fallback price
type RedisStore struct {
	rdb     RedisKV
	regions []Region
	ttl     time.Duration
}

func NewRedisStore(rdb RedisKV, regions []Region) *RedisStore {
	return &RedisStore{rdb: rdb, regions: regions, ttl: parameter.SimulatorPriceTTL}
}

func (s *RedisStore) Put(ctx context.Context, prices []price.RegionPrice) error {
	var errs []error
	for _, p := range prices {
		data, err := json.Marshal(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.rdb.Set(ctx, parameter.PriceKeyPrefix+p.Region, data, s.ttl).Err(); err != nil {
			errs = append(errs, fmt.Errorf("set %s: %w", p.Region, err))
		}
	}
	return errors.Join(errs...)
}

func (s *RedisStore) Get(ctx context.Context) ([]price.RegionPrice, error) {
	out := make([]price.RegionPrice, 0, len(s.regions))
	for _, r := range s.regions {
		val, err := s.rdb.Get(ctx, parameter.PriceKeyPrefix+r.Name).Result()
		if errors.Is(err, redis.Nil) {
			out = append(out, fallbackPrice(r))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", r.Name, err)
		}
		var rp price.RegionPrice
		if err := json.Unmarshal([]byte(val), &rp); err != nil {
			out = append(out, fallbackPrice(r))
			continue
		}
		out = append(out, rp)
	}
	return out, nil
}

func fallbackPrice(r Region) price.RegionPrice {
	return price.RegionPrice{
		Region:    r.Name,
		ContextID: r.ContextID,
		Price:     parameter.SimulatorFallbackPrice,
		Latency:   parameter.SimulatorFallbackLatency,
	}
}

// Oracle re-randomizes every region's price on a fixed cadence
type Oracle struct {
	store   Store
	regions []Region
	log     *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOracle creates an oracle; rng nil seeds from the clock
func NewOracle(store Store, regions []Region, rng *rand.Rand, log *zap.Logger) *Oracle {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	if len(regions) == 0 {
		regions = DefaultRegions()
	}
	return &Oracle{store: store, regions: regions, rng: rng, log: log}
}

// Generate draws one price per region
// Base price is uniform in [floor, floor+spread); a drop multiplies it by the drop factor
func (o *Oracle) Generate() []price.RegionPrice {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]price.RegionPrice, 0, len(o.regions))
	for _, r := range o.regions {
		p := parameter.SimulatorPriceFloor + o.rng.Float64()*parameter.SimulatorPriceSpread
		latency := 20 + o.rng.Intn(60)

		if o.rng.Float64() < parameter.SimulatorDropChance {
			p *= parameter.SimulatorDropFactor
			if o.rng.Float64() < 0.3 {
				latency = 200 + o.rng.Intn(100)
			}
		}
		if o.rng.Float64() < 0.1 {
			latency = 150 + o.rng.Intn(150)
		}

		out = append(out, price.RegionPrice{Region: r.Name, ContextID: r.ContextID, Price: p, Latency: latency})
	}
	return out
}

// Tick generates and stores a fresh price set
func (o *Oracle) Tick(ctx context.Context) error {
	prices := o.Generate()
	if err := o.store.Put(ctx, prices); err != nil {
		return fmt.Errorf("store prices: %w", err)
	}
	o.log.Debug("prices_updated", zap.Int("regions", len(prices)))
	return nil
}

// Run ticks immediately and then every interval until ctx is done
func (o *Oracle) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = parameter.SimulatorTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() {
		if err := o.Tick(ctx); err != nil && ctx.Err() == nil {
			o.log.Warn("price_tick_failed", zap.Error(err))
		}
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// Prices returns the stored price set
func (o *Oracle) Prices(ctx context.Context) ([]price.RegionPrice, error) {
	return o.store.Get(ctx)
}

// Price returns the stored price of one region
func (o *Oracle) Price(ctx context.Context, region string) (float64, bool, error) {
	prices, err := o.store.Get(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, p := range prices {
		if p.Region == region {
			return p.Price, true, nil
		}
	}
	return 0, false, nil
}

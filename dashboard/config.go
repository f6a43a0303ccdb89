package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/spotglobe/migration"
	"github.com/lixenwraith/spotglobe/network"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
)

// Config is every overridable setting of the interactive client
type Config struct {
	APIBase string

	// PriceSource selects the snapshot fetcher: "http" or "redis"
	PriceSource  string
	PollInterval time.Duration
	FetchTimeout time.Duration

	DropRatio  float64
	TieBreak   string
	AlertTTL   time.Duration
	CheapPrice float64

	FleetSize      int
	BaselinePrice  float64
	InitialSavings float64
	ResetDelay     time.Duration
	MigrateTimeout time.Duration
	SourcePolicy   string

	IdleRate float64
	Damping  float64

	Push    network.Kind
	PushURL string
	// RedisAddr serves the redis price source and the redis push source
	RedisAddr string
	LiveTTL   time.Duration

	Muted         bool
	FrameInterval time.Duration
}

// DefaultConfig returns parameter defaults against the local backend
func DefaultConfig() Config {
	return Config{
		APIBase:        parameter.DefaultAPIBase,
		PriceSource:    parameter.PriceSourceHTTP,
		PollInterval:   parameter.PollInterval,
		FetchTimeout:   parameter.FetchTimeout,
		DropRatio:      parameter.DropRatio,
		TieBreak:       parameter.DropTieBreak,
		AlertTTL:       parameter.DropAlertDuration,
		CheapPrice:     parameter.CheapPriceThreshold,
		FleetSize:      parameter.FleetSize,
		BaselinePrice:  parameter.BaselinePrice,
		ResetDelay:     parameter.AutoResetDelay,
		MigrateTimeout: parameter.MigrateTimeout,
		SourcePolicy:   parameter.SourcePolicy,
		IdleRate:       parameter.IdleRotationRate,
		Damping:        parameter.RotationDamping,
		Push:           network.KindWebSocket,
		PushURL:        parameter.DefaultPushURL,
		LiveTTL:        parameter.LiveEventTTL,
		FrameInterval:  parameter.FrameUpdateInterval,
	}
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	positive("poll interval", c.PollInterval)
	positive("fetch timeout", c.FetchTimeout)
	positive("alert ttl", c.AlertTTL)
	positive("reset delay", c.ResetDelay)
	positive("migrate timeout", c.MigrateTimeout)
	positive("live ttl", c.LiveTTL)
	positive("frame interval", c.FrameInterval)

	if c.FetchTimeout > c.PollInterval {
		errs = append(errs, fmt.Errorf("fetch timeout %v exceeds poll interval %v", c.FetchTimeout, c.PollInterval))
	}
	if c.DropRatio <= 0 || c.DropRatio >= 1 {
		errs = append(errs, fmt.Errorf("drop ratio must be in (0,1), got %v", c.DropRatio))
	}
	if c.FleetSize <= 0 {
		errs = append(errs, fmt.Errorf("fleet size must be positive, got %d", c.FleetSize))
	}
	if c.BaselinePrice < 0 || c.CheapPrice < 0 || c.InitialSavings < 0 {
		errs = append(errs, errors.New("prices and initial savings must be non-negative"))
	}
	if c.Damping <= 0 {
		errs = append(errs, fmt.Errorf("damping must be positive, got %v", c.Damping))
	}
	if _, err := price.ParseTieBreak(c.TieBreak); err != nil {
		errs = append(errs, err)
	}
	if _, err := migration.ParseSourcePolicy(c.SourcePolicy, parameter.PrimaryRegion, parameter.SecondaryRegion); err != nil {
		errs = append(errs, err)
	}

	switch c.PriceSource {
	case parameter.PriceSourceHTTP:
		if c.APIBase == "" {
			errs = append(errs, errors.New("api base is required for the http price source"))
		}
	case parameter.PriceSourceRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis price source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown price source %q", c.PriceSource))
	}

	switch c.Push {
	case network.KindNone:
	case network.KindWebSocket:
		if c.PushURL == "" {
			errs = append(errs, errors.New("push url is required for the websocket channel"))
		}
	case network.KindRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis channel"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown push channel %d", c.Push))
	}

	return errors.Join(errs...)
}

// ParsePush maps a flag value onto a push channel kind
func ParsePush(s string) (network.Kind, error) {
	switch s {
	case "", "none", "off":
		return network.KindNone, nil
	case "websocket", "ws":
		return network.KindWebSocket, nil
	case "redis":
		return network.KindRedis, nil
	default:
		return network.KindNone, fmt.Errorf("unknown push channel %q", s)
	}
}

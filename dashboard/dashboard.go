// Package dashboard is the interactive view: it builds every component, wires them
// onto one loop, maps terminal input to operator intents and draws each frame
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/audio"
	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/engine"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/geo"
	"github.com/lixenwraith/spotglobe/live"
	"github.com/lixenwraith/spotglobe/migration"
	"github.com/lixenwraith/spotglobe/network"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
	"github.com/lixenwraith/spotglobe/render"
	"github.com/lixenwraith/spotglobe/rotation"
	"github.com/lixenwraith/spotglobe/savings"
	"github.com/lixenwraith/spotglobe/service"
	"github.com/lixenwraith/spotglobe/status"
)

// Chimer plays alert sounds
type Chimer interface {
	Play(c audio.Chime) bool
	Enabled() bool
}

// Deps are optional collaborators; nil fields are built from Config
type Deps struct {
	Screen     tcell.Screen
	Table      *geo.Table
	Logger     *zap.Logger
	Status     *status.Registry
	Clock      engine.Clock
	HTTPClient *http.Client
	Redis      redis.UniversalClient
	Fetcher    price.Fetcher
	Migrator   migration.Migrator
	// Sources replaces the configured push channel when non-nil
	Sources []service.Service
	Audio   Chimer
}

// Dashboard owns the loop and everything wired onto it
type Dashboard struct {
	cfg   Config
	log   *zap.Logger
	reg   *status.Registry
	table *geo.Table

	screen   tcell.Screen
	loop     *engine.Loop
	services *service.Hub
	feed     *price.Feed
	orch     *migration.Orchestrator
	board    *live.Board
	rot      *rotation.Controller
	savings  *savings.Accumulator
	renderer *render.Orchestrator
	chimes   Chimer

	redis     redis.UniversalClient
	ownsRedis bool

	// Loop-goroutine state
	pulse     float64
	lastPhase migration.Phase
	lastDrops int64

	drops     *atomic.Int64
	connected *atomic.Bool

	closeOnce sync.Once
}

// New validates cfg and wires every component; nothing runs until Run
func New(cfg Config, deps Deps) (*Dashboard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dashboard: invalid config: %w", err)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := status.OrNew(deps.Status)
	table := deps.Table
	if table == nil {
		table = geo.DefaultTable()
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	d := &Dashboard{
		cfg:       cfg,
		log:       log,
		reg:       reg,
		table:     table,
		redis:     deps.Redis,
		drops:     reg.Ints.Get(status.KeyDrops),
		connected: reg.Bools.Get(status.KeySourceConnected),
	}

	if needsRedis(cfg) && d.redis == nil {
		d.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DialTimeout: parameter.DialTimeout})
		d.ownsRedis = true
	}

	screen := deps.Screen
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			d.closeRedis()
			return nil, fmt.Errorf("dashboard: create screen: %w", err)
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		d.closeRedis()
		return nil, fmt.Errorf("dashboard: init screen: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()
	core.RegisterTerminal(screen)
	d.screen = screen

	d.loop = engine.NewLoop(engine.LoopConfig{
		Clock:         deps.Clock,
		FrameInterval: cfg.FrameInterval,
		Status:        reg,
		Logger:        log.Named("loop"),
	})
	timers := d.loop.Timers()

	tie, _ := price.ParseTieBreak(cfg.TieBreak)
	d.feed = price.NewFeed(price.FeedConfig{
		DropRatio:  cfg.DropRatio,
		TieBreak:   tie,
		AlertTTL:   cfg.AlertTTL,
		CheapPrice: cfg.CheapPrice,
	}, timers, log.Named("feed"), reg)

	d.savings = savings.NewAccumulator(decimal.NewFromFloat(cfg.InitialSavings), d.loop.Clock(), reg)

	policy, _ := migration.ParseSourcePolicy(cfg.SourcePolicy, parameter.PrimaryRegion, parameter.SecondaryRegion)
	migrator := deps.Migrator
	if migrator == nil {
		migrator = migration.NewClient(cfg.APIBase, httpClient, log.Named("migrate"))
	}
	d.orch = migration.NewOrchestrator(migration.Config{
		FleetSize:     cfg.FleetSize,
		BaselinePrice: cfg.BaselinePrice,
		CheapPrice:    cfg.CheapPrice,
		ResetDelay:    cfg.ResetDelay,
		CallTimeout:   cfg.MigrateTimeout,
		BlockedReason: parameter.BlockedReason,
	}, migration.Deps{
		Timers:    timers,
		Publisher: d.loop,
		Migrator:  migrator,
		Source:    policy,
		Prices:    d.feed,
		Savings:   d.savings,
		Logger:    log.Named("migration"),
		Status:    reg,
	})

	d.board = live.NewBoard(cfg.LiveTTL, timers, log.Named("live"), reg)
	d.rot = rotation.NewController(table, rotation.Config{IdleRate: cfg.IdleRate, Damping: cfg.Damping})

	// Dispatch order within a tick: prices, workflow, live events, view
	d.loop.RegisterHandler(d.feed)
	d.loop.RegisterHandler(d.orch)
	d.loop.RegisterHandler(d.board)
	d.loop.RegisterHandler(event.HandlerFunc{
		Types: []event.EventType{event.EventSelectRegion, event.EventResize, event.EventQuit},
		Fn:    d.handleViewEvent,
	})

	d.orch.Subscribe(d.onMigrationState)
	d.feed.Subscribe(d.onFeedState)

	d.services = service.NewHub(log.Named("services"))
	if err := d.registerServices(deps); err != nil {
		d.Close()
		return nil, err
	}

	d.renderer = render.NewOrchestrator(screen)
	ambient := geo.Scatter(rand.New(rand.NewSource(parameter.AmbientSeed)), parameter.AmbientPointCount, parameter.GlobeRadius)
	d.renderer.Register(render.NewAmbientLayer(ambient, parameter.GlobeRadius), render.PriorityAmbient)
	d.renderer.Register(&render.ArcLayer{}, render.PriorityArc)
	d.renderer.Register(&render.MarkerLayer{Labels: true}, render.PriorityMarker)
	d.renderer.Register(render.HUDLayer{}, render.PriorityUI)
	d.loop.OnFrame(d.frame)

	log.Info("dashboard_ready",
		zap.String("price_source", cfg.PriceSource),
		zap.Stringer("push", cfg.Push),
		zap.Int("regions", len(table.Regions())))
	return d, nil
}

func needsRedis(cfg Config) bool {
	return cfg.PriceSource == parameter.PriceSourceRedis || cfg.Push == network.KindRedis
}

func (d *Dashboard) registerServices(deps Deps) error {
	fetcher := deps.Fetcher
	if fetcher == nil {
		switch d.cfg.PriceSource {
		case parameter.PriceSourceRedis:
			var names []string
			for _, r := range d.table.Regions() {
				names = append(names, r.Name)
			}
			fetcher = price.NewRedisFetcher(d.redis, names, d.log.Named("fetch"))
		default:
			client := deps.HTTPClient
			if client == nil {
				client = &http.Client{}
			}
			fetcher = price.NewHTTPFetcher(d.cfg.APIBase, client, d.log.Named("fetch"))
		}
	}

	svcs := []service.Service{
		price.NewPoller(fetcher, d.loop, d.cfg.PollInterval, d.cfg.FetchTimeout, d.log.Named("poller")),
	}

	sources := deps.Sources
	if sources == nil {
		netCfg := network.DefaultConfig()
		netCfg.Kind = d.cfg.Push
		netCfg.URL = d.cfg.PushURL
		netCfg.RedisAddr = d.cfg.RedisAddr
		switch d.cfg.Push {
		case network.KindWebSocket:
			sources = append(sources, network.NewWebSocketSource(netCfg, d.loop, d.log.Named("push"), d.reg))
		case network.KindRedis:
			sources = append(sources, network.NewRedisSource(netCfg, d.redis, d.loop, d.log.Named("push"), d.reg))
		}
	}
	// The view stays useful on prices alone when the push channel is down
	for _, src := range sources {
		svcs = append(svcs, service.NewOptional(src, d.log))
	}

	d.chimes = deps.Audio
	if d.chimes == nil {
		player := audio.NewPlayer(audio.Config{Muted: d.cfg.Muted, Volume: parameter.AudioMasterVolume}, d.log.Named("audio"))
		d.chimes = player
		svcs = append(svcs, player)
	}

	var errs []error
	for _, s := range svcs {
		if err := d.services.Register(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run starts services and input, then runs the loop until quit or ctx is done
// Teardown always runs before Run returns
func (d *Dashboard) Run(ctx context.Context) error {
	defer d.Close()

	if err := d.services.InitAll(ctx); err != nil {
		return fmt.Errorf("dashboard: init services: %w", err)
	}
	if err := d.services.StartAll(); err != nil {
		return fmt.Errorf("dashboard: start services: %w", err)
	}

	core.Go(d.pollInput)

	err := d.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops services, aborts in-flight work and restores the terminal
// Idempotent
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		if d.loop != nil {
			d.loop.Stop()
		}
		if d.services != nil {
			d.services.StopAll()
		}
		if d.orch != nil {
			d.orch.Close()
		}
		if d.board != nil {
			d.board.Close()
		}
		if d.loop != nil {
			d.loop.Timers().CancelAll()
		}
		d.closeRedis()
		if d.screen != nil {
			d.screen.Fini()
		}
		d.log.Info("dashboard_closed")
	})
}

func (d *Dashboard) closeRedis() {
	if d.ownsRedis && d.redis != nil {
		_ = d.redis.Close()
		d.redis = nil
	}
}

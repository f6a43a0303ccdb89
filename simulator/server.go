// Package simulator is a local stand-in for the orchestration backend
// It serves the price feed, the dry-run migrate endpoint and the push channel
package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/parameter"
)

// ErrVetoed is returned by DryRun when egress outweighs the savings horizon
var ErrVetoed = errors.New("migration vetoed by dry run")

// Config holds simulator settings
type Config struct {
	Addr         string
	TickInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         parameter.SimulatorAddr,
		TickInterval: parameter.SimulatorTickInterval,
	}
}

// DryRun compares one-off egress cost with projected savings over the horizon
// egress = GB × $/GB, savings = (current − target) × replicas × hours
func DryRun(current, target float64) (egress, savings float64, err error) {
	egress = parameter.SimulatorEgressGB * parameter.SimulatorEgressPerGB
	savings = (current - target) * parameter.SimulatorReplicas * parameter.SimulatorHorizonHours
	if egress > savings {
		return egress, savings, fmt.Errorf("%w: egress cost ($%.2f) exceeds projected 24h savings ($%.2f)", ErrVetoed, egress, savings)
	}
	return egress, savings, nil
}

type migrateRequest struct {
	SourceRegion string `json:"sourceRegion" binding:"required"`
	TargetRegion string `json:"targetRegion" binding:"required"`
}

// Server wires the oracle and hub behind a gin router
type Server struct {
	cfg    Config
	oracle *Oracle
	hub    *Hub
	router *gin.Engine
	log    *zap.Logger
}

// New builds the router; nothing listens until Run
func New(cfg Config, oracle *Oracle, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length"},
	}))

	s := &Server{cfg: cfg, oracle: oracle, hub: hub, router: r, log: log}

	api := r.Group("/api")
	api.GET("/prices", s.getPrices)
	api.POST("/migrate", s.migrate)
	api.GET("/ws", hub.Handle)
	return s
}

// Handler exposes the router, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the price ticker and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	core.Go(func() { s.oracle.Run(ctx, s.cfg.TickInterval) })

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	core.Go(func() { errCh <- srv.ListenAndServe() })
	s.log.Info("simulator_listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("simulator: %w", err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("simulator: shutdown: %w", err)
	}
	s.log.Info("simulator_stopped")
	return nil
}

func (s *Server) getPrices(c *gin.Context) {
	prices, err := s.oracle.Prices(c.Request.Context())
	if err != nil {
		s.log.Error("prices_read_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get prices"})
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (s *Server) migrate(c *gin.Context) {
	var req migrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	log := s.log.With(
		zap.String("source", req.SourceRegion),
		zap.String("target", req.TargetRegion),
		zap.String("request_id", c.GetHeader("X-Request-ID")),
	)

	current, okSrc, err := s.oracle.Price(ctx, req.SourceRegion)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get prices"})
		return
	}
	target, okDst, err := s.oracle.Price(ctx, req.TargetRegion)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get prices"})
		return
	}
	if !okSrc || !okDst {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown region"})
		return
	}

	egress, savings, err := DryRun(current, target)
	if err != nil {
		log.Info("migration_vetoed", zap.Float64("egress", egress), zap.Float64("savings", savings))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Migration failed: " + err.Error()})
		return
	}

	log.Info("migration_accepted", zap.Float64("egress", egress), zap.Float64("savings", savings))
	c.JSON(http.StatusOK, gin.H{"message": "Migration initiated successfully"})

	if err := s.hub.BroadcastMigration(ctx, req.SourceRegion, req.TargetRegion); err != nil {
		log.Warn("migration_broadcast_failed", zap.Error(err))
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

package service

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Optional wraps a service whose Init failure must not abort the hub
// A failed Init disables the wrapped service: Start and Stop become no-ops
type Optional struct {
	svc      Service
	log      *zap.Logger
	disabled atomic.Bool
}

func NewOptional(svc Service, log *zap.Logger) *Optional {
	if log == nil {
		log = zap.NewNop()
	}
	return &Optional{svc: svc, log: log}
}

func (o *Optional) Name() string           { return o.svc.Name() }
func (o *Optional) Dependencies() []string { return o.svc.Dependencies() }

func (o *Optional) Init(ctx context.Context) error {
	if err := o.svc.Init(ctx); err != nil {
		o.disabled.Store(true)
		o.log.Warn("service_disabled", zap.String("service", o.svc.Name()), zap.Error(err))
	}
	return nil
}

func (o *Optional) Start() error {
	if o.disabled.Load() {
		return nil
	}
	if err := o.svc.Start(); err != nil {
		o.disabled.Store(true)
		o.log.Warn("service_disabled", zap.String("service", o.svc.Name()), zap.Error(err))
	}
	return nil
}

func (o *Optional) Stop() error {
	if o.disabled.Load() {
		return nil
	}
	return o.svc.Stop()
}

// Disabled reports whether the wrapped service failed to come up
func (o *Optional) Disabled() bool {
	return o.disabled.Load()
}

package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Hub is the runtime container for service instances
// Manages lifecycle in dependency order
type Hub struct {
	mu       sync.Mutex
	services map[string]Service
	sorted   []string // Topological order, computed on InitAll
	inited   []string
	started  []string // Services that completed Start(), for rollback
	log      *zap.Logger
}

// NewHub creates an empty service hub
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		services: make(map[string]Service),
		log:      log,
	}
}

// Register adds a service instance to the hub
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, exists := h.services[name]; exists {
		return fmt.Errorf("service already registered: %s", name)
	}

	h.services[name] = svc
	h.sorted = nil
	return nil
}

// Get retrieves a service by name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	svc, ok := h.services[name]
	return svc, ok
}

// InitAll resolves dependencies and calls Init on all services
// On failure, calls Stop on already-initialized services in reverse order
func (h *Hub) InitAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sorted == nil {
		order, err := h.topologicalSort()
		if err != nil {
			return err
		}
		h.sorted = order
	}

	h.inited = nil
	for _, name := range h.sorted {
		if err := h.services[name].Init(ctx); err != nil {
			h.stopReverse(h.inited)
			h.inited = nil
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
		h.inited = append(h.inited, name)
	}
	return nil
}

// StartAll calls Start on all services in topological order
// On failure, stops every initialized service in reverse order
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.started = nil
	for _, name := range h.inited {
		if err := h.services[name].Start(); err != nil {
			h.stopReverse(h.inited)
			h.inited = nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
	}
	return nil
}

// StopAll calls Stop on all initialized services in reverse topological order
// Errors are logged, every service gets Stop called
func (h *Hub) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopReverse(h.inited)
	h.inited = nil
	h.started = nil
}

func (h *Hub) stopReverse(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		if err := h.services[names[i]].Stop(); err != nil {
			h.log.Warn("service_stop_failed", zap.String("service", names[i]), zap.Error(err))
		}
	}
}

// topologicalSort computes initialization order using Kahn's algorithm
// Ties are broken by name so the order is stable across runs
func (h *Hub) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for name := range h.services {
		inDegree[name] = 0
	}

	for name, svc := range h.services {
		for _, dep := range svc.Dependencies() {
			if _, exists := h.services[dep]; !exists {
				return nil, fmt.Errorf("service %s depends on unregistered service: %s", name, dep)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var result []string
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		result = append(result, name)

		var next []string
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				next = append(next, dependent)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
	}

	if len(result) != len(h.services) {
		return nil, fmt.Errorf("circular dependency detected in services")
	}
	return result, nil
}

// Names returns registered service names in sorted order
func (h *Hub) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

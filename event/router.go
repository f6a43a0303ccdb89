package event

// Handler processes specific event types
// Components implement this interface to receive routed events
type Handler interface {
	// HandleEvent processes a single event
	// Called synchronously on the loop goroutine
	HandleEvent(ev Event)

	// EventTypes returns the event types this handler processes
	// The router uses this for registration
	EventTypes() []EventType
}

// HandlerFunc adapts a function to a Handler for the given types
type HandlerFunc struct {
	Types []EventType
	Fn    func(Event)
}

func (h HandlerFunc) HandleEvent(ev Event)    { h.Fn(ev) }
func (h HandlerFunc) EventTypes() []EventType { return h.Types }

// Router dispatches events to registered handlers
//
// Architecture:
//   - Single-threaded dispatch
//   - Multiple handlers can register for the same event type
//   - Handlers are invoked in registration order
type Router struct {
	handlers map[EventType][]Handler
	queue    *Queue
}

// NewRouter creates a router attached to the given queue
func NewRouter(queue *Queue) *Router {
	return &Router{
		handlers: make(map[EventType][]Handler),
		queue:    queue,
	}
}

// Register adds a handler for its declared event types
func (r *Router) Register(handler Handler) {
	for _, t := range handler.EventTypes() {
		r.handlers[t] = append(r.handlers[t], handler)
	}
}

// DispatchAll consumes all pending events and routes to handlers
// Events are processed in FIFO order, returns the number dispatched
func (r *Router) DispatchAll() int {
	events := r.queue.Consume()
	for _, ev := range events {
		r.Dispatch(ev)
	}
	return len(events)
}

// Dispatch routes one event without touching the queue
func (r *Router) Dispatch(ev Event) {
	for _, h := range r.handlers[ev.Type] {
		h.HandleEvent(ev)
	}
}

// HandlerCount returns the number of handlers registered for the given type
func (r *Router) HandlerCount(t EventType) int {
	return len(r.handlers[t])
}

package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// Event is one verified provider notification.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"-"`
}

// Handler processes one event. Handlers must tolerate being skipped for
// duplicate ids; they are never invoked twice for the same event within
// the dedup window.
type Handler func(ctx context.Context, provider string, ev Event) error

// Disposition is the dispatch outcome. Every disposition is acknowledged
// to the provider; the ack says "received", not "processed".
type Disposition int

const (
	Delivered Disposition = iota
	Duplicate
	Unhandled
	HandlerError
)

func (d Disposition) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case Duplicate:
		return "duplicate"
	case Unhandled:
		return "unhandled"
	case HandlerError:
		return "handler_error"
	default:
		return "unknown"
	}
}

// Notifier is told about handler failures so an operator can investigate.
// Dispatch does not wait on it.
type Notifier interface {
	NotifyHandlerFailure(provider string, ev Event, err error)
}

// DefaultDedupWindow is how long an event id is remembered.
const DefaultDedupWindow = 24 * time.Hour

// Dispatcher routes verified events to type handlers, deduplicating by
// event id.
type Dispatcher struct {
	handlers    map[string]Handler
	cache       cache.Cache
	dedupWindow time.Duration
	notifier    Notifier
}

// DispatcherDeps carries the dispatcher's collaborators. Notifier may be
// nil when alerting is not configured.
type DispatcherDeps struct {
	Cache       cache.Cache
	DedupWindow time.Duration
	Notifier    Notifier
}

// NewDispatcher creates a Dispatcher with no handlers registered.
func NewDispatcher(d DispatcherDeps) *Dispatcher {
	window := d.DedupWindow
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Dispatcher{
		handlers:    make(map[string]Handler),
		cache:       d.Cache,
		dedupWindow: window,
		notifier:    d.Notifier,
	}
}

// Handle registers the handler for an event type. Call at startup; not
// safe to race with Dispatch.
func (d *Dispatcher) Handle(eventType string, h Handler) {
	d.handlers[eventType] = h
}

// Dispatch deduplicates and routes one event. A handler error does not
// change the caller's acknowledgement; the failure is logged, counted and
// reported to the notifier instead, because a retried delivery would be
// dropped as a duplicate anyway.
func (d *Dispatcher) Dispatch(ctx context.Context, provider string, ev Event) Disposition {
	log := logger.From(ctx).With(
		logger.Layer("webhook"),
		logger.Component("dispatcher"),
		logger.Provider(provider),
		logger.EventID(ev.ID),
		logger.EventType(ev.Type),
	)

	if !d.cache.Add(dedupKey(provider, ev.ID), []byte(ev.Type), d.dedupWindow) {
		metrics.WebhookDedupHits.Inc()
		log.Info("duplicate event dropped")
		return Duplicate
	}

	h, ok := d.handlers[ev.Type]
	if !ok {
		log.Warn("no handler for event type")
		return Unhandled
	}

	if err := d.run(ctx, h, provider, ev); err != nil {
		metrics.WebhookHandlerFailures.WithLabelValues(ev.Type).Inc()
		log.Error("event handler failed", logger.Err(err))
		if d.notifier != nil {
			d.notifier.NotifyHandlerFailure(provider, ev, err)
		}
		return HandlerError
	}

	log.Info("event delivered")
	return Delivered
}

// run invokes the handler, converting a panic into an error. A panic must
// not escape to the transport: the ack was promised on verification, and
// the redelivery would be dropped as a duplicate anyway.
func (d *Dispatcher) run(ctx context.Context, h Handler, provider string, ev Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, provider, ev)
}

func dedupKey(provider, eventID string) string {
	return "webhook:event:" + provider + ":" + eventID
}

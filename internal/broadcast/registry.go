// Package broadcast fans store config changes out to every open status
// stream in the process.
package broadcast

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/telemetry"
)

// DefaultWarnThreshold is the subscriber count above which Subscribe logs a
// warning. It is not a hard limit.
const DefaultWarnThreshold = 100

// Handler receives every change published after it subscribed. Handlers run
// on the publisher's goroutine and must not block; a returned error or panic
// is logged and does not stop delivery to other handlers.
type Handler func(cfg *model.StoreConfig) error

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	registry *Registry
	handler  Handler
}

// Cancel removes the subscription from its registry. It is safe to call more
// than once.
func (s *Subscription) Cancel() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.Unsubscribe(s)
}

// Registry is the set of active subscribers. The zero value is not usable;
// construct one with New.
type Registry struct {
	mu     sync.Mutex
	subs   []*Subscription
	warned bool

	warnAt    int
	logger    *slog.Logger
	collector telemetry.Collector
}

// Option configures a Registry.
type Option func(*Registry)

// WithWarnThreshold sets the subscriber count above which a warning is
// logged. Zero or negative disables the warning.
func WithWarnThreshold(n int) Option {
	return func(r *Registry) { r.warnAt = n }
}

// WithLogger sets the logger used for warnings and delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCollector reports subscriber counts and failures to c.
func WithCollector(c telemetry.Collector) Option {
	return func(r *Registry) {
		if c != nil {
			r.collector = c
		}
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		warnAt:    DefaultWarnThreshold,
		logger:    slog.Default(),
		collector: telemetry.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers h for all future publishes.
func (r *Registry) Subscribe(h Handler) *Subscription {
	sub := &Subscription{registry: r, handler: h}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	n := len(r.subs)
	warn := r.warnAt > 0 && n > r.warnAt && !r.warned
	if warn {
		r.warned = true
	}
	r.mu.Unlock()

	if warn {
		r.logger.Warn("store status subscribers above soft limit", "subscribers", n, "threshold", r.warnAt)
	}
	r.collector.SetSubscribers(n)
	return sub
}

// Unsubscribe removes sub. Removing a subscription that is no longer
// registered is a no-op.
func (r *Registry) Unsubscribe(sub *Subscription) {
	r.mu.Lock()
	removed := false
	for i, s := range r.subs {
		if s == sub {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			removed = true
			break
		}
	}
	n := len(r.subs)
	if r.warnAt <= 0 || n <= r.warnAt {
		r.warned = false
	}
	r.mu.Unlock()

	if removed {
		r.collector.SetSubscribers(n)
	}
}

// Len returns the number of active subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Publish invokes every handler registered at the time of the call, in
// registration order. Handlers may subscribe or unsubscribe while running.
// It returns the number of handlers that failed.
func (r *Registry) Publish(cfg *model.StoreConfig) int {
	r.mu.Lock()
	snapshot := make([]*Subscription, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	r.collector.IncBroadcast()
	failed := 0
	for _, sub := range snapshot {
		if err := r.deliver(sub, cfg.Clone()); err != nil {
			failed++
			r.collector.IncDeliveryFailure()
			r.logger.Warn("store status delivery failed", "err", err)
		}
	}
	return failed
}

func (r *Registry) deliver(sub *Subscription, cfg *model.StoreConfig) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
			r.logger.Debug("store status handler panic", "stack", string(debug.Stack()))
		}
	}()
	return sub.handler(cfg)
}

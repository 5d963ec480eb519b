package broadcast

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/swamys/hotfoods/internal/model"
)

type countingCollector struct {
	mu          sync.Mutex
	subscribers int
	broadcasts  int
	failures    int
}

func (c *countingCollector) SetSubscribers(n int) { c.mu.Lock(); c.subscribers = n; c.mu.Unlock() }
func (c *countingCollector) IncBroadcast()        { c.mu.Lock(); c.broadcasts++; c.mu.Unlock() }
func (c *countingCollector) IncDeliveryFailure()  { c.mu.Lock(); c.failures++; c.mu.Unlock() }

func (c *countingCollector) IncStoreConfigUpdate() {}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRegistry_PublishInRegistrationOrder(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	var order []int
	for i := range 3 {
		r.Subscribe(func(*model.StoreConfig) error {
			order = append(order, i)
			return nil
		})
	}

	r.Publish(model.DefaultStoreConfig())

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("delivery order = %v, want [0 1 2]", order)
	}
}

func TestRegistry_FailureIsolation(t *testing.T) {
	col := &countingCollector{}
	r := New(WithLogger(quietLogger()), WithCollector(col))

	r.Subscribe(func(*model.StoreConfig) error { return errors.New("broken pipe") })
	r.Subscribe(func(*model.StoreConfig) error { panic("boom") })

	var got *model.StoreConfig
	r.Subscribe(func(cfg *model.StoreConfig) error {
		got = cfg
		return nil
	})

	cfg := model.DefaultStoreConfig()
	cfg.IsShopOpen = true
	failed := r.Publish(cfg)

	if failed != 2 {
		t.Fatalf("failed = %d, want 2", failed)
	}
	if got == nil || !got.IsShopOpen {
		t.Fatalf("healthy subscriber did not receive config: %+v", got)
	}
	if col.failures != 2 || col.broadcasts != 1 {
		t.Fatalf("collector = %+v", col)
	}
}

func TestRegistry_HandlersGetIndependentCopies(t *testing.T) {
	r := New(WithLogger(quietLogger()))
	r.Subscribe(func(cfg *model.StoreConfig) error {
		cfg.IsShopOpen = true
		return nil
	})
	var seen bool
	r.Subscribe(func(cfg *model.StoreConfig) error {
		seen = cfg.IsShopOpen
		return nil
	})

	orig := model.DefaultStoreConfig()
	r.Publish(orig)

	if seen {
		t.Fatal("second handler observed mutation made by the first")
	}
	if orig.IsShopOpen {
		t.Fatal("handler mutated publisher's config")
	}
}

func TestRegistry_UnsubscribeIdempotent(t *testing.T) {
	col := &countingCollector{}
	r := New(WithLogger(quietLogger()), WithCollector(col))

	calls := 0
	sub := r.Subscribe(func(*model.StoreConfig) error {
		calls++
		return nil
	})
	other := r.Subscribe(func(*model.StoreConfig) error { return nil })

	r.Unsubscribe(sub)
	r.Unsubscribe(sub)
	sub.Cancel()

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	r.Publish(model.DefaultStoreConfig())
	if calls != 0 {
		t.Fatalf("unsubscribed handler called %d times", calls)
	}
	if col.subscribers != 1 {
		t.Fatalf("collector subscribers = %d, want 1", col.subscribers)
	}

	other.Cancel()
	var nilSub *Subscription
	nilSub.Cancel()
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
}

func TestRegistry_UnsubscribeDuringPublish(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	var self *Subscription
	selfCalls, laterCalls := 0, 0
	self = r.Subscribe(func(*model.StoreConfig) error {
		selfCalls++
		self.Cancel()
		return nil
	})
	r.Subscribe(func(*model.StoreConfig) error {
		laterCalls++
		return nil
	})

	r.Publish(model.DefaultStoreConfig())
	r.Publish(model.DefaultStoreConfig())

	if selfCalls != 1 {
		t.Fatalf("self-cancelling handler called %d times, want 1", selfCalls)
	}
	if laterCalls != 2 {
		t.Fatalf("later handler called %d times, want 2", laterCalls)
	}
}

func TestRegistry_SoftCapacityWarning(t *testing.T) {
	var buf bytes.Buffer
	r := New(WithWarnThreshold(2), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	noop := func(*model.StoreConfig) error { return nil }
	r.Subscribe(noop)
	r.Subscribe(noop)
	if buf.Len() != 0 {
		t.Fatalf("warned at threshold: %s", buf.String())
	}

	third := r.Subscribe(noop)
	r.Subscribe(noop)
	if got := strings.Count(buf.String(), "soft limit"); got != 1 {
		t.Fatalf("expected exactly one warning, got %d: %s", got, buf.String())
	}
	if r.Len() != 4 {
		t.Fatal("threshold must not reject subscribers")
	}

	// Dropping back under the threshold re-arms the warning.
	third.Cancel()
	r.Unsubscribe(r.subs[0])
	r.Subscribe(noop)
	if got := strings.Count(buf.String(), "soft limit"); got != 2 {
		t.Fatalf("expected warning to re-arm, got %d", got)
	}
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := New(WithLogger(quietLogger()))
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := r.Subscribe(func(*model.StoreConfig) error { return nil })
			r.Publish(model.DefaultStoreConfig())
			sub.Cancel()
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Fatalf("Len = %d after all cancelled", r.Len())
	}
}

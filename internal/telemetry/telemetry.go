// Package telemetry exposes store-status streaming metrics.
package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives metric events from the broadcast registry and the
// store config service. Calls are inline with publishing, so implementations
// must not block.
type Collector interface {
	SetSubscribers(n int)
	IncBroadcast()
	IncDeliveryFailure()
	IncStoreConfigUpdate()
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) SetSubscribers(int)    {}
func (noopCollector) IncBroadcast()         {}
func (noopCollector) IncDeliveryFailure()   {}
func (noopCollector) IncStoreConfigUpdate() {}

// PrometheusCollector records metrics in Prometheus collectors.
type PrometheusCollector struct {
	subscribers      prometheus.Gauge
	broadcasts       prometheus.Counter
	deliveryFailures prometheus.Counter
	updates          prometheus.Counter
}

// NewPrometheusCollector registers the metrics with reg, or with the default
// registerer when reg is nil. Registering twice reuses the existing metrics.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	p := &PrometheusCollector{}
	if p.subscribers, err = registerGauge(reg, prometheus.GaugeOpts{
		Name: "hotfoods_stream_subscribers",
		Help: "Number of connected store status stream subscribers.",
	}); err != nil {
		return nil, err
	}
	if p.broadcasts, err = registerCounter(reg, prometheus.CounterOpts{
		Name: "hotfoods_broadcast_total",
		Help: "Number of store config change notifications fanned out.",
	}); err != nil {
		return nil, err
	}
	if p.deliveryFailures, err = registerCounter(reg, prometheus.CounterOpts{
		Name: "hotfoods_delivery_failures_total",
		Help: "Number of subscriber handlers that failed during a broadcast.",
	}); err != nil {
		return nil, err
	}
	if p.updates, err = registerCounter(reg, prometheus.CounterOpts{
		Name: "hotfoods_store_config_updates_total",
		Help: "Number of store config mutations persisted.",
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func registerGauge(reg prometheus.Registerer, opts prometheus.GaugeOpts) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := reg.Register(g); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return g, nil
}

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) (prometheus.Counter, error) {
	c := prometheus.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

// SetSubscribers records the current subscriber count.
func (p *PrometheusCollector) SetSubscribers(n int) {
	if p == nil {
		return
	}
	p.subscribers.Set(float64(n))
}

// IncBroadcast counts one fan-out.
func (p *PrometheusCollector) IncBroadcast() {
	if p == nil {
		return
	}
	p.broadcasts.Inc()
}

// IncDeliveryFailure counts one failed handler invocation.
func (p *PrometheusCollector) IncDeliveryFailure() {
	if p == nil {
		return
	}
	p.deliveryFailures.Inc()
}

// IncStoreConfigUpdate counts one persisted mutation.
func (p *PrometheusCollector) IncStoreConfigUpdate() {
	if p == nil {
		return
	}
	p.updates.Inc()
}

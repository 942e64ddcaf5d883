// Package prom holds the client's Prometheus collectors. Every metric is
// declared once in the definitions table; Create registers them and the
// typed helpers below record values. Recording before Create is a no-op.
package prom

import (
	"errors"
	"fmt"
	"sync"

	xhttp "github.com/nimasrn/denitracker/pkg/http"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemSync         = "sync"
	SystemRemote       = "remote"
	SystemConnectivity = "connectivity"
)

const (
	MetricSyncReplays     = "replays_total"
	MetricSyncRunDuration = "run_duration_seconds"
	MetricSyncQueueDepth  = "queue_depth"
	MetricRemoteRequest   = "request_duration_seconds"
	MetricOnline          = "online"
)

type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Definition describes one metric family. Families without labels are still
// registered as vectors and recorded with no label values.
type Definition struct {
	Kind      Kind
	Subsystem string
	Name      string
	Help      string
	Labels    []string
	Buckets   []float64
}

func (d Definition) key() string { return d.Subsystem + "_" + d.Name }

var definitions = []Definition{
	{Kind: KindCounter, Subsystem: SystemSync, Name: MetricSyncReplays, Help: "Queued writes replayed against the ledger, by entity and outcome.", Labels: []string{"entity", "outcome"}},
	{Kind: KindHistogram, Subsystem: SystemSync, Name: MetricSyncRunDuration, Help: "Wall time of a full sync run.", Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}},
	{Kind: KindGauge, Subsystem: SystemSync, Name: MetricSyncQueueDepth, Help: "Local records waiting to be synced."},
	{Kind: KindHistogram, Subsystem: SystemRemote, Name: MetricRemoteRequest, Help: "Ledger API call latency, by method and outcome.", Labels: []string{"method", "outcome"}, Buckets: prometheus.DefBuckets},
	{Kind: KindGauge, Subsystem: SystemConnectivity, Name: MetricOnline, Help: "1 while the ledger answers health probes."},
}

type registry struct {
	mu         sync.RWMutex
	enabled    bool
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

var metrics = &registry{
	counters:   map[string]*prometheus.CounterVec{},
	gauges:     map[string]*prometheus.GaugeVec{},
	histograms: map[string]*prometheus.HistogramVec{},
}

// Create registers every definition under namespace with env and instance
// as constant labels. Calling it again re-binds the registered collectors.
func Create(host, env, namespace string) error {
	labels := prometheus.Labels{"env": env, "instance": host}

	var errs []error
	for _, d := range definitions {
		if err := metrics.add(namespace, labels, d); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", d.Kind, d.key(), err))
		}
	}

	metrics.mu.Lock()
	metrics.enabled = true
	metrics.mu.Unlock()
	return errors.Join(errs...)
}

func (r *registry) add(namespace string, constLabels prometheus.Labels, d Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch d.Kind {
	case KindCounter:
		c, err := register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: d.Subsystem, Name: d.Name, Help: d.Help, ConstLabels: constLabels,
		}, d.Labels))
		r.counters[d.key()] = c
		return err
	case KindGauge:
		g, err := register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: d.Subsystem, Name: d.Name, Help: d.Help, ConstLabels: constLabels,
		}, d.Labels))
		r.gauges[d.key()] = g
		return err
	case KindHistogram:
		h, err := register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: d.Subsystem, Name: d.Name, Help: d.Help, ConstLabels: constLabels, Buckets: d.Buckets,
		}, d.Labels))
		r.histograms[d.key()] = h
		return err
	}
	return fmt.Errorf("metric kind %s is not supported", d.Kind)
}

// register returns the collector already registered under the same
// descriptor, if any, so that Create is safe to call twice.
func register[C prometheus.Collector](c C) (C, error) {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func ListenAndServer(addr, uri string) {
	s := xhttp.CreateServer()
	s.GET(uri, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	logger.Info("[metrics-server] listening", "addr", addr, "uri", uri)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func lookup[V any](r *registry, set map[string]V, subsystem, name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero V
	if !r.enabled {
		return zero, false
	}
	v, ok := set[subsystem+"_"+name]
	if !ok {
		logger.Warn("[metrics] collector not found", "subsystem", subsystem, "name", name)
	}
	return v, ok
}

func AddCounter(subsystem, name string, n float64, labelValues ...string) {
	if c, ok := lookup(metrics, metrics.counters, subsystem, name); ok {
		c.WithLabelValues(labelValues...).Add(n)
	}
}

func SetGauge(subsystem, name string, v float64, labelValues ...string) {
	if g, ok := lookup(metrics, metrics.gauges, subsystem, name); ok {
		g.WithLabelValues(labelValues...).Set(v)
	}
}

func Observe(subsystem, name string, v float64, labelValues ...string) {
	if h, ok := lookup(metrics, metrics.histograms, subsystem, name); ok {
		h.WithLabelValues(labelValues...).Observe(v)
	}
}

func IncSyncReplay(entity, outcome string) {
	AddCounter(SystemSync, MetricSyncReplays, 1, entity, outcome)
}

func AddSyncRunDuration(seconds float64) {
	Observe(SystemSync, MetricSyncRunDuration, seconds)
}

func SetSyncQueueDepth(depth int64) {
	SetGauge(SystemSync, MetricSyncQueueDepth, float64(depth))
}

func AddRemoteRequestDuration(seconds float64, method, outcome string) {
	Observe(SystemRemote, MetricRemoteRequest, seconds, method, outcome)
}

func SetOnline(online bool) {
	v := 0.0
	if online {
		v = 1
	}
	SetGauge(SystemConnectivity, MetricOnline, v)
}

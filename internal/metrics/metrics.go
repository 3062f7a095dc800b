// SPDX-License-Identifier: MIT
// Package metrics exposes pipeline counters in Prometheus format.
//
// Every metric is backed by a function reading an atomic counter owned by
// the pipeline, so nothing here runs on the render thread.
package metrics

import (
	"errors"
	"net/http"

	"spectrum/internal/audio"
	"spectrum/internal/tap"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spectrum"

// Path is where the handler is usually mounted.
const Path = "/metrics"

// Sources are the pipeline components metrics are read from.
type Sources struct {
	Tap       interface{ Stats() tap.Stats }
	Mailbox   interface{ Overwritten() uint64 }
	Publisher interface{ Published() uint64 }
	Session   interface{ State() audio.State }
}

// Metrics owns a registry with the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	delivered   prometheus.CounterFunc
	dropped     prometheus.CounterFunc
	overwritten prometheus.CounterFunc
	published   prometheus.CounterFunc
	state       prometheus.GaugeFunc
}

// New registers collectors for src on a fresh registry. Runtime and process
// collectors are included when withRuntime is set.
func New(src Sources, withRuntime bool) (*Metrics, error) {
	if src.Tap == nil || src.Mailbox == nil || src.Publisher == nil || src.Session == nil {
		return nil, errors.New("metrics: all sources are required")
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		delivered: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_delivered_total",
			Help:      "Rendered blocks analyzed and published to the mailbox.",
		}, func() float64 { return float64(src.Tap.Stats().Delivered) }),
		dropped: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_dropped_total",
			Help:      "Rendered blocks rejected by the analyzer.",
		}, func() float64 { return float64(src.Tap.Stats().Dropped) }),
		overwritten: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_overwritten_total",
			Help:      "Spectra replaced in the mailbox before a consumer took them.",
		}, func() float64 { return float64(src.Mailbox.Overwritten()) }),
		published: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_published_total",
			Help:      "Frames sent to visualization transports.",
		}, func() float64 { return float64(src.Publisher.Published()) }),
		state: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_state",
			Help:      "Playback state: 0 idle, 1 loaded, 2 playing, 3 stopped.",
		}, func() float64 { return float64(src.Session.State()) }),
	}

	cs := []prometheus.Collector{m.delivered, m.dropped, m.overwritten, m.published, m.state}
	if withRuntime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

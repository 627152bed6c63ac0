// Package promadapter implements shared.Metrics by registering
// counters, gauges, and histograms against a prometheus.Registerer.
//
// Every coop call site already passes a fixed, small key/value tail (for
// example "name", "<component name>", "result", "success"); this adapter
// folds that tail into a single "attrs" label per metric rather than
// registering one label per key, since Prometheus requires a metric's
// label set to be the same on every observation and coop components don't
// all pass the same keys.
package promadapter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolosys/coop/shared"
)

// Adapter wraps a prometheus.Registerer to satisfy shared.Metrics.
type Adapter struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// New wraps reg as a shared.Metrics. A nil reg registers against
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Adapter{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func attrsLabel(kv []any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

func (a *Adapter) counterVec(name string) *prometheus.CounterVec {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cv, ok := a.counters[name]; ok {
		return cv
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, []string{"attrs"})
	a.reg.MustRegister(cv)
	a.counters[name] = cv
	return cv
}

func (a *Adapter) gaugeVec(name string) *prometheus.GaugeVec {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gv, ok := a.gauges[name]; ok {
		return gv
	}
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, []string{"attrs"})
	a.reg.MustRegister(gv)
	a.gauges[name] = gv
	return gv
}

func (a *Adapter) histogramVec(name string) *prometheus.HistogramVec {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hv, ok := a.histograms[name]; ok {
		return hv
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name}, []string{"attrs"})
	a.reg.MustRegister(hv)
	a.histograms[name] = hv
	return hv
}

func (a *Adapter) Inc(name string, kv ...any) {
	a.counterVec(name).WithLabelValues(attrsLabel(kv)).Inc()
}

func (a *Adapter) Add(name string, v float64, kv ...any) {
	a.counterVec(name).WithLabelValues(attrsLabel(kv)).Add(v)
}

func (a *Adapter) Gauge(name string, v float64, kv ...any) {
	a.gaugeVec(name).WithLabelValues(attrsLabel(kv)).Set(v)
}

func (a *Adapter) Histogram(name string, v float64, kv ...any) {
	a.histogramVec(name).WithLabelValues(attrsLabel(kv)).Observe(v)
}

var _ shared.Metrics = (*Adapter)(nil)

package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't match the defined labels.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrNegativeCounterValue is returned when attempting to add a negative value to a counter.
var ErrNegativeCounterValue = errors.New("counter cannot be decreased")

// ErrDuplicateMetric is returned when registering a metric with a name that is already registered.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// Type is the exposition type of a metric family.
type Type string

// Metric types.
const (
	TypeCounter   Type = "counter"
	TypeGauge     Type = "gauge"
	TypeHistogram Type = "histogram"
)

// DefaultBuckets are histogram bounds for exchange durations, in seconds.
var DefaultBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// atomicFloat64 stores float64 bits for lock-free updates.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// series is one label combination of a family.
type series struct {
	labels []string
	value  atomicFloat64

	// histogram only
	counts []atomic.Uint64
	sum    atomicFloat64
	count  atomic.Uint64
}

// family is a named metric with a fixed label set.
type family struct {
	name    string
	help    string
	typ     Type
	labels  []string
	buckets []float64
	read    func() float64

	mu     sync.RWMutex
	series map[string]*series
}

func (f *family) with(values []string) (*series, error) {
	if len(values) != len(f.labels) {
		return nil, fmt.Errorf("%w: %s wants %d, got %d", ErrLabelCountMismatch, f.name, len(f.labels), len(values))
	}
	key := strings.Join(values, "\x00")

	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.series[key]; ok {
		return s, nil
	}
	s = &series{labels: slices.Clone(values)}
	if f.typ == TypeHistogram {
		s.counts = make([]atomic.Uint64, len(f.buckets))
	}
	f.series[key] = s
	return s, nil
}

// Counter is a monotonically increasing value.
type Counter struct{ f *family }

// CounterVec is one label combination of a Counter.
type CounterVec struct{ s *series }

// WithLabels returns the series for the given label values.
func (c *Counter) WithLabels(values ...string) (*CounterVec, error) {
	s, err := c.f.with(values)
	if err != nil {
		return nil, err
	}
	return &CounterVec{s: s}, nil
}

// Inc adds one.
func (v *CounterVec) Inc() { v.s.value.Add(1) }

// Add adds a non-negative delta.
func (v *CounterVec) Add(delta float64) error {
	if delta < 0 {
		return ErrNegativeCounterValue
	}
	v.s.value.Add(delta)
	return nil
}

// Value returns the current count.
func (v *CounterVec) Value() float64 { return v.s.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct{ f *family }

// GaugeVec is one label combination of a Gauge.
type GaugeVec struct{ s *series }

// WithLabels returns the series for the given label values.
func (g *Gauge) WithLabels(values ...string) (*GaugeVec, error) {
	s, err := g.f.with(values)
	if err != nil {
		return nil, err
	}
	return &GaugeVec{s: s}, nil
}

// Set replaces the value.
func (v *GaugeVec) Set(value float64) { v.s.value.Store(value) }

// Add adds delta, which may be negative.
func (v *GaugeVec) Add(delta float64) { v.s.value.Add(delta) }

// Value returns the current value.
func (v *GaugeVec) Value() float64 { return v.s.value.Load() }

// Histogram counts observations into cumulative buckets.
type Histogram struct{ f *family }

// HistogramVec is one label combination of a Histogram.
type HistogramVec struct {
	s       *series
	buckets []float64
}

// WithLabels returns the series for the given label values.
func (h *Histogram) WithLabels(values ...string) (*HistogramVec, error) {
	s, err := h.f.with(values)
	if err != nil {
		return nil, err
	}
	return &HistogramVec{s: s, buckets: h.f.buckets}, nil
}

// Observe records one value.
func (v *HistogramVec) Observe(value float64) {
	if i, _ := slices.BinarySearch(v.buckets, value); i < len(v.buckets) {
		v.s.counts[i].Add(1)
	}
	v.s.sum.Add(value)
	v.s.count.Add(1)
}

// Count returns the number of observations.
func (v *HistogramVec) Count() uint64 { return v.s.count.Load() }

// Registry holds metric families in registration order.
type Registry struct {
	mu       sync.RWMutex
	families []*family
	names    map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

func (r *Registry) register(f *family) *family {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Duplicate names produce invalid exposition output.
	if _, dup := r.names[f.name]; dup {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, f.name))
	}
	f.series = make(map[string]*series)
	r.names[f.name] = struct{}{}
	r.families = append(r.families, f)
	return f
}

// NewCounter registers a counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	return &Counter{f: r.register(&family{name: name, help: help, typ: TypeCounter, labels: labels})}
}

// NewGauge registers a gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	return &Gauge{f: r.register(&family{name: name, help: help, typ: TypeGauge, labels: labels})}
}

// NewGaugeFunc registers an unlabelled gauge whose value is read at scrape
// time.
func (r *Registry) NewGaugeFunc(name, help string, read func() float64) {
	r.register(&family{name: name, help: help, typ: TypeGauge, read: read})
}

// NewHistogram registers a histogram. Buckets are sorted; nil means
// DefaultBuckets.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	buckets = slices.Clone(buckets)
	slices.Sort(buckets)
	return &Histogram{f: r.register(&family{name: name, help: help, typ: TypeHistogram, labels: labels, buckets: buckets})}
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = r.Write(w)
	})
}

// Write writes every family with at least one sample.
func (r *Registry) Write(w io.Writer) error {
	r.mu.RLock()
	families := slices.Clone(r.families)
	r.mu.RUnlock()

	var b strings.Builder
	for _, f := range families {
		f.write(&b)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (f *family) write(b *strings.Builder) {
	if f.read != nil {
		f.header(b)
		sample(b, f.name, nil, nil, f.read())
		return
	}

	f.mu.RLock()
	keys := make([]string, 0, len(f.series))
	for k := range f.series {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	all := make([]*series, len(keys))
	for i, k := range keys {
		all[i] = f.series[k]
	}
	f.mu.RUnlock()

	if len(all) == 0 {
		return
	}
	f.header(b)
	for _, s := range all {
		if f.typ != TypeHistogram {
			sample(b, f.name, f.labels, s.labels, s.value.Load())
			continue
		}
		names := append(slices.Clone(f.labels), "le")
		var cumulative uint64
		for i, bound := range f.buckets {
			cumulative += s.counts[i].Load()
			sample(b, f.name+"_bucket", names, append(slices.Clone(s.labels), formatFloat(bound)), float64(cumulative))
		}
		count := s.count.Load()
		sample(b, f.name+"_bucket", names, append(slices.Clone(s.labels), "+Inf"), float64(count))
		sample(b, f.name+"_sum", f.labels, s.labels, s.sum.Load())
		sample(b, f.name+"_count", f.labels, s.labels, float64(count))
	}
}

func (f *family) header(b *strings.Builder) {
	help := strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(f.help)
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", f.name, help, f.name, f.typ)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func sample(b *strings.Builder, name string, labels, values []string, v float64) {
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, `%s="%s"`, l, labelEscaper.Replace(values[i]))
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(formatFloat(v))
	b.WriteByte('\n')
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

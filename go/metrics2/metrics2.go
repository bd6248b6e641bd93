// Package metrics2 is a small facade over prometheus/client_golang that
// mirrors the shape of go.skia.org/infra/go/metrics2: named, tagged gauges
// and counters that register themselves with the default registry lazily,
// on first use of a given tag set.
package metrics2

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readGaugeValue extracts the current value of a gauge without requiring a
// scrape, by serializing it to its protobuf representation.
func readGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		panic(err)
	}
	return m.GetGauge().GetValue()
}

// Counter is a named integer metric that can be incremented, decremented
// and reset.
type Counter interface {
	Inc(delta int64)
	Dec(delta int64)
	Reset()
	Get() int64
	Delete() error
}

// Int64Metric is a named gauge holding an int64 value.
type Int64Metric interface {
	Update(v int64)
	Get() int64
	Delete() error
}

func clean(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return r.Replace(name)
}

func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Client is a registry of lazily-created gauge/counter vectors, one vector
// per metric name, with one child per distinct tag set.
type Client struct {
	mu        sync.Mutex
	gaugeVecs map[string]*prometheus.GaugeVec
}

// New returns a Client that registers with the default registerer.
func New() *Client {
	return &Client{
		gaugeVecs: map[string]*prometheus.GaugeVec{},
	}
}

func (c *Client) gaugeVec(name string, tags map[string]string) *prometheus.GaugeVec {
	name = clean(name)
	keys := sortedKeys(tags)
	vecKey := name
	if len(keys) > 0 {
		vecKey = name + " " + strings.Join(keys, " ")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	gv, ok := c.gaugeVecs[vecKey]
	if !ok {
		gv = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, keys)
		if err := prometheus.Register(gv); err != nil {
			// Another Client in this process already registered a vector
			// under this name (e.g. a second Store opened in the same
			// test binary): reuse it instead of panicking.
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				gv = are.ExistingCollector.(*prometheus.GaugeVec)
			} else {
				panic(err)
			}
		}
		c.gaugeVecs[vecKey] = gv
	}
	return gv
}

type int64Metric struct {
	vec    *prometheus.GaugeVec
	labels prometheus.Labels
}

// GetInt64Metric returns (creating if necessary) the int64 gauge for the
// given metric name and tag set.
func (c *Client) GetInt64Metric(name string, tags map[string]string) Int64Metric {
	gv := c.gaugeVec(name, tags)
	labels := prometheus.Labels{}
	for k, v := range tags {
		labels[k] = v
	}
	g, err := gv.GetMetricWith(labels)
	if err != nil {
		panic(err)
	}
	g.Add(0)
	return &int64Metric{vec: gv, labels: labels}
}

func (m *int64Metric) metric() prometheus.Gauge {
	g, err := m.vec.GetMetricWith(m.labels)
	if err != nil {
		panic(err)
	}
	return g
}

func (m *int64Metric) Update(v int64) {
	m.metric().Set(float64(v))
}

func (m *int64Metric) Get() int64 {
	return int64(readGaugeValue(m.metric()))
}

func (m *int64Metric) Delete() error {
	m.vec.Delete(m.labels)
	return nil
}

type counter struct {
	vec    *prometheus.GaugeVec
	labels prometheus.Labels
}

// GetCounter returns (creating if necessary) the counter for the given
// metric name and tag set. Modeled as a gauge underneath (like the
// teacher's Counter), since Counter supports Dec/Reset, which a strict
// prometheus.Counter disallows.
func (c *Client) GetCounter(name string, tags map[string]string) Counter {
	gv := c.gaugeVec(name, tags)
	labels := prometheus.Labels{}
	for k, v := range tags {
		labels[k] = v
	}
	g, err := gv.GetMetricWith(labels)
	if err != nil {
		panic(err)
	}
	g.Add(0)
	return &counter{vec: gv, labels: labels}
}

func (c *counter) metric() prometheus.Gauge {
	g, err := c.vec.GetMetricWith(c.labels)
	if err != nil {
		panic(err)
	}
	return g
}

func (c *counter) Inc(delta int64) { c.metric().Add(float64(delta)) }
func (c *counter) Dec(delta int64) { c.metric().Add(-float64(delta)) }
func (c *counter) Reset()          { c.metric().Set(0) }
func (c *counter) Get() int64      { return int64(readGaugeValue(c.metric())) }
func (c *counter) Delete() error {
	c.vec.Delete(c.labels)
	return nil
}

// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statscollector

import (
	"net/http"
	"sync"

	"github.com/ligato/cn-infra/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PrometheusStatsPath is the path where the statistics are exposed.
	PrometheusStatsPath = "/stats"

	interfaceNameLabel = "interfaceName"
	roleLabel          = "role"
	outcomeLabel       = "outcome"
	stepLabel          = "step"
	resultLabel        = "result"

	negotiationsMetric      = "negotiations"
	provisioningStepsMetric = "provisioningSteps"
)

// Collector collects negotiation statistics and publishes them to prometheus.
type Collector struct {
	sync.Mutex
	Log logging.Logger

	registry    *prometheus.Registry
	counterVecs map[string]*prometheus.CounterVec
	gauges      map[string]prometheus.GaugeFunc
}

// NewCollector creates the collector with its own prometheus registry.
// The interface name is attached to every metric as a constant label.
func NewCollector(log logging.Logger, interfaceName string) (*Collector, error) {
	c := &Collector{
		Log:         log,
		registry:    prometheus.NewRegistry(),
		counterVecs: map[string]*prometheus.CounterVec{},
		gauges:      map[string]prometheus.GaugeFunc{},
	}

	constLabels := prometheus.Labels{interfaceNameLabel: interfaceName}
	c.counterVecs[negotiationsMetric] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        negotiationsMetric,
		Help:        "Number of finished negotiation sessions",
		ConstLabels: constLabels,
	}, []string{roleLabel, outcomeLabel})
	c.counterVecs[provisioningStepsMetric] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        provisioningStepsMetric,
		Help:        "Number of processed provisioning steps",
		ConstLabels: constLabels,
	}, []string{stepLabel, resultLabel})

	// register created vectors to prometheus
	for name, metric := range c.counterVecs {
		if err := c.registry.Register(metric); err != nil {
			c.Log.Errorf("failed to register %v metric %v", name, err)
			return nil, err
		}
	}
	return c, nil
}

// IncNegotiations counts one finished negotiation session.
func (c *Collector) IncNegotiations(role, outcome string) {
	c.inc(negotiationsMetric, prometheus.Labels{roleLabel: role, outcomeLabel: outcome})
}

// IncProvisioningSteps counts one provisioning step.
func (c *Collector) IncProvisioningSteps(step, result string) {
	c.inc(provisioningStepsMetric, prometheus.Labels{stepLabel: step, resultLabel: result})
}

func (c *Collector) inc(metric string, labels prometheus.Labels) {
	counter, err := c.counterVecs[metric].GetMetricWith(labels)
	if err != nil {
		c.Log.Error(err)
		return
	}
	counter.Inc()
}

// RegisterGaugeFunc registers a new gauge with specific name, help string and valueFunc to report status when invoked.
func (c *Collector) RegisterGaugeFunc(name string, help string, valueFunc func() float64) {
	c.Lock()
	defer c.Unlock()

	if _, registered := c.gauges[name]; registered {
		c.Log.Warnf("Gauge %s is already registered", name)
		return
	}
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, valueFunc)
	if err := c.registry.Register(gauge); err != nil {
		c.Log.Errorf("failed to register %v gauge %v", name, err)
		return
	}
	c.gauges[name] = gauge
}

// Handler returns the HTTP handler exposing the statistics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
		ErrorLog:      c.Log,
	})
}

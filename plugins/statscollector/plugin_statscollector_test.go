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
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"github.com/ligato/cn-infra/logging/logrus"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestStatsCollector tests the statistics collector
func TestStatsCollector(t *testing.T) {
	gomega.RegisterTestingT(t)

	collector, err := NewCollector(logrus.DefaultLogger(), "eth1")
	gomega.Expect(err).To(gomega.BeNil())

	collector.IncNegotiations("responder", "accepted")
	collector.IncNegotiations("responder", "accepted")
	collector.IncNegotiations("initiator", "failed")
	collector.IncProvisioningSteps("address", "applied")

	negotiations := collector.counterVecs[negotiationsMetric]
	gomega.Expect(testutil.ToFloat64(negotiations.WithLabelValues("responder", "accepted"))).To(gomega.BeEquivalentTo(2))
	gomega.Expect(testutil.ToFloat64(negotiations.WithLabelValues("initiator", "failed"))).To(gomega.BeEquivalentTo(1))
	steps := collector.counterVecs[provisioningStepsMetric]
	gomega.Expect(testutil.ToFloat64(steps.WithLabelValues("address", "applied"))).To(gomega.BeEquivalentTo(1))

	collector.RegisterGaugeFunc("p2pSubnets", "Number of point-to-point subnets", func() float64 { return 2 })
	// second registration is ignored
	collector.RegisterGaugeFunc("p2pSubnets", "Number of point-to-point subnets", func() float64 { return 3 })

	recorder := httptest.NewRecorder()
	collector.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", PrometheusStatsPath, nil))
	gomega.Expect(recorder.Code).To(gomega.Equal(200))

	body, err := ioutil.ReadAll(recorder.Body)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(string(body)).To(gomega.ContainSubstring(
		`negotiations{interfaceName="eth1",outcome="accepted",role="responder"} 2`))
	gomega.Expect(string(body)).To(gomega.ContainSubstring("p2pSubnets 2"))
}

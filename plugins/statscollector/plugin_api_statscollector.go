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

// API defines API of the stats collector.
type API interface {
	// IncNegotiations counts one finished negotiation session of the given role and outcome.
	IncNegotiations(role, outcome string)

	// IncProvisioningSteps counts one provisioning step with its result.
	IncProvisioningSteps(step, result string)

	// RegisterGaugeFunc registers a new gauge with specific name, help string and valueFunc to report status when invoked.
	RegisterGaugeFunc(name string, help string, valueFunc func() float64)
}

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

package provisioner

import (
	"fmt"
)

// Step is one independently applied part of a RouteIntent.
type Step string

const (
	// StepLink is the lookup of the link interface.
	StepLink Step = "link"
	// StepAddress is the assignment of the negotiated address.
	StepAddress Step = "address"
	// StepRoute is the installation of the route via the peer.
	StepRoute Step = "route"
)

// ProvisioningError is returned when the host could not be configured
// according to a RouteIntent.
type ProvisioningError struct {
	Intent  *RouteIntent
	Step    Step
	Applied []Step
	Err     error
}

// Error returns a human-readable description of the error.
func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("unable to apply %s step of %v (applied steps: %v): %v",
		e.Step, e.Intent, e.Applied, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

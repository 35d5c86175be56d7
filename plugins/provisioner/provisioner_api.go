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
	"net"
)

// API defines the operation provided by the provisioner to the negotiation sessions.
type API interface {
	// Apply synchronously configures the host according to the intent.
	// On failure it returns *ProvisioningError.
	Apply(intent *RouteIntent) error
}

// StatsCollector is notified about every applied or failed provisioning step.
type StatsCollector interface {
	IncProvisioningSteps(step, result string)
}

// RouteIntent is the fully resolved description of the host configuration
// for one negotiated link.
type RouteIntent struct {
	// Address assigned to the interface.
	Address net.IP
	// PrefixLen of the assigned address (the point-to-point subnet).
	PrefixLen int
	// InterfaceName of the link interface.
	InterfaceName string
	// Route is optional, nil when no route is requested.
	Route *Route
}

// Route to a network reachable via the peer.
type Route struct {
	Destination *net.IPNet
	Via         net.IP
}

// AddressCIDR returns the assigned address together with its prefix length.
func (ri *RouteIntent) AddressCIDR() *net.IPNet {
	bits := 8 * net.IPv6len
	ip := ri.Address
	if ip4 := ri.Address.To4(); ip4 != nil {
		bits = 8 * net.IPv4len
		ip = ip4
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(ri.PrefixLen, bits)}
}

// String provides human-readable representation of the intent.
func (ri *RouteIntent) String() string {
	if ri.Route == nil {
		return fmt.Sprintf("<address=%s, interface=%s>", ri.AddressCIDR(), ri.InterfaceName)
	}
	return fmt.Sprintf("<address=%s, interface=%s, route=%s via %s>",
		ri.AddressCIDR(), ri.InterfaceName, ri.Route.Destination, ri.Route.Via)
}

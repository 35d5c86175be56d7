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

package negotiation

import (
	"fmt"
	"net"

	"github.com/pkg/errors"

	"github.com/contiv/l2handler/plugins/ipam"
	"github.com/contiv/l2handler/plugins/negotiation/restapi"
	"github.com/contiv/l2handler/plugins/provisioner"
)

// outcomes of negotiation sessions, as reported to the stats collector
const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeInvalid   = "invalid"
	outcomeFailed    = "failed"
	outcomeCompleted = "completed"
)

// StatsCollector is notified about every finished negotiation session.
type StatsCollector interface {
	IncNegotiations(role, outcome string)
}

// Selection is the result of a negotiation as selected by the responder.
type Selection struct {
	// Subnet selected for the link.
	Subnet ipam.P2PSubnet
	// RemoteFreeIP is the address for the initiator.
	RemoteFreeIP net.IP
	// LocallyAssignedIP is the address used by the responder.
	LocallyAssignedIP net.IP
	// AdvertisedNetwork of the responder, nil if none.
	AdvertisedNetwork *net.IPNet
}

// String provides human-readable representation of the selection.
func (s *Selection) String() string {
	return fmt.Sprintf("<subnet=%s, freeIP=%s, assignedIP=%s, advertisedNetwork=%v>",
		s.Subnet, s.RemoteFreeIP, s.LocallyAssignedIP, s.AdvertisedNetwork)
}

// NewNegotiationResponse encodes the selection for the wire.
func NewNegotiationResponse(s *Selection) *restapi.NegotiationResponse {
	resp := &restapi.NegotiationResponse{
		Net:        s.Subnet.String(),
		FreeIP:     s.RemoteFreeIP.String(),
		AssignedIP: s.LocallyAssignedIP.String(),
	}
	if s.AdvertisedNetwork != nil {
		resp.AdvertisedNetwork = s.AdvertisedNetwork.String()
	}
	return resp
}

// ParseNegotiationResponse decodes and validates the selection received from the responder.
func ParseNegotiationResponse(resp *restapi.NegotiationResponse) (*Selection, error) {
	if resp == nil {
		return nil, errors.New("empty negotiation response")
	}
	subnet, err := ipam.ParseP2PSubnet(resp.Net)
	if err != nil {
		return nil, errors.Wrap(err, "invalid selected subnet")
	}
	s := &Selection{
		Subnet:            subnet,
		RemoteFreeIP:      net.ParseIP(resp.FreeIP),
		LocallyAssignedIP: net.ParseIP(resp.AssignedIP),
	}
	if !ipam.ContainsHost(subnet, s.RemoteFreeIP) {
		return nil, errors.Errorf("free IP %q is not a host address of %s", resp.FreeIP, subnet)
	}
	if !ipam.ContainsHost(subnet, s.LocallyAssignedIP) || s.LocallyAssignedIP.Equal(s.RemoteFreeIP) {
		return nil, errors.Errorf("assigned IP %q is not the peer host address of %s", resp.AssignedIP, subnet)
	}
	if resp.AdvertisedNetwork != "" {
		if s.AdvertisedNetwork, err = ipam.ParseBlock(resp.AdvertisedNetwork); err != nil {
			return nil, errors.Wrap(err, "invalid advertised network")
		}
	}
	return s, nil
}

// newRouteIntent builds the host configuration for one side of the link.
// The route (if any) points to the destination via the peer address.
func newRouteIntent(subnet ipam.P2PSubnet, localIP, peerIP net.IP, ifName string,
	destination *net.IPNet) *provisioner.RouteIntent {

	intent := &provisioner.RouteIntent{
		Address:       localIP,
		PrefixLen:     subnet.PrefixLen(),
		InterfaceName: ifName,
	}
	if destination != nil {
		intent.Route = &provisioner.Route{
			Destination: destination,
			Via:         peerIP,
		}
	}
	return intent
}

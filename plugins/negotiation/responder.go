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
	"context"
	"net"

	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"

	"github.com/contiv/l2handler/plugins/ipam"
	"github.com/contiv/l2handler/plugins/negotiation/restapi"
	"github.com/contiv/l2handler/plugins/provisioner"
)

// Responder serves negotiation requests of remote peers.
// Every request is processed independently, the responder holds no per-session state.
type Responder struct {
	Log         logging.Logger
	Inventory   *ipam.Inventory
	Provisioner provisioner.API
	Stats       StatsCollector // optional
}

// NewResponder returns a new responder working with the given inventory.
func NewResponder(log logging.Logger, inventory *ipam.Inventory, prov provisioner.API,
	stats StatsCollector) *Responder {
	return &Responder{
		Log:         log,
		Inventory:   inventory,
		Provisioner: prov,
		Stats:       stats,
	}
}

// HandleNegotiation selects the common subnet, configures the local side of the link
// and returns the selection for the initiator.
// Returns ErrNoCommonSubnet if the proposal has nothing in common with the inventory,
// *ipam.InvalidBlockError for a malformed proposal and *provisioner.ProvisioningError
// if the host could not be configured.
func (r *Responder) HandleNegotiation(ctx context.Context, req *restapi.NegotiationRequest) (*restapi.NegotiationResponse, error) {
	if req == nil {
		r.count(outcomeInvalid)
		return nil, &ipam.InvalidBlockError{Block: "<nil>", Reason: "empty negotiation request"}
	}
	r.Log.Infof("Negotiation request received with the following proposed CIDRs: %v", req.CIDRs)

	proposal, err := ipam.ParseBlocks(req.CIDRs)
	if err != nil {
		r.Log.Warnf("Rejecting invalid proposal: %v", err)
		r.count(outcomeInvalid)
		return nil, err
	}
	var destination *net.IPNet
	if req.DestinationNetwork != "" {
		if destination, err = ipam.ParseBlock(req.DestinationNetwork); err != nil {
			r.Log.Warnf("Rejecting invalid destination network: %v", err)
			r.count(outcomeInvalid)
			return nil, err
		}
	}

	r.Log.Debug("Checking if a possible /30 net exists")
	subnet, found := ipam.FindCommonSubnet(r.Inventory, proposal)
	if !found {
		r.Log.Info("No common /30 network found")
		r.count(outcomeRejected)
		return nil, ErrNoCommonSubnet
	}
	r.Log.Infof("%s is also available locally so it is chosen as p2p network between the two routers", subnet)

	alloc, err := ipam.Allocate(subnet, ipam.Responder)
	if err != nil {
		r.Log.Errorf("Unable to allocate addresses of %s: %v", subnet, err)
		r.count(outcomeFailed)
		return nil, errors.Wrapf(err, "allocation of %s failed", subnet)
	}

	// the peer is not waiting for the reply anymore
	if err := ctx.Err(); err != nil {
		r.Log.Warnf("Negotiation request cancelled before configuring the router: %v", err)
		r.count(outcomeFailed)
		return nil, err
	}

	intent := newRouteIntent(subnet, alloc.LocalIP, alloc.PeerIP, r.Inventory.InterfaceName(), destination)
	r.Log.Infof("Configuring the router: %v", intent)
	if err := r.Provisioner.Apply(intent); err != nil {
		r.Log.Errorf("Error by configuring the router: %v", err)
		r.count(outcomeFailed)
		return nil, err
	}
	r.Log.Info("Done! Router configured")

	r.count(outcomeAccepted)
	return NewNegotiationResponse(&Selection{
		Subnet:            subnet,
		RemoteFreeIP:      alloc.PeerIP,
		LocallyAssignedIP: alloc.LocalIP,
		AdvertisedNetwork: r.Inventory.AdvertisedNetwork(),
	}), nil
}

func (r *Responder) count(outcome string) {
	if r.Stats != nil {
		r.Stats.IncNegotiations(ipam.Responder.String(), outcome)
	}
}

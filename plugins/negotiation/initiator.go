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
	"net/url"

	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"

	"github.com/contiv/l2handler/plugins/ipam"
	"github.com/contiv/l2handler/plugins/negotiation/restapi"
	"github.com/contiv/l2handler/plugins/provisioner"
)

// Initiator starts negotiations with remote peers.
type Initiator struct {
	Log         logging.Logger
	Inventory   *ipam.Inventory
	Provisioner provisioner.API
	Client      Client
	Stats       StatsCollector // optional
}

// NewInitiator returns a new initiator proposing the blocks of the given inventory.
func NewInitiator(log logging.Logger, inventory *ipam.Inventory, prov provisioner.API,
	client Client, stats StatsCollector) *Initiator {
	return &Initiator{
		Log:         log,
		Inventory:   inventory,
		Provisioner: prov,
		Client:      client,
		Stats:       stats,
	}
}

// NewNegotiationRequest builds the proposal sent to the peer from the local inventory.
func NewNegotiationRequest(inventory *ipam.Inventory) *restapi.NegotiationRequest {
	req := &restapi.NegotiationRequest{
		CIDRs: inventory.BlockStrings(),
	}
	if advertised := inventory.AdvertisedNetwork(); advertised != nil {
		req.DestinationNetwork = advertised.String()
	}
	return req
}

// StartNegotiation proposes the local blocks to the peer listening at the endpoint
// and configures the local side of the link with the selection of the peer.
// Returns *TransportError if the peer could not be reached or refused the proposal
// and *provisioner.ProvisioningError if the host could not be configured.
func (i *Initiator) StartNegotiation(ctx context.Context, endpoint string) (*restapi.NegotiationResponse, error) {
	if err := validateEndpoint(endpoint); err != nil {
		i.count(outcomeInvalid)
		return nil, err
	}

	req := NewNegotiationRequest(i.Inventory)
	i.Log.Infof("Starting negotiation with %s, proposed CIDRs: %v", endpoint, req.CIDRs)

	reply, err := i.Client.PostNegotiation(ctx, endpoint, req)
	if err != nil {
		i.Log.Warnf("Negotiation with %s failed: %v", endpoint, err)
		if transportErr, isTransport := err.(*TransportError); isTransport && transportErr.NoCommonSubnet() {
			i.count(outcomeRejected)
		} else {
			i.count(outcomeFailed)
		}
		return nil, err
	}

	selection, err := ParseNegotiationResponse(reply)
	if err == nil && !i.Inventory.Contains(selection.Subnet) {
		err = errors.Errorf("selected subnet %s is not available locally", selection.Subnet)
	}
	if err != nil {
		i.Log.Errorf("Invalid reply from %s: %v", endpoint, err)
		i.count(outcomeFailed)
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	i.Log.Infof("Peer %s selected %v", endpoint, selection)

	intent := newRouteIntent(selection.Subnet, selection.RemoteFreeIP, selection.LocallyAssignedIP,
		i.Inventory.InterfaceName(), selection.AdvertisedNetwork)
	i.Log.Infof("Configuring the router: %v", intent)
	if err := i.Provisioner.Apply(intent); err != nil {
		i.Log.Errorf("Error by configuring the router: %v", err)
		i.count(outcomeFailed)
		return nil, err
	}
	i.Log.Info("Done! Router configured")

	i.count(outcomeCompleted)
	return reply, nil
}

func (i *Initiator) count(outcome string) {
	if i.Stats != nil {
		i.Stats.IncNegotiations(ipam.Initiator.String(), outcome)
	}
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &InvalidEndpointError{Endpoint: endpoint}
	}
	return nil
}

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

package restapi

const (
	// RestURLHandleNegotiation is the URL where peers send negotiation requests.
	RestURLHandleNegotiation = "/handle_negotiation"

	// RestURLStartNegotiation is the URL which starts negotiation with a remote peer.
	RestURLStartNegotiation = "/start_negotiation"

	// RESTPrefix is versioned prefix for REST urls.
	RESTPrefix = "/l2handler/v1/"

	// RestURLInventory is versioned URL for the local inventory REST endpoint.
	RestURLInventory = RESTPrefix + "inventory"
)

// NegotiationRequest is sent by the initiator to the responder.
type NegotiationRequest struct {
	// CIDRs are the address blocks proposed by the initiator, order matters.
	CIDRs []string `json:"cidrs"`
	// DestinationNetwork is the network which the responder should route via the initiator.
	DestinationNetwork string `json:"destination_network,omitempty"`
}

// NegotiationResponse is returned by the responder once the link was configured on its side.
type NegotiationResponse struct {
	// Net is the selected point-to-point subnet.
	Net string `json:"net"`
	// FreeIP is the address for the initiator.
	FreeIP string `json:"free_ip"`
	// AssignedIP is the address used by the responder.
	AssignedIP string `json:"assigned_ip"`
	// AdvertisedNetwork is the network which the initiator should route via the responder.
	AdvertisedNetwork string `json:"advertised_network,omitempty"`
}

// RemoteAgent identifies the peer to negotiate with.
type RemoteAgent struct {
	// Endpoint is the URL of the peer negotiation handler.
	Endpoint string `json:"endpoint"`
}

// ErrorReply is returned with every non-success HTTP status.
type ErrorReply struct {
	Error        string   `json:"error"`
	FailedStep   string   `json:"failed_step,omitempty"`
	AppliedSteps []string `json:"applied_steps,omitempty"`
}

// InventoryData represents the local inventory of the agent.
type InventoryData struct {
	CIDRs             []string `json:"cidrs"`
	P2PSubnets        string   `json:"p2p_subnets"`
	AdvertisedNetwork string   `json:"advertised_network,omitempty"`
	InterfaceName     string   `json:"interface_name"`
}

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
	"sync"
	"testing"

	"github.com/ligato/cn-infra/logging"
	"github.com/ligato/cn-infra/logging/logrus"
	. "github.com/onsi/gomega"

	"github.com/contiv/l2handler/plugins/ipam"
	"github.com/contiv/l2handler/plugins/negotiation/restapi"
	"github.com/contiv/l2handler/plugins/provisioner"
)

// fakeProvisioner records applied intents instead of touching the host.
type fakeProvisioner struct {
	sync.Mutex
	intents []*provisioner.RouteIntent
	err     error
}

func (p *fakeProvisioner) Apply(intent *provisioner.RouteIntent) error {
	p.Lock()
	defer p.Unlock()
	if p.err != nil {
		return p.err
	}
	p.intents = append(p.intents, intent)
	return nil
}

func (p *fakeProvisioner) applied() []string {
	p.Lock()
	defer p.Unlock()
	var intents []string
	for _, intent := range p.intents {
		intents = append(intents, intent.String())
	}
	return intents
}

type outcomeCounter struct {
	sync.Mutex
	outcomes map[string]int
}

func (c *outcomeCounter) IncNegotiations(role, outcome string) {
	c.Lock()
	defer c.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[role+"/"+outcome]++
}

func (c *outcomeCounter) get(key string) int {
	c.Lock()
	defer c.Unlock()
	return c.outcomes[key]
}

func testLogger() logging.Logger {
	log := logrus.DefaultLogger()
	log.SetLevel(logging.DebugLevel)
	return log
}

func testInventory(ifName, advertised string, blocks ...string) *ipam.Inventory {
	parsed, err := ipam.ParseBlocks(blocks)
	Expect(err).To(BeNil())
	var advertisedNet *net.IPNet
	if advertised != "" {
		advertisedNet, err = ipam.ParseBlock(advertised)
		Expect(err).To(BeNil())
	}
	inv, err := ipam.NewInventory(parsed, advertisedNet, ifName)
	Expect(err).To(BeNil())
	return inv
}

func TestNegotiationResponseRoundTrip(t *testing.T) {
	RegisterTestingT(t)

	subnet, err := ipam.ParseP2PSubnet("10.0.0.4/30")
	Expect(err).To(BeNil())
	_, advertised, _ := net.ParseCIDR("172.16.0.0/16")
	selection := &Selection{
		Subnet:            subnet,
		RemoteFreeIP:      net.ParseIP("10.0.0.6"),
		LocallyAssignedIP: net.ParseIP("10.0.0.5"),
		AdvertisedNetwork: advertised,
	}

	resp := NewNegotiationResponse(selection)
	Expect(*resp).To(Equal(restapi.NegotiationResponse{
		Net:               "10.0.0.4/30",
		FreeIP:            "10.0.0.6",
		AssignedIP:        "10.0.0.5",
		AdvertisedNetwork: "172.16.0.0/16",
	}))

	parsed, err := ParseNegotiationResponse(resp)
	Expect(err).To(BeNil())
	Expect(parsed.Subnet.Equal(selection.Subnet)).To(BeTrue())
	Expect(parsed.RemoteFreeIP.Equal(selection.RemoteFreeIP)).To(BeTrue())
	Expect(parsed.LocallyAssignedIP.Equal(selection.LocallyAssignedIP)).To(BeTrue())
	Expect(parsed.AdvertisedNetwork.String()).To(Equal("172.16.0.0/16"))
	Expect(parsed.String()).To(ContainSubstring("10.0.0.4/30"))

	// without advertised network
	selection.AdvertisedNetwork = nil
	resp = NewNegotiationResponse(selection)
	Expect(resp.AdvertisedNetwork).To(BeEmpty())
	parsed, err = ParseNegotiationResponse(resp)
	Expect(err).To(BeNil())
	Expect(parsed.AdvertisedNetwork).To(BeNil())
}

func TestParseInvalidNegotiationResponse(t *testing.T) {
	RegisterTestingT(t)

	valid := restapi.NegotiationResponse{Net: "10.0.0.0/30", FreeIP: "10.0.0.2", AssignedIP: "10.0.0.1"}

	_, err := ParseNegotiationResponse(nil)
	Expect(err).ToNot(BeNil())

	for _, modify := range []func(r *restapi.NegotiationResponse){
		func(r *restapi.NegotiationResponse) { r.Net = "10.0.0.0/29" },
		func(r *restapi.NegotiationResponse) { r.Net = "garbage" },
		func(r *restapi.NegotiationResponse) { r.FreeIP = "10.0.0.3" },
		func(r *restapi.NegotiationResponse) { r.FreeIP = "" },
		func(r *restapi.NegotiationResponse) { r.AssignedIP = "10.0.0.2" },
		func(r *restapi.NegotiationResponse) { r.AssignedIP = "10.0.1.1" },
		func(r *restapi.NegotiationResponse) { r.AdvertisedNetwork = "172.16.0.0" },
	} {
		resp := valid
		modify(&resp)
		_, err := ParseNegotiationResponse(&resp)
		Expect(err).ToNot(BeNil(), "%+v", resp)
	}
}

func TestHandleNegotiation(t *testing.T) {
	RegisterTestingT(t)

	prov := &fakeProvisioner{}
	stats := &outcomeCounter{}
	responder := NewResponder(testLogger(), testInventory("eth1", "192.168.0.0/24", "10.0.0.0/29"), prov, stats)

	reply, err := responder.HandleNegotiation(context.Background(), &restapi.NegotiationRequest{
		CIDRs:              []string{"10.0.0.0/29"},
		DestinationNetwork: "172.16.0.0/16",
	})
	Expect(err).To(BeNil())
	Expect(*reply).To(Equal(restapi.NegotiationResponse{
		Net:               "10.0.0.0/30",
		FreeIP:            "10.0.0.2",
		AssignedIP:        "10.0.0.1",
		AdvertisedNetwork: "192.168.0.0/24",
	}))
	Expect(prov.applied()).To(Equal([]string{
		"<address=10.0.0.1/30, interface=eth1, route=172.16.0.0/16 via 10.0.0.2>",
	}))
	Expect(stats.get("responder/accepted")).To(Equal(1))

	// repeated request selects the same subnet
	again, err := responder.HandleNegotiation(context.Background(), &restapi.NegotiationRequest{
		CIDRs:              []string{"10.0.0.0/29"},
		DestinationNetwork: "172.16.0.0/16",
	})
	Expect(err).To(BeNil())
	Expect(*again).To(Equal(*reply))

	// without destination network no route is installed
	_, err = responder.HandleNegotiation(context.Background(), &restapi.NegotiationRequest{
		CIDRs: []string{"10.0.0.4/30"},
	})
	Expect(err).To(BeNil())
	Expect(prov.applied()[2]).To(Equal("<address=10.0.0.5/30, interface=eth1>"))
}

func TestHandleNegotiationFailures(t *testing.T) {
	RegisterTestingT(t)

	prov := &fakeProvisioner{}
	stats := &outcomeCounter{}
	responder := NewResponder(testLogger(), testInventory("eth1", "", "10.0.0.0/30"), prov, stats)
	ctx := context.Background()

	// nothing in common
	_, err := responder.HandleNegotiation(ctx, &restapi.NegotiationRequest{CIDRs: []string{"192.168.0.0/30"}})
	Expect(err).To(Equal(ErrNoCommonSubnet))
	Expect(stats.get("responder/rejected")).To(Equal(1))

	// empty proposal
	_, err = responder.HandleNegotiation(ctx, &restapi.NegotiationRequest{})
	Expect(err).To(Equal(ErrNoCommonSubnet))

	// malformed proposal
	_, err = responder.HandleNegotiation(ctx, &restapi.NegotiationRequest{CIDRs: []string{"10.0.0.0/33"}})
	Expect(err).To(BeAssignableToTypeOf(&ipam.InvalidBlockError{}))
	_, err = responder.HandleNegotiation(ctx, &restapi.NegotiationRequest{
		CIDRs:              []string{"10.0.0.0/30"},
		DestinationNetwork: "somewhere",
	})
	Expect(err).To(BeAssignableToTypeOf(&ipam.InvalidBlockError{}))
	_, err = responder.HandleNegotiation(ctx, nil)
	Expect(err).To(BeAssignableToTypeOf(&ipam.InvalidBlockError{}))
	Expect(stats.get("responder/invalid")).To(Equal(3))
	Expect(prov.applied()).To(BeEmpty())

	// cancelled before the host was touched
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = responder.HandleNegotiation(cancelled, &restapi.NegotiationRequest{CIDRs: []string{"10.0.0.0/30"}})
	Expect(err).To(Equal(context.Canceled))
	Expect(prov.applied()).To(BeEmpty())

	// provisioning failure is returned, not fatal
	prov.err = &provisioner.ProvisioningError{Step: provisioner.StepAddress}
	_, err = responder.HandleNegotiation(ctx, &restapi.NegotiationRequest{CIDRs: []string{"10.0.0.0/30"}})
	Expect(err).To(BeAssignableToTypeOf(&provisioner.ProvisioningError{}))
	Expect(stats.get("responder/failed")).To(Equal(2))
}

func TestHandleNegotiationIPv4MappedProposal(t *testing.T) {
	RegisterTestingT(t)

	prov := &fakeProvisioner{}
	stats := &outcomeCounter{}
	responder := NewResponder(testLogger(), testInventory("eth1", "", "fd00::/120"), prov, stats)

	_, err := responder.HandleNegotiation(context.Background(), &restapi.NegotiationRequest{
		CIDRs: []string{"::ffff:10.0.0.0/126"},
	})
	Expect(err).To(BeAssignableToTypeOf(&ipam.InvalidBlockError{}))
	Expect(prov.applied()).To(BeEmpty())
	Expect(stats.get("responder/invalid")).To(Equal(1))
	Expect(stats.get("responder/accepted")).To(BeZero())
}

func TestConcurrentHandleNegotiation(t *testing.T) {
	RegisterTestingT(t)

	const sessions = 50
	prov := &fakeProvisioner{}
	stats := &outcomeCounter{}
	responder := NewResponder(testLogger(), testInventory("eth1", "192.168.0.0/24", "10.0.0.0/24"), prov, stats)

	replies := make([]*restapi.NegotiationResponse, sessions)
	errs := make([]error, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i], errs[i] = responder.HandleNegotiation(context.Background(), &restapi.NegotiationRequest{
				CIDRs:              []string{"10.0.0.8/29", "10.0.0.0/24"},
				DestinationNetwork: "172.16.0.0/16",
			})
		}(i)
	}
	wg.Wait()

	expected := restapi.NegotiationResponse{
		Net:               "10.0.0.8/30",
		FreeIP:            "10.0.0.10",
		AssignedIP:        "10.0.0.9",
		AdvertisedNetwork: "192.168.0.0/24",
	}
	for i := 0; i < sessions; i++ {
		Expect(errs[i]).To(BeNil())
		Expect(*replies[i]).To(Equal(expected))
	}
	applied := prov.applied()
	Expect(applied).To(HaveLen(sessions))
	for _, intent := range applied {
		Expect(intent).To(Equal("<address=10.0.0.9/30, interface=eth1, route=172.16.0.0/16 via 10.0.0.10>"))
	}
	Expect(stats.get("responder/accepted")).To(Equal(sessions))
}

// fakeClient answers negotiation requests with the given responder in-process.
type fakeClient struct {
	responder *Responder
	requests  []*restapi.NegotiationRequest
}

func (c *fakeClient) PostNegotiation(ctx context.Context, endpoint string,
	req *restapi.NegotiationRequest) (*restapi.NegotiationResponse, error) {
	c.requests = append(c.requests, req)
	reply, err := c.responder.HandleNegotiation(ctx, req)
	if err == ErrNoCommonSubnet {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: 404, Message: noCommonSubnetMsg}
	}
	return reply, err
}

func TestStartNegotiation(t *testing.T) {
	RegisterTestingT(t)

	remoteProv := &fakeProvisioner{}
	localProv := &fakeProvisioner{}
	stats := &outcomeCounter{}
	client := &fakeClient{
		responder: NewResponder(testLogger(), testInventory("eth2", "192.168.0.0/24", "10.0.0.0/29"), remoteProv, nil),
	}
	initiator := NewInitiator(testLogger(), testInventory("eth1", "172.16.0.0/16", "10.0.0.0/29"),
		localProv, client, stats)

	reply, err := initiator.StartNegotiation(context.Background(), "http://peer:8000/handle_negotiation")
	Expect(err).To(BeNil())
	Expect(reply.Net).To(Equal("10.0.0.0/30"))

	Expect(client.requests).To(HaveLen(1))
	Expect(*client.requests[0]).To(Equal(restapi.NegotiationRequest{
		CIDRs:              []string{"10.0.0.0/29"},
		DestinationNetwork: "172.16.0.0/16",
	}))

	// addresses are complementary, routes point to each other
	Expect(remoteProv.applied()).To(Equal([]string{
		"<address=10.0.0.1/30, interface=eth2, route=172.16.0.0/16 via 10.0.0.2>",
	}))
	Expect(localProv.applied()).To(Equal([]string{
		"<address=10.0.0.2/30, interface=eth1, route=192.168.0.0/24 via 10.0.0.1>",
	}))
	Expect(stats.get("initiator/completed")).To(Equal(1))
}

func TestStartNegotiationFailures(t *testing.T) {
	RegisterTestingT(t)

	localProv := &fakeProvisioner{}
	stats := &outcomeCounter{}
	client := &fakeClient{
		responder: NewResponder(testLogger(), testInventory("eth2", "", "192.168.0.0/30"), &fakeProvisioner{}, nil),
	}
	initiator := NewInitiator(testLogger(), testInventory("eth1", "", "10.0.0.0/29"), localProv, client, stats)
	ctx := context.Background()

	// invalid endpoint
	for _, endpoint := range []string{"", "peer:8000", "ftp://peer/handle_negotiation"} {
		_, err := initiator.StartNegotiation(ctx, endpoint)
		Expect(err).To(BeAssignableToTypeOf(&InvalidEndpointError{}), endpoint)
	}
	Expect(client.requests).To(BeEmpty())

	// peer has nothing in common
	_, err := initiator.StartNegotiation(ctx, "http://peer:8000/handle_negotiation")
	Expect(err).To(BeAssignableToTypeOf(&TransportError{}))
	Expect(err.(*TransportError).StatusCode).To(Equal(404))
	Expect(stats.get("initiator/rejected")).To(Equal(1))

	// peer selected a subnet which is not available locally
	initiator.Client = &lyingClient{reply: &restapi.NegotiationResponse{
		Net: "10.0.1.0/30", FreeIP: "10.0.1.2", AssignedIP: "10.0.1.1",
	}}
	_, err = initiator.StartNegotiation(ctx, "http://peer:8000/handle_negotiation")
	Expect(err).To(BeAssignableToTypeOf(&TransportError{}))
	Expect(localProv.applied()).To(BeEmpty())

	// local provisioning failure
	client.responder.Inventory = testInventory("eth2", "", "10.0.0.0/24")
	initiator.Client = client
	localProv.err = &provisioner.ProvisioningError{Step: provisioner.StepRoute}
	_, err = initiator.StartNegotiation(ctx, "http://peer:8000/handle_negotiation")
	Expect(err).To(BeAssignableToTypeOf(&provisioner.ProvisioningError{}))
	Expect(stats.get("initiator/failed")).To(Equal(2))

	// unreachable peer and unrelated 404 are failures, not rejections
	localProv.err = nil
	for _, transportErr := range []*TransportError{
		{Endpoint: "http://peer:8000/handle_negotiation", Err: context.DeadlineExceeded},
		{Endpoint: "http://peer:8000/handle_negotiation", StatusCode: 404, Message: "404 page not found"},
	} {
		initiator.Client = &lyingClient{err: transportErr}
		_, err = initiator.StartNegotiation(ctx, "http://peer:8000/handle_negotiation")
		Expect(err).To(Equal(transportErr))
	}
	Expect(stats.get("initiator/failed")).To(Equal(4))
	Expect(stats.get("initiator/rejected")).To(Equal(1))
	Expect(localProv.applied()).To(BeEmpty())
}

// lyingClient returns the given reply or error without contacting the peer.
type lyingClient struct {
	reply *restapi.NegotiationResponse
	err   error
}

func (c *lyingClient) PostNegotiation(ctx context.Context, endpoint string,
	req *restapi.NegotiationRequest) (*restapi.NegotiationResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.reply, nil
}

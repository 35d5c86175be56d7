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

package cmdimpl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/contiv/l2handler/plugins/negotiation/restapi"
)

// DefaultAgentURL is where the local agent serves its REST APIs by default.
const DefaultAgentURL = "http://localhost:8000"

// AgentClient talks to the REST APIs of one agent.
type AgentClient struct {
	base string
	http *http.Client
}

// NewAgentClient returns a client for the agent listening at the given URL.
func NewAgentClient(agentURL string, timeout time.Duration) *AgentClient {
	return &AgentClient{
		base: strings.TrimSuffix(agentURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{},
			Timeout:   timeout,
		},
	}
}

// Get sends GET request and decodes the JSON reply into value.
func (c *AgentClient) Get(cmd string, value interface{}) error {
	resp, err := c.http.Get(c.base + cmd)
	if err != nil {
		return err
	}
	return decodeReply(resp, value)
}

// Post sends the body as JSON and decodes the JSON reply into value.
func (c *AgentClient) Post(cmd string, body interface{}, value interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+cmd, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	return decodeReply(resp, value)
}

func decodeReply(resp *http.Response, value interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		errReply := restapi.ErrorReply{}
		if err := json.NewDecoder(resp.Body).Decode(&errReply); err != nil || errReply.Error == "" {
			return errors.Errorf("agent replied with status %s", resp.Status)
		}
		if errReply.FailedStep != "" {
			return errors.Errorf("%s (failed step: %s, applied steps: %v)",
				errReply.Error, errReply.FailedStep, errReply.AppliedSteps)
		}
		return errors.New(errReply.Error)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(value), "invalid reply of the agent")
}

// Negotiate asks the agent to negotiate a link with the peer and prints the result.
func Negotiate(w io.Writer, client *AgentClient, peerEndpoint string) error {
	reply := restapi.NegotiationResponse{}
	if err := client.Post(restapi.RestURLStartNegotiation, restapi.RemoteAgent{Endpoint: peerEndpoint}, &reply); err != nil {
		return errors.Wrapf(err, "negotiation with %s failed", peerEndpoint)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "NET\tLOCAL-IP\tPEER-IP\tPEER-NETWORK\n")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", reply.Net, reply.FreeIP, reply.AssignedIP, orNone(reply.AdvertisedNetwork))
	return tw.Flush()
}

// PrintInventory prints the local inventory of the agent.
func PrintInventory(w io.Writer, client *AgentClient) error {
	data := restapi.InventoryData{}
	if err := client.Get(restapi.RestURLInventory, &data); err != nil {
		return errors.Wrap(err, "unable to get the inventory")
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "INTERFACE\tADVERTISED-NETWORK\tP2P-SUBNETS\tCIDRS\n")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", data.InterfaceName, orNone(data.AdvertisedNetwork),
		data.P2PSubnets, strings.Join(data.CIDRs, ","))
	return tw.Flush()
}

func orNone(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/contiv/l2handler/plugins/negotiation/restapi"
)

func newFakeAgent() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(restapi.RestURLStartNegotiation, func(w http.ResponseWriter, req *http.Request) {
		remote := restapi.RemoteAgent{}
		json.NewDecoder(req.Body).Decode(&remote)
		switch remote.Endpoint {
		case "http://peer/handle_negotiation":
			json.NewEncoder(w).Encode(restapi.NegotiationResponse{
				Net: "10.0.0.0/30", FreeIP: "10.0.0.2", AssignedIP: "10.0.0.1", AdvertisedNetwork: "192.168.0.0/24",
			})
		case "http://busy/handle_negotiation":
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(restapi.ErrorReply{
				Error: "route failed", FailedStep: "route", AppliedSteps: []string{"address"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(restapi.ErrorReply{Error: "No common CIDR found"})
		}
	})
	mux.HandleFunc(restapi.RestURLInventory, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(restapi.InventoryData{
			CIDRs: []string{"10.0.0.0/29", "10.0.1.0/30"}, P2PSubnets: "3", InterfaceName: "eth1",
		})
	})
	return httptest.NewServer(mux)
}

func TestNegotiate(t *testing.T) {
	RegisterTestingT(t)

	agent := newFakeAgent()
	defer agent.Close()
	client := NewAgentClient(agent.URL+"/", time.Second)

	out := &bytes.Buffer{}
	Expect(Negotiate(out, client, "http://peer/handle_negotiation")).To(Succeed())
	Expect(out.String()).To(ContainSubstring("LOCAL-IP"))
	Expect(out.String()).To(MatchRegexp(`10\.0\.0\.0/30\s+10\.0\.0\.2\s+10\.0\.0\.1\s+192\.168\.0\.0/24`))

	err := Negotiate(out, client, "http://other/handle_negotiation")
	Expect(err).ToNot(BeNil())
	Expect(err.Error()).To(ContainSubstring("No common CIDR found"))

	err = Negotiate(out, client, "http://busy/handle_negotiation")
	Expect(err).ToNot(BeNil())
	Expect(err.Error()).To(ContainSubstring("failed step: route"))
}

func TestPrintInventory(t *testing.T) {
	RegisterTestingT(t)

	agent := newFakeAgent()

	out := &bytes.Buffer{}
	Expect(PrintInventory(out, NewAgentClient(agent.URL, time.Second))).To(Succeed())
	Expect(out.String()).To(MatchRegexp(`eth1\s+-\s+3\s+10\.0\.0\.0/29,10\.0\.1\.0/30`))

	// agent not reachable
	agent.Close()
	Expect(PrintInventory(out, NewAgentClient(agent.URL, time.Second))).ToNot(Succeed())
}

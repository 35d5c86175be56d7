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

// L2-agent negotiates point-to-point links with peer agents over HTTP.
//
// Each agent owns a set of CIDR blocks. When two agents negotiate, the initiator
// proposes its blocks and the responder selects the first /30 subnet present on both
// sides, assigns the lower host address to its own interface and replies with the
// higher one. Both sides then configure the selected address on the local
// interface and optionally a route towards the network advertised by the peer.
//
// Usage:
//   l2-agent --cidrs 10.0.0.0/29 --interface-name eth1 --advertised-network 172.16.0.0/16
//   l2-agent --agent-config /etc/l2-agent/l2-agent.yaml
//
// Every flag can also be set by environment variable with the L2_AGENT_ prefix,
// e.g. L2_AGENT_CIDRS=10.0.0.0/29,192.168.5.0/30.
package main

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

// Package negotiation implements both sides of the point-to-point link
// negotiation between two agents.
//
// The initiator sends all address blocks of its local inventory to the peer
// (POST /handle_negotiation). The responder selects the first /30 subnet
// available on both sides, configures the lower host address of the subnet
// on its interface and replies with the selected subnet and the address
// left for the initiator. The initiator then configures that address on its
// own interface.
//
// Both sides may advertise a downstream network; the other side installs
// a route towards it via the peer address of the link.
//
// Negotiation with a remote agent is triggered via REST:
//
//      $ curl -X POST -d '{"endpoint": "http://192.168.16.2:8000/handle_negotiation"}' \
//            localhost:8000/start_negotiation
//      {
//        "net": "10.0.0.0/30",
//        "free_ip": "10.0.0.2",
//        "assigned_ip": "10.0.0.1"
//      }
//
// The local inventory can be inspected with GET /l2handler/v1/inventory.
package negotiation

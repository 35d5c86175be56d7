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

// Package ipam provides the address calculations behind the point-to-point
// link negotiation: splitting address blocks into /30 subnets, holding the
// node-local inventory of blocks, matching a peer proposal against that
// inventory and assigning the two usable host addresses of the selected
// subnet to the two peers.
//
// The inventory is built once at startup and never modified afterwards,
// therefore it can be shared by all negotiation sessions without locking.
//
// Selection of the common subnet is deterministic: the blocks proposed by
// the peer are examined in the order of the proposal and within each block
// the subnets are examined in ascending address order. The first subnet that
// is also available locally wins.
//
// Example:
//
//	    local blocks:    10.0.0.0/29
//	    peer proposal:   ["192.168.0.0/30", "10.0.0.0/29"]
//
//	    selected subnet: 10.0.0.0/30
//	    responder IP:    10.0.0.1
//	    initiator IP:    10.0.0.2
//
// IPv6 blocks are supported as well, with /127 subnets (RFC 6164) playing
// the role of the IPv4 /30.
package ipam

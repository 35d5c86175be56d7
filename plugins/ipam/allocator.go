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

package ipam

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
	"github.com/go-errors/errors"
)

// Role of a peer in the negotiation.
type Role int

const (
	// Responder is the peer which receives the proposal and selects the subnet.
	Responder Role = iota

	// Initiator is the peer which sends the proposal and waits for the selection.
	Initiator
)

// String returns the name of the role.
func (r Role) String() string {
	switch r {
	case Responder:
		return "responder"
	case Initiator:
		return "initiator"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Allocation is the assignment of the two usable host addresses of a point-to-point
// subnet to this peer and the remote peer.
type Allocation struct {
	LocalIP net.IP
	PeerIP  net.IP
}

// String provides human-readable representation of the allocation.
func (a Allocation) String() string {
	return fmt.Sprintf("<local=%s, peer=%s>", a.LocalIP, a.PeerIP)
}

// Allocate assigns host addresses of the subnet. The lower address always belongs
// to the responder, the higher one to the initiator.
func Allocate(subnet P2PSubnet, role Role) (Allocation, error) {
	lower, higher, err := HostAddresses(subnet)
	if err != nil {
		return Allocation{}, err
	}
	switch role {
	case Responder:
		return Allocation{LocalIP: lower, PeerIP: higher}, nil
	case Initiator:
		return Allocation{LocalIP: higher, PeerIP: lower}, nil
	}
	return Allocation{}, errors.Errorf("unknown negotiation role %v", role)
}

// HostAddresses returns the two usable host addresses of the subnet in ascending order.
// The network and broadcast addresses of an IPv4 /30 are never returned, an IPv6 /127
// has no such addresses and both of them are usable.
func HostAddresses(subnet P2PSubnet) (lower, higher net.IP, err error) {
	if subnet.IsZero() {
		return nil, nil, &SubnetTooSmallError{Subnet: subnet.String(), PrefixLen: P2PPrefixLenV4}
	}
	prefixLen := P2PPrefixLen(subnet.network)
	if subnet.PrefixLen() != prefixLen {
		return nil, nil, &SubnetTooSmallError{Subnet: subnet.String(), PrefixLen: prefixLen}
	}

	firstHost := 1
	if prefixLen == P2PPrefixLenV6 {
		firstHost = 0
	}
	if lower, err = cidr.Host(subnet.network, firstHost); err != nil {
		return nil, nil, errors.Wrap(err, 0)
	}
	if higher, err = cidr.Host(subnet.network, firstHost+1); err != nil {
		return nil, nil, errors.Wrap(err, 0)
	}
	return lower, higher, nil
}

// ContainsHost returns true if the address is one of the usable host addresses of the subnet.
func ContainsHost(subnet P2PSubnet, ip net.IP) bool {
	lower, higher, err := HostAddresses(subnet)
	if err != nil || ip == nil {
		return false
	}
	return ip.Equal(lower) || ip.Equal(higher)
}

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
	"math/big"
	"net"
	"strings"

	"github.com/apparentlymart/go-cidr/cidr"
)

const (
	// P2PPrefixLenV4 is the prefix length of an IPv4 point-to-point subnet.
	P2PPrefixLenV4 = 30

	// P2PPrefixLenV6 is the prefix length of an IPv6 point-to-point subnet (RFC 6164).
	P2PPrefixLenV6 = 127

	// networks with more bits than this are numbered with big.Int arithmetic,
	// cidr.Subnet only accepts an int network number
	maxCidrSubnetBits = 30
)

// ipv4MappedNet is the IPv6 range of IPv4-mapped addresses (::ffff:0:0/96).
var ipv4MappedNet = &net.IPNet{
	IP:   net.IP{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0, 0, 0, 0},
	Mask: net.CIDRMask(96, 8*net.IPv6len),
}

// P2PSubnet is a point-to-point subnet with exactly two usable host addresses.
// It is produced by the decomposer or by ParseP2PSubnet, the zero value
// represents "no subnet".
type P2PSubnet struct {
	network *net.IPNet
}

// IPNet returns a copy of the subnet as net.IPNet.
func (s P2PSubnet) IPNet() *net.IPNet {
	if s.network == nil {
		return nil
	}
	return copyIPNet(s.network)
}

// IsZero returns true for the zero value of P2PSubnet.
func (s P2PSubnet) IsZero() bool {
	return s.network == nil
}

// PrefixLen returns the prefix length of the subnet.
func (s P2PSubnet) PrefixLen() int {
	if s.network == nil {
		return 0
	}
	ones, _ := s.network.Mask.Size()
	return ones
}

// Equal compares network address and prefix length of two subnets.
func (s P2PSubnet) Equal(other P2PSubnet) bool {
	if s.network == nil || other.network == nil {
		return s.network == other.network
	}
	return s.network.IP.Equal(other.network.IP) && s.PrefixLen() == other.PrefixLen()
}

// String returns the subnet in the CIDR notation.
func (s P2PSubnet) String() string {
	if s.network == nil {
		return "<none>"
	}
	return s.network.String()
}

// ParseBlock parses address block in the CIDR notation. The host bits
// of the address are cleared. IPv6 blocks overlapping the IPv4-mapped
// range are rejected, their addresses cannot be told apart from IPv4 ones.
func ParseBlock(block string) (*net.IPNet, error) {
	block = strings.TrimSpace(block)
	_, ipNet, err := net.ParseCIDR(block)
	if err != nil {
		return nil, &InvalidBlockError{Block: block, Reason: err.Error()}
	}
	if len(ipNet.IP) == net.IPv6len && (ipNet.IP.To4() != nil || ipNet.Contains(ipv4MappedNet.IP)) {
		return nil, &InvalidBlockError{Block: block, Reason: "IPv4-mapped IPv6 addresses are not supported"}
	}
	return ipNet, nil
}

// ParseBlocks parses a list of address blocks, failing on the first invalid one.
// Every block must be splittable into point-to-point subnets.
func ParseBlocks(blocks []string) ([]*net.IPNet, error) {
	var parsed []*net.IPNet
	for _, block := range blocks {
		ipNet, err := ParseBlock(block)
		if err != nil {
			return nil, err
		}
		if err := checkDecomposable(ipNet, P2PPrefixLen(ipNet)); err != nil {
			return nil, err
		}
		parsed = append(parsed, ipNet)
	}
	return parsed, nil
}

// ParseP2PSubnet parses a point-to-point subnet, e.g. as received from a peer.
func ParseP2PSubnet(subnet string) (P2PSubnet, error) {
	ipNet, err := ParseBlock(subnet)
	if err != nil {
		return P2PSubnet{}, err
	}
	if ones, _ := ipNet.Mask.Size(); ones != P2PPrefixLen(ipNet) {
		return P2PSubnet{}, &SubnetTooSmallError{Subnet: ipNet.String(), PrefixLen: P2PPrefixLen(ipNet)}
	}
	return P2PSubnet{network: ipNet}, nil
}

// P2PPrefixLen returns the point-to-point prefix length for the address family of the block.
func P2PPrefixLen(block *net.IPNet) int {
	if _, bits := block.Mask.Size(); bits == 8*net.IPv4len {
		return P2PPrefixLenV4
	}
	return P2PPrefixLenV6
}

// ContainsSubnet returns true if the subnet lies within the block.
func ContainsSubnet(block *net.IPNet, subnet P2PSubnet) bool {
	if block == nil || subnet.network == nil {
		return false
	}
	blockOnes, blockBits := block.Mask.Size()
	subnetOnes, subnetBits := subnet.network.Mask.Size()
	if blockBits != subnetBits || blockOnes > subnetOnes {
		return false
	}
	return block.Contains(subnet.network.IP)
}

// SubnetIterator lazily walks through the point-to-point subnets of one
// or more address blocks. Subnets of each block are returned in ascending
// address order, blocks in the order they were given. A subnet covered
// by an earlier block is returned only once.
type SubnetIterator struct {
	parts []decomposition
	part  int
	next  *big.Int
}

// decomposition describes split of one block into subnets of the same size.
type decomposition struct {
	block   *net.IPNet
	newBits int
	count   *big.Int
}

// Decompose splits the block into subnets with the target prefix length.
// The subnets are produced on demand by the returned iterator.
func Decompose(block *net.IPNet, targetPrefixLen int) (*SubnetIterator, error) {
	part, err := newDecomposition(block, targetPrefixLen)
	if err != nil {
		return nil, err
	}
	return newSubnetIterator(part), nil
}

// DecomposeP2P splits the block into point-to-point subnets of its address family.
func DecomposeP2P(block *net.IPNet) (*SubnetIterator, error) {
	if block == nil {
		return nil, &InvalidBlockError{Block: "<nil>", Reason: "missing address block"}
	}
	return Decompose(block, P2PPrefixLen(block))
}

func newDecomposition(block *net.IPNet, targetPrefixLen int) (decomposition, error) {
	if err := checkDecomposable(block, targetPrefixLen); err != nil {
		return decomposition{}, err
	}
	ones, _ := block.Mask.Size()
	newBits := targetPrefixLen - ones
	return decomposition{
		block:   copyIPNet(block),
		newBits: newBits,
		count:   new(big.Int).Lsh(big.NewInt(1), uint(newBits)),
	}, nil
}

func checkDecomposable(block *net.IPNet, targetPrefixLen int) error {
	if block == nil {
		return &InvalidBlockError{Block: "<nil>", Reason: "missing address block"}
	}
	ones, bits := block.Mask.Size()
	if bits == 0 {
		return &InvalidBlockError{Block: block.String(), Reason: "non-canonical netmask"}
	}
	if targetPrefixLen > bits || targetPrefixLen < 0 {
		return &InvalidBlockError{Block: block.String(),
			Reason: fmt.Sprintf("target prefix length /%d is out of range", targetPrefixLen)}
	}
	if ones > targetPrefixLen {
		return &InvalidBlockError{Block: block.String(),
			Reason: fmt.Sprintf("prefix length /%d cannot be split into /%d subnets", ones, targetPrefixLen)}
	}
	return nil
}

func newSubnetIterator(parts ...decomposition) *SubnetIterator {
	return &SubnetIterator{
		parts: parts,
		next:  new(big.Int),
	}
}

// Count returns the total number of subnets of all blocks, including
// the ones skipped as duplicates.
func (it *SubnetIterator) Count() *big.Int {
	total := new(big.Int)
	for _, part := range it.parts {
		total.Add(total, part.count)
	}
	return total
}

// GetNext returns the next subnet. Once all subnets were returned, stop is true.
func (it *SubnetIterator) GetNext() (subnet P2PSubnet, stop bool) {
	for it.part < len(it.parts) {
		part := it.parts[it.part]
		if it.next.Cmp(part.count) >= 0 {
			it.part++
			it.next.SetInt64(0)
			continue
		}
		subnet = P2PSubnet{network: nthSubnet(part.block, part.newBits, it.next)}
		it.next.Add(it.next, big.NewInt(1))
		if it.coveredByEarlierPart(subnet) {
			continue
		}
		return subnet, false
	}
	return P2PSubnet{}, true
}

// Reset restarts the iteration from the first subnet.
func (it *SubnetIterator) Reset() {
	it.part = 0
	it.next.SetInt64(0)
}

func (it *SubnetIterator) coveredByEarlierPart(subnet P2PSubnet) bool {
	for i := 0; i < it.part; i++ {
		if ContainsSubnet(it.parts[i].block, subnet) {
			return true
		}
	}
	return false
}

// nthSubnet returns subnet number <num> of the base network extended by newBits.
func nthSubnet(base *net.IPNet, newBits int, num *big.Int) *net.IPNet {
	if newBits <= maxCidrSubnetBits {
		subnet, err := cidr.Subnet(base, newBits, int(num.Int64()))
		if err == nil {
			return subnet
		}
	}
	ones, bits := base.Mask.Size()
	newPrefixLen := ones + newBits
	return &net.IPNet{
		IP:   insertNetworkNumIntoIP(base.IP, num, newPrefixLen),
		Mask: net.CIDRMask(newPrefixLen, bits),
	}
}

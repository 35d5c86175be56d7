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
	"strings"

	"github.com/go-errors/errors"
)

// DefaultInterfaceName is the name of the interface configured with the negotiated
// address when no other interface was selected.
const DefaultInterfaceName = "enp0s2"

// Inventory holds the address blocks of this node available for point-to-point
// links, the network advertised to the peers and the interface to configure.
// Inventory is immutable once created and safe for concurrent use.
type Inventory struct {
	blocks            []*net.IPNet
	parts             []decomposition
	advertisedNetwork *net.IPNet
	interfaceName     string
}

// Snapshot is a read-only view of the inventory content.
type Snapshot struct {
	Blocks            []*net.IPNet
	P2PSubnets        *SubnetIterator
	AdvertisedNetwork *net.IPNet
	InterfaceName     string
}

// NewInventory validates the blocks and builds the inventory. Point-to-point
// subnets are always derived from the blocks, never stored separately.
func NewInventory(blocks []*net.IPNet, advertisedNetwork *net.IPNet, interfaceName string) (*Inventory, error) {
	inv := &Inventory{
		advertisedNetwork: copyIPNet(advertisedNetwork),
		interfaceName:     strings.TrimSpace(interfaceName),
	}
	if inv.interfaceName == "" {
		inv.interfaceName = DefaultInterfaceName
	}
	if strings.ContainsAny(inv.interfaceName, " /") {
		return nil, errors.Errorf("invalid interface name %q", inv.interfaceName)
	}

	for _, block := range blocks {
		if block == nil {
			return nil, errors.New("nil address block in the inventory")
		}
		part, err := newDecomposition(block, P2PPrefixLen(block))
		if err != nil {
			return nil, err
		}
		inv.blocks = append(inv.blocks, part.block)
		inv.parts = append(inv.parts, part)
	}
	return inv, nil
}

// Blocks returns copy of the configured address blocks.
func (inv *Inventory) Blocks() []*net.IPNet {
	blocks := make([]*net.IPNet, 0, len(inv.blocks))
	for _, block := range inv.blocks {
		blocks = append(blocks, copyIPNet(block))
	}
	return blocks
}

// BlockStrings returns the configured address blocks in the CIDR notation.
func (inv *Inventory) BlockStrings() []string {
	blocks := make([]string, 0, len(inv.blocks))
	for _, block := range inv.blocks {
		blocks = append(blocks, block.String())
	}
	return blocks
}

// P2PSubnets returns a new iterator over all point-to-point subnets of the inventory.
func (inv *Inventory) P2PSubnets() *SubnetIterator {
	return newSubnetIterator(inv.parts...)
}

// Contains returns true if the subnet is available in the inventory.
func (inv *Inventory) Contains(subnet P2PSubnet) bool {
	if subnet.IsZero() || subnet.PrefixLen() != P2PPrefixLen(subnet.network) {
		return false
	}
	for _, block := range inv.blocks {
		if ContainsSubnet(block, subnet) {
			return true
		}
	}
	return false
}

// AdvertisedNetwork returns the network that the peers should route via this node,
// or nil if there is none.
func (inv *Inventory) AdvertisedNetwork() *net.IPNet {
	return copyIPNet(inv.advertisedNetwork)
}

// InterfaceName returns the name of the interface used for point-to-point links.
func (inv *Inventory) InterfaceName() string {
	return inv.interfaceName
}

// Snapshot returns a read-only view of the inventory.
func (inv *Inventory) Snapshot() Snapshot {
	return Snapshot{
		Blocks:            inv.Blocks(),
		P2PSubnets:        inv.P2PSubnets(),
		AdvertisedNetwork: inv.AdvertisedNetwork(),
		InterfaceName:     inv.interfaceName,
	}
}

// String provides human-readable representation of the inventory.
func (inv *Inventory) String() string {
	return fmt.Sprintf("<blocks=%v, p2pSubnets=%s, advertisedNetwork=%v, interface=%s>",
		inv.BlockStrings(), inv.P2PSubnets().Count(), inv.advertisedNetwork, inv.interfaceName)
}

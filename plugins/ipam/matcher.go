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

import "net"

// FindCommonSubnet returns the first point-to-point subnet of the remote blocks
// which is also available in the local inventory. Remote blocks are examined
// in the given order, subnets of each block in ascending address order.
// Returns false if the two sides have no subnet in common.
func FindCommonSubnet(local *Inventory, remote []*net.IPNet) (P2PSubnet, bool) {
	if local == nil {
		return P2PSubnet{}, false
	}
	for _, remoteBlock := range remote {
		if subnet, found := lowestCommonSubnet(local.blocks, remoteBlock); found {
			return subnet, true
		}
	}
	return P2PSubnet{}, false
}

// lowestCommonSubnet finds the numerically lowest point-to-point subnet of the remote
// block covered by any of the local blocks. Two CIDR blocks either nest or do not
// overlap at all, so the common part of two overlapping blocks is the more specific
// one and its lowest subnet starts at its network address.
func lowestCommonSubnet(localBlocks []*net.IPNet, remote *net.IPNet) (P2PSubnet, bool) {
	if remote == nil {
		return P2PSubnet{}, false
	}
	remoteOnes, remoteBits := remote.Mask.Size()
	prefixLen := P2PPrefixLen(remote)
	if remoteBits == 0 || remoteOnes > prefixLen {
		return P2PSubnet{}, false
	}

	var lowest net.IP
	for _, local := range localBlocks {
		localOnes, localBits := local.Mask.Size()
		if localBits != remoteBits || localOnes > prefixLen {
			continue
		}
		var start net.IP
		switch {
		case localOnes <= remoteOnes && local.Contains(remote.IP):
			start = remote.IP
		case remoteOnes < localOnes && remote.Contains(local.IP):
			start = local.IP
		default:
			continue
		}
		if lowest == nil || compareIP(start, lowest) < 0 {
			lowest = start
		}
	}
	if lowest == nil {
		return P2PSubnet{}, false
	}
	return P2PSubnet{network: copyIPNet(&net.IPNet{
		IP:   lowest,
		Mask: net.CIDRMask(prefixLen, remoteBits),
	})}, true
}

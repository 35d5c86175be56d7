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
	"bytes"
	"math/big"
	"net"
)

// ipToInt is simple utility function for conversion between IPv4/IPv6 and int.
func ipToInt(ip net.IP) (*big.Int, int) {
	val := &big.Int{}
	val.SetBytes([]byte(ip))
	if len(ip) == net.IPv4len {
		return val, 32
	} else if len(ip) == net.IPv6len {
		return val, 128
	}
	return nil, 0
}

// intToIP is simple utility function for conversion between int and IPv4/IPv6.
func intToIP(ipInt *big.Int, bits int) net.IP {
	ipBytes := ipInt.Bytes()
	val := make([]byte, bits/8)

	// big.Int.Bytes() removes front zero padding,
	// IP bytes are packed at the end of the returned array
	for i := 1; i <= len(ipBytes) && i <= len(val); i++ {
		val[len(val)-i] = ipBytes[len(ipBytes)-i]
	}

	return net.IP(val)
}

// insertNetworkNumIntoIP sets the network number bits right above the host part
// of the given prefix length.
func insertNetworkNumIntoIP(ip net.IP, num *big.Int, prefixLen int) net.IP {
	ipInt, totalBits := ipToInt(ip)
	bigNum := new(big.Int).Set(num)
	bigNum.Lsh(bigNum, uint(totalBits-prefixLen))
	ipInt.Or(ipInt, bigNum)

	return intToIP(ipInt, totalBits)
}

// compareIP compares two addresses of the same family numerically.
func compareIP(a, b net.IP) int {
	if a4, b4 := a.To4(), b.To4(); a4 != nil && b4 != nil {
		return bytes.Compare(a4, b4)
	}
	return bytes.Compare(a.To16(), b.To16())
}

// copyIPNet is simple utility function to create defend copy of net.IPNet.
func copyIPNet(ipNet *net.IPNet) *net.IPNet {
	if ipNet == nil {
		return nil
	}
	ip := ipNet.IP
	if ip4 := ip.To4(); ip4 != nil && len(ipNet.Mask) == net.IPv4len {
		ip = ip4
	}
	return &net.IPNet{
		IP:   append(net.IP(nil), ip...),
		Mask: append(net.IPMask(nil), ipNet.Mask...),
	}
}

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

import "fmt"

// InvalidBlockError is returned for an address block which is either not
// a valid CIDR or cannot be split into point-to-point subnets.
type InvalidBlockError struct {
	Block  string
	Reason string
}

// Error returns a human-readable description of the error.
func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid address block %q: %s", e.Block, e.Reason)
}

// SubnetTooSmallError is returned by the allocator when it receives a subnet
// which is not exactly a point-to-point subnet.
type SubnetTooSmallError struct {
	Subnet    string
	PrefixLen int
}

// Error returns a human-readable description of the error.
func (e *SubnetTooSmallError) Error() string {
	return fmt.Sprintf("subnet %s is not a point-to-point subnet (prefix length /%d expected)",
		e.Subnet, e.PrefixLen)
}

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

package negotiation

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// noCommonSubnetMsg is the message returned to the peer when no subnet is available on both sides.
const noCommonSubnetMsg = "No common CIDR found"

// ErrNoCommonSubnet is returned by the responder when the proposal has no subnet
// in common with the local inventory. This is a regular outcome of a negotiation.
var ErrNoCommonSubnet = errors.New("no common CIDR found")

// TransportError is returned by the initiator when the peer could not be reached,
// replied with a non-success status or with a malformed reply.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error returns a human-readable description of the error.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("negotiation with %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("negotiation with %s failed: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NoCommonSubnet returns true if the peer was reached and found nothing in common
// with the proposal. Other 404 replies (e.g. wrong endpoint path) do not count.
func (e *TransportError) NoCommonSubnet() bool {
	return e.StatusCode == http.StatusNotFound && e.Message == noCommonSubnetMsg
}

// InvalidEndpointError is returned for a peer endpoint which is not an absolute HTTP URL.
type InvalidEndpointError struct {
	Endpoint string
}

// Error returns a human-readable description of the error.
func (e *InvalidEndpointError) Error() string {
	return "invalid peer endpoint: '" + e.Endpoint + "'"
}

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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"golang.org/x/net/context/ctxhttp"

	"github.com/contiv/l2handler/plugins/negotiation/restapi"
)

// DefaultTimeout bounds a single negotiation exchange with the peer.
const DefaultTimeout = 5 * time.Second

// maximum size of the peer reply which is read
const maxReplySize = 64 * 1024

// Client sends negotiation requests to the peer.
type Client interface {
	// PostNegotiation sends the request to the given endpoint and returns the decoded reply.
	// Any failure is reported as *TransportError.
	PostNegotiation(ctx context.Context, endpoint string, req *restapi.NegotiationRequest) (*restapi.NegotiationResponse, error)
}

// HTTPClient wraps http.Client used to talk to the peer agents.
type HTTPClient struct {
	// Timeout of a single exchange, zero means DefaultTimeout.
	Timeout time.Duration

	http *http.Client
}

// NewHTTPClient returns a new client with the given per-exchange timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		Timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{},
		},
	}
}

// PostNegotiation sends the negotiation request as JSON and decodes the reply.
func (c *HTTPClient) PostNegotiation(ctx context.Context, endpoint string,
	req *restapi.NegotiationRequest) (*restapi.NegotiationResponse, error) {

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	resp, err := ctxhttp.Post(ctx, c.http, endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    replyMessage(data),
		}
	}

	reply := &restapi.NegotiationResponse{}
	if err := json.Unmarshal(data, reply); err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	return reply, nil
}

// replyMessage extracts the error message from a non-success reply.
func replyMessage(data []byte) string {
	errReply := &restapi.ErrorReply{}
	if err := json.Unmarshal(data, errReply); err == nil && errReply.Error != "" {
		return errReply.Error
	}
	return string(bytes.TrimSpace(data))
}

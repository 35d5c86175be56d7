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

// Package provisioner applies the result of a point-to-point link negotiation
// to the Linux networking stack: it assigns the negotiated address to the link
// interface and optionally installs a route towards the network advertised
// by the peer.
//
// Every step is idempotent. An address or a route which already exists is
// reported as "already exists, skipping" and treated as success, so the same
// RouteIntent can be applied again after a partial failure, or after
// re-negotiation of the same subnet, without creating duplicate entries.
//
// The steps are applied synchronously and the outcome is returned to the caller
// as *ProvisioningError, naming the failed step and the steps which were
// applied before the failure.
package provisioner

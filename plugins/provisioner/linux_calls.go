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

package provisioner

import (
	"net"

	"github.com/containernetworking/plugins/pkg/ip"
	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"
)

// hostCalls allow to mock linux calls in test.
type hostCalls interface {
	LinkByName(name string) (netlink.Link, error)
	AddrAdd(link netlink.Link, addr *netlink.Addr) error
	AddRoute(dst *net.IPNet, gw net.IP, dev netlink.Link) error
	DriverName(ifName string) (string, error)
}

type linuxCalls struct {
}

func (l *linuxCalls) LinkByName(name string) (netlink.Link, error) {
	return netlink.LinkByName(name)
}

func (l *linuxCalls) AddrAdd(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrAdd(link, addr)
}

func (l *linuxCalls) AddRoute(dst *net.IPNet, gw net.IP, dev netlink.Link) error {
	return ip.AddRoute(dst, gw, dev)
}

func (l *linuxCalls) DriverName(ifName string) (string, error) {
	ethTool, err := ethtool.NewEthtool()
	if err != nil {
		return "", err
	}
	defer ethTool.Close()
	return ethTool.DriverName(ifName)
}

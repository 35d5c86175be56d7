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
	"sync"
	"syscall"

	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

const (
	resultApplied = "applied"
	resultSkipped = "skipped"
	resultFailed  = "failed"
)

// Provisioner configures point-to-point links on the host using netlink.
type Provisioner struct {
	Log   logging.Logger
	Stats StatsCollector // optional

	mutex sync.Mutex
	calls hostCalls
}

// NewProvisioner returns a new instance of the netlink based provisioner.
func NewProvisioner(log logging.Logger, stats StatsCollector) *Provisioner {
	return &Provisioner{
		Log:   log,
		Stats: stats,
		calls: &linuxCalls{},
	}
}

// Apply assigns the address and adds the route (if any) described by the intent.
// OS mutations of concurrent sessions are serialized.
func (p *Provisioner) Apply(intent *RouteIntent) error {
	if err := validateIntent(intent); err != nil {
		return &ProvisioningError{Intent: intent, Step: StepLink, Err: err}
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.Log.Debugf("Applying %v", intent)

	link, err := p.calls.LinkByName(intent.InterfaceName)
	if err != nil {
		p.Log.Errorf("Unable to find interface %s: %v", intent.InterfaceName, err)
		p.countStep(StepLink, resultFailed)
		return &ProvisioningError{Intent: intent, Step: StepLink,
			Err: errors.Wrapf(err, "interface %s not found", intent.InterfaceName)}
	}

	if driver, err := p.calls.DriverName(intent.InterfaceName); err == nil {
		p.Log.Debugf("Interface %s uses driver %s", intent.InterfaceName, driver)
	} else {
		p.Log.Debugf("Unable to get driver of interface %s: %v", intent.InterfaceName, err)
	}

	var applied []Step
	if err := p.addAddress(link, intent); err != nil {
		return &ProvisioningError{Intent: intent, Step: StepAddress, Err: err}
	}
	applied = append(applied, StepAddress)

	if intent.Route != nil {
		if err := p.addRoute(link, intent); err != nil {
			p.Log.Warnf("Interface %s left partially configured, applied steps: %v",
				intent.InterfaceName, applied)
			return &ProvisioningError{Intent: intent, Step: StepRoute, Applied: applied, Err: err}
		}
		applied = append(applied, StepRoute)
	}

	p.Log.Infof("Interface %s configured, applied steps: %v", intent.InterfaceName, applied)
	return nil
}

// addAddress assigns the negotiated address, an existing address is left untouched.
func (p *Provisioner) addAddress(link netlink.Link, intent *RouteIntent) error {
	addr := &netlink.Addr{IPNet: intent.AddressCIDR()}
	err := p.calls.AddrAdd(link, addr)
	if isExistsErr(err) {
		p.Log.Infof("%s: IP %s already exists, skipping", intent.InterfaceName, addr.IPNet)
		p.countStep(StepAddress, resultSkipped)
		return nil
	}
	if err != nil {
		p.Log.Errorf("Error by configuring interface %s address %s: %v", intent.InterfaceName, addr.IPNet, err)
		p.countStep(StepAddress, resultFailed)
		return errors.Wrapf(err, "failed to add address %s to %s", addr.IPNet, intent.InterfaceName)
	}
	p.Log.Infof("%s: IP %s assigned", intent.InterfaceName, addr.IPNet)
	p.countStep(StepAddress, resultApplied)
	return nil
}

// addRoute installs the route via the peer, an existing route is left untouched.
func (p *Provisioner) addRoute(link netlink.Link, intent *RouteIntent) error {
	route := intent.Route
	err := p.calls.AddRoute(route.Destination, route.Via, link)
	if isExistsErr(err) {
		p.Log.Infof("%s: route to %s already exists, skipping", intent.InterfaceName, route.Destination)
		p.countStep(StepRoute, resultSkipped)
		return nil
	}
	if err != nil {
		p.Log.Errorf("Error by configuring interface %s route to %s via %s: %v",
			intent.InterfaceName, route.Destination, route.Via, err)
		p.countStep(StepRoute, resultFailed)
		return errors.Wrapf(err, "failed to add route to %s via %s", route.Destination, route.Via)
	}
	p.Log.Infof("%s: route to %s via %s added", intent.InterfaceName, route.Destination, route.Via)
	p.countStep(StepRoute, resultApplied)
	return nil
}

func (p *Provisioner) countStep(step Step, result string) {
	if p.Stats != nil {
		p.Stats.IncProvisioningSteps(string(step), result)
	}
}

func validateIntent(intent *RouteIntent) error {
	switch {
	case intent == nil:
		return errors.New("missing route intent")
	case intent.Address == nil:
		return errors.New("missing address to assign")
	case intent.InterfaceName == "":
		return errors.New("missing interface name")
	case intent.Route != nil && (intent.Route.Destination == nil || intent.Route.Via == nil):
		return errors.New("incomplete route")
	}
	return nil
}

// isExistsErr returns true for netlink errors caused by an already existing entry.
func isExistsErr(err error) bool {
	if err == nil {
		return false
	}
	errno, ok := errors.Cause(err).(syscall.Errno)
	return ok && errno == unix.EEXIST
}

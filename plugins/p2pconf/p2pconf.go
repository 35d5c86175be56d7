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

package p2pconf

import (
	"io/ioutil"
	"net"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/ligato/cn-infra/logging"
	"github.com/namsral/flag"
	"github.com/pkg/errors"

	"github.com/contiv/l2handler/plugins/ipam"
)

const (
	// DefaultHTTPListenAddress is where the agent serves the REST APIs by default.
	DefaultHTTPListenAddress = "0.0.0.0:8000"

	// DefaultNegotiationTimeout bounds one negotiation exchange by default.
	DefaultNegotiationTimeout = "5s"

	// DefaultLogLevel of the agent loggers.
	DefaultLogLevel = "info"

	// EnvPrefix is the prefix of environment variables which can be used instead of flags.
	EnvPrefix = "L2_AGENT"

	// config file flag, not named "config" as that one is reserved by the flag package
	configFileFlag = "agent-config"
)

// logLevels maps the log level names accepted in the config.
var logLevels = map[string]logging.LogLevel{
	"debug":   logging.DebugLevel,
	"info":    logging.InfoLevel,
	"warn":    logging.WarnLevel,
	"warning": logging.WarnLevel,
	"error":   logging.ErrorLevel,
	"fatal":   logging.FatalLevel,
	"panic":   logging.PanicLevel,
}

// Config represents configuration of the agent, as loaded from the YAML config file.
type Config struct {
	CIDRs              []string `json:"cidrs,omitempty"`
	AdvertisedNetwork  string   `json:"advertisedNetwork,omitempty"`
	InterfaceName      string   `json:"interfaceName,omitempty"`
	HTTPListenAddress  string   `json:"httpListenAddress,omitempty"`
	NegotiationTimeout string   `json:"negotiationTimeout,omitempty"`
	LogLevel           string   `json:"logLevel,omitempty"`
}

// ParsedConfig is the validated configuration ready to be used by the agent.
type ParsedConfig struct {
	Inventory          *ipam.Inventory
	HTTPListenAddress  string
	NegotiationTimeout time.Duration
	LogLevel           logging.LogLevel
}

// DefaultConfig returns configuration with default values filled in.
func DefaultConfig() *Config {
	return &Config{
		InterfaceName:      ipam.DefaultInterfaceName,
		HTTPListenAddress:  DefaultHTTPListenAddress,
		NegotiationTimeout: DefaultNegotiationTimeout,
		LogLevel:           DefaultLogLevel,
	}
}

// LoadConfigFile reads the YAML file into the config. Values missing in the file
// keep their current value.
func (c *Config) LoadConfigFile(path string) error {
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "error by reading config file %s", path)
	}
	if err := yaml.Unmarshal(yamlFile, c); err != nil {
		return errors.Wrapf(err, "error by unmarshaling config file %s", path)
	}
	return nil
}

// Parse validates the config and builds the local inventory.
func (c *Config) Parse() (*ParsedConfig, error) {
	if len(c.CIDRs) == 0 {
		return nil, errors.New("at least one CIDR block must be configured")
	}
	blocks, err := ipam.ParseBlocks(c.CIDRs)
	if err != nil {
		return nil, errors.Wrap(err, "invalid local CIDRs")
	}

	var advertised *net.IPNet
	if c.AdvertisedNetwork != "" {
		if advertised, err = ipam.ParseBlock(c.AdvertisedNetwork); err != nil {
			return nil, errors.Wrap(err, "invalid advertised network")
		}
	}

	inventory, err := ipam.NewInventory(blocks, advertised, c.InterfaceName)
	if err != nil {
		return nil, errors.Wrap(err, "invalid inventory")
	}

	parsed := &ParsedConfig{
		Inventory:         inventory,
		HTTPListenAddress: c.HTTPListenAddress,
		LogLevel:          logging.InfoLevel,
	}
	if parsed.HTTPListenAddress == "" {
		parsed.HTTPListenAddress = DefaultHTTPListenAddress
	}
	if _, _, err := net.SplitHostPort(parsed.HTTPListenAddress); err != nil {
		return nil, errors.Wrapf(err, "invalid HTTP listen address %q", parsed.HTTPListenAddress)
	}

	timeout := c.NegotiationTimeout
	if timeout == "" {
		timeout = DefaultNegotiationTimeout
	}
	if parsed.NegotiationTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, errors.Wrapf(err, "invalid negotiation timeout %q", timeout)
	}
	if parsed.NegotiationTimeout <= 0 {
		return nil, errors.Errorf("negotiation timeout must be positive, got %v", parsed.NegotiationTimeout)
	}

	if c.LogLevel != "" {
		level, known := logLevels[strings.ToLower(c.LogLevel)]
		if !known {
			return nil, errors.Errorf("invalid log level %q", c.LogLevel)
		}
		parsed.LogLevel = level
	}
	return parsed, nil
}

// Flags binds command line flags (and the matching environment variables)
// to the agent configuration.
type Flags struct {
	fs *flag.FlagSet

	configFile         string
	cidrs              cidrList
	advertisedNetwork  string
	interfaceName      string
	httpListenAddress  string
	negotiationTimeout string
	logLevel           string
}

// NewFlags defines the agent flags in a new flag set. Every flag can also be set
// by an environment variable, e.g. L2_AGENT_CIDRS for --cidrs.
func NewFlags(name string) *Flags {
	f := &Flags{
		fs: flag.NewFlagSetWithEnvPrefix(name, EnvPrefix, flag.ContinueOnError),
	}
	f.fs.StringVar(&f.configFile, configFileFlag, "", "location of the YAML config file")
	f.fs.Var(&f.cidrs, "cidrs", "local CIDR block available for p2p links (repeated or comma-separated)")
	f.fs.StringVar(&f.advertisedNetwork, "advertised-network", "", "network routed towards this agent by its peers")
	f.fs.StringVar(&f.interfaceName, "interface-name", ipam.DefaultInterfaceName, "interface the p2p links are configured on")
	f.fs.StringVar(&f.httpListenAddress, "http-listen-address", DefaultHTTPListenAddress, "address of the REST API server")
	f.fs.StringVar(&f.negotiationTimeout, "negotiation-timeout", DefaultNegotiationTimeout, "timeout of a single negotiation")
	f.fs.StringVar(&f.logLevel, "log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	return f
}

// Parse parses the command line arguments and environment variables.
func (f *Flags) Parse(arguments []string) error {
	return f.fs.Parse(arguments)
}

// Args returns the non-flag arguments.
func (f *Flags) Args() []string {
	return f.fs.Args()
}

// Config builds the agent configuration: defaults, overridden by the config file
// (if set), overridden by explicitly set flags or environment variables.
func (f *Flags) Config() (*Config, error) {
	cfg := DefaultConfig()
	if f.configFile != "" {
		if err := cfg.LoadConfigFile(f.configFile); err != nil {
			return nil, err
		}
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "cidrs":
			cfg.CIDRs = append([]string(nil), f.cidrs...)
		case "advertised-network":
			cfg.AdvertisedNetwork = f.advertisedNetwork
		case "interface-name":
			cfg.InterfaceName = f.interfaceName
		case "http-listen-address":
			cfg.HTTPListenAddress = f.httpListenAddress
		case "negotiation-timeout":
			cfg.NegotiationTimeout = f.negotiationTimeout
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})
	return cfg, nil
}

// cidrList collects CIDR blocks from repeated flags or a comma-separated value.
type cidrList []string

// String returns the blocks joined by commas.
func (l *cidrList) String() string {
	return strings.Join(*l, ",")
}

// Set appends the block(s), each of them must be a valid CIDR.
func (l *cidrList) Set(value string) error {
	for _, block := range strings.Split(value, ",") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if _, err := ipam.ParseBlock(block); err != nil {
			return err
		}
		*l = append(*l, block)
	}
	return nil
}

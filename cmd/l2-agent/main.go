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

package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ligato/cn-infra/logging"
	"github.com/ligato/cn-infra/logging/logrus"

	"github.com/contiv/l2handler/plugins/negotiation"
	"github.com/contiv/l2handler/plugins/p2pconf"
	"github.com/contiv/l2handler/plugins/provisioner"
	"github.com/contiv/l2handler/plugins/statscollector"
)

const (
	agentName       = "l2-agent"
	shutdownTimeout = 5 * time.Second
)

var logger logging.Logger // global logger

// init initializes the global logger
func init() {
	logger = logrus.DefaultLogger()
	logger.SetLevel(logging.InfoLevel)
}

// newLogger returns a named logger with the configured level.
func newLogger(name string, level logging.LogLevel) logging.Logger {
	log := logrus.NewLogger(name)
	log.SetLevel(level)
	return log
}

func main() {
	flags := p2pconf.NewFlags(agentName)
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := flags.Config()
	if err != nil {
		logger.Errorf("Error by loading the configuration: %v", err)
		os.Exit(1)
	}
	parsed, err := cfg.Parse()
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(parsed.LogLevel)

	inventory := parsed.Inventory
	logger.Infof("Local inventory: %v", inventory)
	logger.Infof("%s point-to-point subnets available", inventory.P2PSubnets().Count())

	collector, err := statscollector.NewCollector(newLogger("statscollector", parsed.LogLevel), inventory.InterfaceName())
	if err != nil {
		logger.Errorf("Unable to create the stats collector: %v", err)
		os.Exit(1)
	}
	collector.RegisterGaugeFunc("p2pSubnets", "Number of point-to-point subnets in the local inventory",
		func() float64 {
			count, _ := new(big.Float).SetInt(inventory.P2PSubnets().Count()).Float64()
			return count
		})

	prov := provisioner.NewProvisioner(newLogger("provisioner", parsed.LogLevel), collector)
	negLog := newLogger("negotiation", parsed.LogLevel)
	responder := negotiation.NewResponder(negLog, inventory, prov, collector)
	initiator := negotiation.NewInitiator(negLog, inventory, prov,
		negotiation.NewHTTPClient(parsed.NegotiationTimeout), collector)

	server := negotiation.NewServer(negLog)
	negotiation.RegisterHandlers(negLog, server, responder, initiator)
	server.RegisterHandler(statscollector.PrometheusStatsPath, collector.Handler(), "GET")

	httpServer := &http.Server{
		Addr:    parsed.HTTPListenAddress,
		Handler: server,
	}
	go func() {
		logger.Infof("Starting the REST server at %s", parsed.HTTPListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("REST server error: %v", err)
			os.Exit(1)
		}
	}()

	// wait until SIGINT/SIGTERM signal
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.Infof("%v signal received, exiting", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warnf("Unable to shut down the REST server gracefully: %v", err)
	}
}

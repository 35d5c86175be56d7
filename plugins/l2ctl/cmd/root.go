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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/contiv/l2handler/plugins/l2ctl/cmdimpl"
)

var (
	agentURL string
	timeout  time.Duration
)

var cmdNegotiate = &cobra.Command{
	Use:   "negotiate peer-endpoint",
	Short: "Negotiates a point-to-point link between the agent and the peer",
	Long: "Asks the agent to negotiate a point-to-point link with the peer agent, e.g.:\n" +
		"  l2ctl negotiate http://192.168.1.2:8000/handle_negotiation",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := cmdimpl.NewAgentClient(agentURL, timeout)
		return cmdimpl.Negotiate(os.Stdout, client, args[0])
	},
}

var cmdInventory = &cobra.Command{
	Use:   "inventory",
	Short: "Shows the local inventory of the agent",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := cmdimpl.NewAgentClient(agentURL, timeout)
		return cmdimpl.PrintInventory(os.Stdout, client)
	},
}

// NewRootCmd returns the l2ctl command with all sub-commands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "l2ctl",
		Short:        "Controls the point-to-point link negotiation agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&agentURL, "agent", cmdimpl.DefaultAgentURL, "URL of the agent REST API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "timeout of the request to the agent")
	rootCmd.AddCommand(cmdNegotiate)
	rootCmd.AddCommand(cmdInventory)
	return rootCmd
}

// Execute will execute the command l2ctl
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

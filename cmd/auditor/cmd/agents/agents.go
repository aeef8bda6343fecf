// SPDX-License-Identifier: Apache-2.0

package agents

import (
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage supported AI agents",
	Long:  `Commands for inspecting the supported AI coding agents.`,
}

func GetAgentsCmd() *cobra.Command {
	return agentsCmd
}

func init() {
	agentsCmd.AddCommand(getListCmd())
}

// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/auditor-sh/auditor/cmd/auditor/cmd/agents"
	"github.com/auditor-sh/auditor/cmd/auditor/cmd/bundles"
	"github.com/auditor-sh/auditor/cmd/auditor/cmd/run"
	"github.com/auditor-sh/auditor/internal/version"
	"github.com/spf13/cobra"
)

// Create the root command
var rootCmd = &cobra.Command{
	Use:   "auditor",
	Short: "Auditor - AI-Assisted Project Audit Tool",
	Long: `Auditor runs multi-step audit bundles against a project by driving an
installed AI coding agent through an ordered plan of audit rules, and
aggregates the findings into a single report.`,
	Version: fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(run.GetRunCmd())
	rootCmd.AddCommand(agents.GetAgentsCmd())
	rootCmd.AddCommand(bundles.GetBundlesCmd())
}

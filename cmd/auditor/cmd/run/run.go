// SPDX-License-Identifier: Apache-2.0

package run

import (
	"context"
	"fmt"
	"os"

	"github.com/auditor-sh/auditor/internal/core/agent"
	"github.com/auditor-sh/auditor/internal/core/registry"
	"github.com/auditor-sh/auditor/internal/orchestrator"
	"github.com/auditor-sh/auditor/internal/preflight"
	"github.com/spf13/cobra"
)

func GetRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [bundle]",
		Short: "Run an audit bundle against a project",
		Long: `Run executes every step of an audit bundle's plan in order. The bundle is
named by its code or full name (see 'auditor bundles list').`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			bundleCode := args[0]
			projectDir, _ := cmd.Flags().GetString("project")
			agentName, _ := cmd.Flags().GetString("agent")
			model, _ := cmd.Flags().GetString("model")
			fallbackModel, _ := cmd.Flags().GetString("fallback-model")
			skipPreflight, _ := cmd.Flags().GetBool("skip-preflight")
			assumeYes, _ := cmd.Flags().GetBool("yes")
			verbose, _ := cmd.Flags().GetBool("verbose")

			reg, err := registry.Default()
			if err != nil {
				fmt.Printf("Error loading bundle registry: %v\n", err)
				os.Exit(1)
			}

			orc := orchestrator.New(reg, agent.NewResolver(), preflight.NewDefaultRegistry())

			summary, err := orc.Run(context.Background(), orchestrator.RunOptions{
				BundleCode:    bundleCode,
				ProjectDir:    projectDir,
				Agent:         agentName,
				Model:         model,
				FallbackModel: fallbackModel,
				SkipPreflight: skipPreflight,
				AssumeYes:     assumeYes,
				Verbose:       verbose,
			})
			if err != nil {
				fmt.Printf("Error running audit: %v\n", err)
				os.Exit(1)
			}

			if summary.Aborted || summary.Failed > 0 {
				os.Exit(1)
			}
		},
	}

	// Configure flags
	runCmd.Flags().StringP("project", "p", "", "Project directory to audit (default: current directory)")
	runCmd.Flags().StringP("agent", "a", "", "Agent to use: claude, cursor, or gemini (default: auto-detect)")
	runCmd.Flags().StringP("model", "m", "", "Model to use (default: the agent's default model)")
	runCmd.Flags().String("fallback-model", "", "Model to retry with after a quota failure")
	runCmd.Flags().Bool("skip-preflight", false, "Skip the deterministic preflight checks")
	runCmd.Flags().BoolP("yes", "y", false, "Answer yes to all prompts")
	runCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")

	return runCmd
}

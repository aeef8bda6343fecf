// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"fmt"
	"os"

	"github.com/auditor-sh/auditor/internal/core/registry"
	"github.com/spf13/cobra"
)

func getShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show [bundle]",
		Short: "Show one bundle's configuration",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			reg, err := registry.Default()
			if err != nil {
				fmt.Printf("Error loading bundle registry: %v\n", err)
				os.Exit(1)
			}

			bundle, err := reg.Lookup(args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Name:         %s\n", bundle.Name)
			fmt.Printf("Code:         %s\n", bundle.Code)
			fmt.Printf("Display name: %s\n", bundle.DisplayName)
			fmt.Printf("Prefix:       %s\n", bundle.Prefix)
			fmt.Printf("Plan:         %s\n", bundle.PlanPath)
			fmt.Printf("Rules:        %s\n", bundle.RulesDir)
			fmt.Printf("Template:     %s\n", bundle.Template)
			if bundle.Chain != nil {
				fmt.Printf("Chains to:    %s (when %s)\n", bundle.Chain.Next, bundle.Chain.Condition)
			}
		},
	}

	return showCmd
}

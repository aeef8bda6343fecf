// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"fmt"
	"os"

	"github.com/auditor-sh/auditor/internal/core/registry"
	"github.com/spf13/cobra"
)

func getListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered audit bundles",
		Run: func(cmd *cobra.Command, args []string) {
			reg, err := registry.Default()
			if err != nil {
				fmt.Printf("Error loading bundle registry: %v\n", err)
				os.Exit(1)
			}

			for _, bundle := range reg.Bundles() {
				fmt.Printf("%-4s %-18s %s\n", bundle.Code, bundle.Name, bundle.DisplayName)
			}
		},
	}

	return listCmd
}

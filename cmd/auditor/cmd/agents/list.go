// SPDX-License-Identifier: Apache-2.0

package agents

import (
	"fmt"
	"strings"

	"github.com/auditor-sh/auditor/internal/core/agent"
	"github.com/spf13/cobra"
)

func getListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List supported agents and their detection status",
		Run: func(cmd *cobra.Command, args []string) {
			resolver := agent.NewResolver()
			present := map[agent.Agent]bool{}
			for _, a := range resolver.DetectAll() {
				present[a] = true
			}

			for _, a := range agent.All() {
				status := "not installed"
				if present[a] {
					status = "installed"
				}
				fmt.Printf("%s (%s)\n", a, status)
				fmt.Printf("  binary: %s\n", a.Binary())
				fmt.Printf("  models: %s (default: %s)\n", strings.Join(a.Models(), ", "), a.DefaultModel())
			}
		},
	}

	return listCmd
}

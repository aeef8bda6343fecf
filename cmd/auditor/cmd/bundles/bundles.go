// SPDX-License-Identifier: Apache-2.0

package bundles

import (
	"github.com/spf13/cobra"
)

var bundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "Manage audit bundles",
	Long:  `Commands for inspecting the registered audit bundles.`,
}

func GetBundlesCmd() *cobra.Command {
	return bundlesCmd
}

func init() {
	bundlesCmd.AddCommand(getListCmd())
	bundlesCmd.AddCommand(getShowCmd())
}

// Package display renders command output as pterm tables or JSON.
package display

import (
	"github.com/spf13/cobra"
)

// ShouldOutputJSON reports whether cmd was asked for JSON output
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}

	// A local --json wins over the persistent one
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("json")
		return v
	}

	if globalFlag, err := cmd.Root().PersistentFlags().GetBool("json"); err == nil && globalFlag {
		return true
	}

	return false
}

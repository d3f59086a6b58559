// Command loanctl runs operator tasks against the loan store: schema migration,
// a one-off overdue sweep, and JSON export/import.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd(envStore).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "loanctl",
		Short:         "Operator tools for the smart-loan-recovery store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(open))
	root.AddCommand(sweepCmd(open))
	root.AddCommand(exportCmd(open))
	root.AddCommand(importCmd(open))
	return root
}

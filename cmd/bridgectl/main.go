package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bridgectl",
		Short:         "Token bridge operator tools",
		Long:          `Tools for computing and signing canonical swap messages and administering bridge instances.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newHashCmd(),
		newSignCmd(),
		newRecoverCmd(),
		newSetValidatorCmd(),
		newStatusCmd(),
		newSimulateCmd(),
	)
	return root
}

// Command simtempctl is a control CLI for a running simtempd instance,
// grounded on the rootCmd.Execute() entry point and per-attribute
// subcommand layout of cmd/aleutian from the retrieved example pack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "simtempctl",
	Short: "Control and inspect a running simtempd instance",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8090", "base HTTP address of the simtempd instance")
	rootCmd.AddCommand(samplingMsCmd, thresholdMCCmd, modeCmd, debugCmd, statsCmd, readCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

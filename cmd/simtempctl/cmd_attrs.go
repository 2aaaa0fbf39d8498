package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// attrCommand builds a get/set pair for a single textual attribute,
// matching the sampling_ms/threshold_mC/mode/debug attribute set
// exposed by httpattrs.
func attrCommand(use, attrName, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [value]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				val, err := showAttr(attrName)
				if err != nil {
					return err
				}
				fmt.Println(val)
				return nil
			}
			return storeAttr(attrName, args[0])
		},
	}
	return cmd
}

var samplingMsCmd = attrCommand("sampling-ms", "sampling_ms", "Get or set the sample period in milliseconds")
var thresholdMCCmd = attrCommand("threshold-mc", "threshold_mC", "Get or set the alert threshold in milli-degrees Celsius")
var modeCmd = attrCommand("mode", "mode", "Get or set the sample synthesis mode (normal, ramp, noisy)")
var debugCmd = attrCommand("debug", "debug", "Get or set the debug logging flag (0 or 1)")

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the updates/alerts/drops counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := showAttr("stats")
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

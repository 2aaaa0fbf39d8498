package main

import (
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"github.com/PyCharmGuy123/simtemp/simtemp"
)

var readSockPath string

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Connect to the record stream socket and print decoded records",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := net.Dial("unix", readSockPath)
		if err != nil {
			return fmt.Errorf("dial %s: %w", readSockPath, err)
		}
		defer conn.Close()

		buf := make([]byte, simtemp.RecordSize)
		for {
			if _, err := io.ReadFull(conn, buf); err != nil {
				if err == io.EOF {
					return nil
				}
				return fmt.Errorf("read: %w", err)
			}
			rec := simtemp.DecodeRecord(buf)
			alert := ""
			if rec.Flags&simtemp.FlagThreshold != 0 {
				alert = " ALERT"
			}
			fmt.Printf("ts=%d temp_mC=%d%s\n", rec.TimestampNs, rec.TempMC, alert)
		}
	},
}

func init() {
	readCmd.Flags().StringVar(&readSockPath, "socket", "/tmp/simtemp.sock", "path to the simtempd record stream socket")
}

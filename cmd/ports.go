package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-seqomd/midi"
)

var portsTimeout time.Duration

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ports, ok := midi.ListPorts(portsTimeout)
		if !ok {
			return fmt.Errorf("MIDI driver did not answer within %s (on macOS: sudo killall coreaudiod midiserver)", portsTimeout)
		}

		fmt.Fprintln(out, "=== MIDI Input Ports ===")
		for i, p := range ports.In {
			fmt.Fprintf(out, "  %d: %s\n", i, p)
		}
		fmt.Fprintln(out, "\n=== MIDI Output Ports ===")
		for i, p := range ports.Out {
			fmt.Fprintf(out, "  %d: %s\n", i, p)
		}
		return nil
	},
}

func init() {
	portsCmd.Flags().DurationVarP(&portsTimeout, "timeout", "t", 3*time.Second, "give up after this long")
	rootCmd.AddCommand(portsCmd)
}

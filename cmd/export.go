package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-seqomd/sequencer"
)

var (
	exportLoops int
	exportSeed  uint64
)

var exportCmd = &cobra.Command{
	Use:   "export <set> <file.mid>",
	Short: "Render a set to a Standard MIDI File",
	Long: `Render the active pattern of every track in a set to a format 1 Standard
MIDI File. Conditions and probability are rolled once per pass.

Example:
  seqomd export 2 groove.mid --loops 4
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(args[0])
		if err != nil {
			return err
		}
		seed := exportSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		if err := sequencer.ExportSMFFile(s, args[1], sequencer.ExportOptions{Loops: exportLoops, Seed: seed}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d loops at %d bpm)\n", args[1], max(exportLoops, 1), s.BPM)
		return nil
	},
}

func init() {
	exportCmd.Flags().IntVarP(&exportLoops, "loops", "l", 1, "passes over the longest track")
	exportCmd.Flags().Uint64Var(&exportSeed, "seed", 0, "probability seed (default: clock)")
	rootCmd.AddCommand(exportCmd)
}

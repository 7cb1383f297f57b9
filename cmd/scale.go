package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-seqomd/sequencer"
)

var scaleCmd = &cobra.Command{
	Use:   "scale <set>",
	Short: "Detect the scale of a set's chord-follow tracks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		pcs := sequencer.CollectPitchClasses(s.Tracks, s.ChordFollow[:])
		names := make([]string, 0, pcs.Len())
		for _, pc := range pcs.Classes() {
			names = append(names, sequencer.NoteNames[pc])
		}
		fmt.Fprintf(out, "pitch classes: %s\n", strings.Join(names, " "))

		scale, ok := s.DetectScale()
		if !ok {
			fmt.Fprintln(out, "no scale detected")
			return nil
		}
		fmt.Fprintf(out, "scale: %s\n", scale.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scaleCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List and manage stored sets",
	RunE:  runSetsList,
}

var setsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sets",
	RunE:  runSetsList,
}

var setsDeleteCmd = &cobra.Command{
	Use:   "delete <set>",
	Short: "Delete a stored set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseSet(args[0])
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Delete(idx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted set %d\n", idx+1)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <legacy.json>",
	Short: "Split a legacy single-file set array into per-set files",
	Long: `Split a legacy single-file set array into per-set files.

The legacy file is renamed to <file>.backup afterwards. Nothing happens when
sets are already stored individually.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		n, err := store.MigrateLegacy(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d sets into %s\n", n, store.Dir)
		return nil
	},
}

func init() {
	setsCmd.AddCommand(setsListCmd, setsDeleteCmd, migrateCmd)
	rootCmd.AddCommand(setsCmd)
}

func runSetsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	indices := store.List()
	if len(indices) == 0 {
		fmt.Fprintf(out, "no sets in %s\n", store.Dir)
		return nil
	}
	for _, idx := range indices {
		doc, err := store.Load(idx)
		if err != nil {
			fmt.Fprintf(out, "%2d  unreadable: %v\n", idx+1, err)
			continue
		}
		tracks, steps := 0, 0
		for _, t := range doc.Tracks {
			n := 0
			for p := range t.Patterns {
				for s := range t.Patterns[p].Steps {
					if len(t.Patterns[p].Steps[s].Notes) > 0 {
						n++
					}
				}
			}
			if n > 0 {
				tracks++
				steps += n
			}
		}
		fmt.Fprintf(out, "%2d  %3d bpm  %2d tracks  %4d steps  %2d transpose\n",
			idx+1, doc.BPM, tracks, steps, doc.Transpose.Count())
	}
	return nil
}

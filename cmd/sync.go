package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"go-seqomd/engine"
	"go-seqomd/sequencer"
)

var (
	syncDump   bool
	syncPrefix string
)

var syncCmd = &cobra.Command{
	Use:   "sync <set>",
	Short: "Show the parameter writes a full sync of a set produces",
	Long: `Run a full sync of a set against an in-memory parameter channel and report
the writes, batched the way the engine receives them.

Example:
  seqomd sync 1 --dump --prefix track_0_step_
`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncDump, "dump", "d", false, "print the resulting parameters")
	syncCmd.Flags().StringVarP(&syncPrefix, "prefix", "p", "", "only dump keys with this prefix")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := loadSession(args[0])
	if err != nil {
		return err
	}

	store := engine.NewStore()
	sy := sequencer.NewSyncer(store, cfg.Engine.ChunkBytes)
	writes := sy.SyncAll(s)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "set %d: %d parameters in %d writes (chunks of at most %d bytes)\n",
		s.CurrentSet+1, len(store.Log), writes, cfg.Engine.ChunkBytes)

	if !syncDump {
		return nil
	}
	keys := make([]string, 0, len(store.Params))
	for k := range store.Params {
		if strings.HasPrefix(k, syncPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s=%s\n", k, store.Params[k])
	}
	return nil
}

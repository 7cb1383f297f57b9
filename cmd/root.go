package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"go-seqomd/config"
	"go-seqomd/debug"
	"go-seqomd/sequencer"
)

var (
	configPath string
	debugLog   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "seqomd",
	Short: "A step sequencer automation host",
	Long: `seqomd edits and persists step sequencer sets and mirrors them into the
playback engine's parameter channel.

Without a subcommand it opens the monitor: a terminal view of the selected
track and the transpose lane, with LED feedback on a connected Launchpad.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runMonitor,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/go-seqomd/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write a debug log next to the sets")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer debug.Disable()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if debugLog {
		path, err := cfg.LogPath()
		if err != nil {
			return err
		}
		if err := debug.Enable(path); err != nil {
			return err
		}
		debug.Log("app", "%s started", cmd.CommandPath())
	}
	return nil
}

func openStore() (*sequencer.SetStore, error) {
	dir, err := cfg.SetsDir()
	if err != nil {
		return nil, err
	}
	return sequencer.NewSetStore(dir), nil
}

// parseSet turns a 1-based set number into an index
func parseSet(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > sequencer.NumSets {
		return 0, fmt.Errorf("set must be 1-%d, got %q", sequencer.NumSets, arg)
	}
	return n - 1, nil
}

// loadSession opens a set without an engine attached
func loadSession(arg string) (*sequencer.Session, error) {
	idx, err := parseSet(arg)
	if err != nil {
		return nil, err
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	s := sequencer.NewSession(store)
	s.NewSetBPM = cfg.UI.LastBPM
	if err := s.LoadSet(idx); err != nil {
		return nil, err
	}
	return s, nil
}

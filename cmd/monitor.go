package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-seqomd/config"
	"go-seqomd/debug"
	"go-seqomd/engine"
	"go-seqomd/midi"
	"go-seqomd/sequencer"
	"go-seqomd/theme"
	"go-seqomd/tui"
)

var (
	monitorSet  int
	monitorSeed uint64
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Open the terminal monitor",
	Long: `Open the terminal monitor on a set, driving the built-in engine simulator.

Notes the simulator plays go to engine.output_port when one is configured.
Launchpads are detected as they are plugged in.

Example:
  seqomd monitor --set 3
`,
	RunE: runMonitor,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, monitorCmd} {
		c.Flags().IntVarP(&monitorSet, "set", "s", 0, "set to open, 1-32 (default: last used)")
		c.Flags().Uint64Var(&monitorSeed, "seed", 0, "probability seed for the simulator (default: clock)")
	}
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	palette, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	store, err := openStore()
	if err != nil {
		return err
	}
	session := sequencer.NewSession(store)
	session.NewSetBPM = cfg.UI.LastBPM

	idx := cfg.UI.LastSet
	if monitorSet > 0 {
		if idx, err = parseSet(fmt.Sprint(monitorSet)); err != nil {
			return err
		}
	}
	if err := session.LoadSet(min(max(idx, 0), sequencer.NumSets-1)); err != nil {
		return err
	}

	seed := monitorSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	manager := sequencer.NewManager(session, engine.NewSim(seed), sequencer.Options{
		ChunkBytes: cfg.Engine.ChunkBytes,
		LEDDivisor: cfg.Engine.LEDDivisor,
		Debounce:   cfg.Engine.DirtyDebounce,
		TickRate:   cfg.Engine.TickRate,
		OutputPort: cfg.Engine.OutputPort,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var deviceMgr *midi.DeviceManager
	if cfg.Controller.AutoConnect && cfg.Controller.Type != config.ControllerNone {
		deviceMgr = midi.NewDeviceManager()
		deviceMgr.PortFilter = cfg.Controller.PortName
		deviceMgr.Model = midi.ModelFromName(string(cfg.Controller.Type))
		deviceMgr.Keyboards = true
		go deviceMgr.Run(ctx)
	}

	done := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(done)
	}()

	p := tea.NewProgram(tui.NewModel(manager, deviceMgr, th), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	cancel()
	<-done

	manager.Snapshot(func(s *sequencer.Session, _ sequencer.Frame) {
		cfg.UI.LastSet = max(s.CurrentSet, 0)
		cfg.UI.LastBPM = s.BPM
	})
	if err := saveConfig(); err != nil {
		debug.Log("app", "save config: %v", err)
	}

	if runErr != nil && runErr != tea.ErrProgramKilled {
		return runErr
	}
	return nil
}

func saveConfig() error {
	if configPath != "" {
		return cfg.SaveFile(configPath)
	}
	return cfg.Save()
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-seqomd/midi"
	"go-seqomd/sequencer"
	"go-seqomd/theme"
	"go-seqomd/widgets"
)

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager // nil without hardware
	Theme     *theme.Theme

	help       help.Model
	cursor     int // step under the cursor
	slot       int // transpose slot under the cursor
	status     string
	statusErr  bool
	quitting   bool
	controller midi.Controller
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	h := help.New()
	h.Styles.ShortKey = th.Header()
	h.Styles.ShortDesc = th.Dim()
	h.Styles.FullKey = th.Header()
	h.Styles.FullDesc = th.Dim()
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		help:      h,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			if event.Controller.Type() == midi.ControllerLaunchpad || m.controller == nil {
				m.controller = event.Controller
				m.Manager.SetController(event.Controller)
			}
			m.status = "connected " + event.ID
			m.statusErr = false
		case midi.DeviceDisconnected:
			if m.controller != nil && m.controller.ID() == event.ID {
				m.controller = nil
				m.Manager.SetController(nil)
			}
			m.status = "disconnected " + event.ID
			m.statusErr = false
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.Manager.Stop()
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Play):
		m.Manager.TogglePlay()

	case key.Matches(msg, keys.TempoUp), key.Matches(msg, keys.TempoDown):
		delta := 5
		if key.Matches(msg, keys.TempoDown) {
			delta = -5
		}
		m.Manager.Edit(func(s *sequencer.Session) { s.SetBPM(s.BPM + delta) })

	case key.Matches(msg, keys.Left):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, keys.Right):
		m.cursor = min(m.cursor+1, sequencer.NumSteps-1)
	case key.Matches(msg, keys.Up):
		m.Manager.Edit(func(s *sequencer.Session) { s.SelectTrack(s.SelectedTrack - 1) })
	case key.Matches(msg, keys.Down):
		m.Manager.Edit(func(s *sequencer.Session) { s.SelectTrack(s.SelectedTrack + 1) })

	case key.Matches(msg, keys.Toggle):
		note := m.Manager.EntryNote()
		cursor := m.cursor
		m.Manager.Edit(func(s *sequencer.Session) {
			s.EditStep(s.SelectedTrack, cursor, func(st *sequencer.Step) {
				st.ToggleNote(note, sequencer.DefaultVelocity)
			})
		})
	case key.Matches(msg, keys.NoteUp):
		m.Manager.SetEntryNote(m.Manager.EntryNote() + 1)
	case key.Matches(msg, keys.NoteDown):
		m.Manager.SetEntryNote(m.Manager.EntryNote() - 1)

	case key.Matches(msg, keys.Mute):
		m.Manager.Edit(func(s *sequencer.Session) { s.ToggleMute(s.SelectedTrack) })
	case key.Matches(msg, keys.Follow):
		m.Manager.Edit(func(s *sequencer.Session) {
			s.SetChordFollow(s.SelectedTrack, !s.ChordFollow[s.SelectedTrack])
		})

	case key.Matches(msg, keys.SlotPrev):
		m.slot = max(m.slot-1, 0)
	case key.Matches(msg, keys.SlotNext):
		m.slot = min(m.slot+1, sequencer.MaxTransposeSteps-1)
	case key.Matches(msg, keys.TransUp), key.Matches(msg, keys.TransDown):
		delta := 1
		if key.Matches(msg, keys.TransDown) {
			delta = -1
		}
		slot := m.slot
		m.Manager.Edit(func(s *sequencer.Session) {
			s.EditTranspose(func(ts *sequencer.TransposeSequence) {
				cur := 0
				if st := ts.Step(slot); st != nil {
					cur = st.Transpose
				}
				ts.Set(slot, cur+delta, sequencer.None())
			})
		})
	case key.Matches(msg, keys.DurUp), key.Matches(msg, keys.DurDown):
		delta := 1
		if key.Matches(msg, keys.DurDown) {
			delta = -1
		}
		slot := m.slot
		m.Manager.Edit(func(s *sequencer.Session) {
			s.EditTranspose(func(ts *sequencer.TransposeSequence) { ts.AdjustDuration(slot, delta) })
		})
	case key.Matches(msg, keys.SlotRemove):
		slot := m.slot
		m.Manager.Edit(func(s *sequencer.Session) {
			s.EditTranspose(func(ts *sequencer.TransposeSequence) { ts.Remove(slot) })
		})

	case key.Matches(msg, keys.SetPrev), key.Matches(msg, keys.SetNext):
		next := 1
		if key.Matches(msg, keys.SetPrev) {
			next = -1
		}
		var cur int
		m.Manager.Snapshot(func(s *sequencer.Session, _ sequencer.Frame) { cur = s.CurrentSet })
		idx := (max(cur, 0) + next + sequencer.NumSets) % sequencer.NumSets
		if err := m.Manager.LoadSet(idx); err != nil {
			m.status = err.Error()
			m.statusErr = true
		} else {
			m.status = fmt.Sprintf("set %d", idx+1)
			m.statusErr = false
		}
	case key.Matches(msg, keys.Save):
		var err error
		m.Manager.Edit(func(s *sequencer.Session) { err = s.SaveSet() })
		if err != nil {
			m.status = err.Error()
			m.statusErr = true
		} else {
			m.status = "saved"
			m.statusErr = false
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	entry := m.Manager.EntryNote()
	var out strings.Builder
	m.Manager.Snapshot(func(s *sequencer.Session, f sequencer.Frame) {
		out.WriteString("\n")
		out.WriteString(m.header(s, f))
		out.WriteString("\n\n")
		out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.stepView(s, f, entry),
			"    ",
			widgets.RenderGrid(widgets.GridFromLEDs(sequencer.RenderLEDs(s, f, m.cursor/sequencer.StepsPerPage))),
		))
		out.WriteString("\n\n")
		out.WriteString(m.transposeView(s, f))
	})
	out.WriteString("\n\n")
	if m.status != "" {
		style := m.Theme.Dim()
		if m.statusErr {
			style = m.Theme.Alert()
		}
		out.WriteString(style.Render(m.status))
		out.WriteString("\n")
	}
	out.WriteString(m.help.View(keys))
	return out.String()
}

func (m Model) header(s *sequencer.Session, f sequencer.Frame) string {
	playState := "STOP"
	if f.Playing {
		playState = "PLAY"
	}
	set := "-"
	if s.CurrentSet >= 0 {
		set = fmt.Sprint(s.CurrentSet + 1)
	}
	scale := "no scale"
	if s.ScaleOK {
		scale = s.Scale.Name()
	}
	device := ""
	if m.controller != nil {
		device = "  " + m.controller.ID()
	}
	return m.Theme.Header().Render(fmt.Sprintf("go-seqomd  set %s  %s  %3dbpm  %s%s",
		set, playState, s.BPM, scale, device))
}

func (m Model) stepView(s *sequencer.Session, f sequencer.Frame, entry int) string {
	sym := m.Theme.Symbols
	track := s.ActiveTrack()
	pat := track.ActivePattern()

	var b strings.Builder
	follow := ""
	if s.ChordFollow[s.SelectedTrack] {
		follow = " follow"
	}
	mute := ""
	if track.Muted {
		mute = " " + m.Theme.Alert().Render("muted")
	}
	fmt.Fprintf(&b, "Track %d  ch %d  len %d%s%s\n\n", s.SelectedTrack+1, track.Channel+1, track.Length, follow, mute)

	for row := range sequencer.NumSteps / 16 {
		for col := range 16 {
			i := row*16 + col
			st := &pat.Steps[i]
			r := sym.StepEmpty
			switch {
			case i >= track.Length:
				r = sym.StepBeyond
			case i == f.Step:
				r = sym.StepPlayhead
			case len(st.Notes) > 0 && soundingAt(st, f.Sounding):
				r = sym.StepSounding
			case len(st.Notes) > 0:
				r = sym.StepActive
			}
			cell := string(r)
			switch {
			case i == m.cursor:
				cell = m.Theme.Highlight().Render("[" + cell + "]")
			case r == sym.StepPlayhead:
				cell = m.Theme.Highlight().Render(" " + cell + " ")
			case r == sym.StepSounding:
				cell = m.Theme.Playing().Render(" " + cell + " ")
			default:
				cell = " " + cell + " "
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}

	st := &pat.Steps[m.cursor]
	names := make([]string, len(st.Notes))
	for i, n := range st.Notes {
		names[i] = sequencer.NoteName(n)
	}
	fmt.Fprintf(&b, "\nstep %d: %s  entry %s\n", m.cursor+1, strings.Join(names, " "),
		sequencer.NoteName(entry))
	b.WriteString(m.Theme.Body().Render(track.StepSummary(st)))
	return b.String()
}

func soundingAt(st *sequencer.Step, sounding []int) bool {
	for _, n := range st.Notes {
		for _, s := range sounding {
			if n == s {
				return true
			}
		}
	}
	return false
}

func (m Model) transposeView(s *sequencer.Session, f sequencer.Frame) string {
	sym := m.Theme.Symbols
	var b strings.Builder
	fmt.Fprintf(&b, "Transpose  %d beats\n", s.Transpose.TotalDuration())
	for i := range sequencer.MaxTransposeSteps {
		st := s.Transpose.Step(i)
		r := sym.SlotEmpty
		switch {
		case st != nil && i == f.TransposeStep:
			r = sym.SlotActive
		case st != nil:
			r = sym.SlotFilled
		}
		cell := " " + string(r) + " "
		if i == m.slot {
			cell = m.Theme.Highlight().Render("[" + string(r) + "]")
		}
		b.WriteString(cell)
	}
	if st := s.Transpose.Step(m.slot); st != nil {
		fmt.Fprintf(&b, "\nslot %d: %+d  %s", m.slot+1, st.Transpose, sequencer.FormatDuration(st.Duration))
		if st.Jump >= 0 {
			fmt.Fprintf(&b, "  jump %d %s", st.Jump+1, sequencer.ConditionAt(st.Condition).Name)
		}
	} else {
		fmt.Fprintf(&b, "\nslot %d: empty", m.slot+1)
	}
	return b.String()
}

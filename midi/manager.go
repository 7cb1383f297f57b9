package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-seqomd/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Ports lists the MIDI ports by name
type Ports struct {
	In  []string
	Out []string
}

// ListPorts returns the current port names, or false if the driver does not
// answer within timeout (CoreMIDI can hang)
func ListPorts(timeout time.Duration) (Ports, bool) {
	ins, outs, ok := scanPorts(timeout)
	if !ok {
		return Ports{}, false
	}
	var p Ports
	for _, in := range ins {
		p.In = append(p.In, in.String())
	}
	for _, out := range outs {
		p.Out = append(p.Out, out.String())
	}
	return p, true
}

func scanPorts(timeout time.Duration) ([]drivers.In, []drivers.Out, bool) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.inPorts, r.outPorts, true
	case <-time.After(timeout):
		return nil, nil, false
	}
}

// DeviceManager handles hot-plug detection of MIDI controllers
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	// PortFilter restricts detection to ports containing it (case-insensitive)
	PortFilter string
	// Model forces a Launchpad model; zero guesses from the port name
	Model LaunchpadModel
	// Keyboards also opens non-Launchpad inputs for note entry
	Keyboards bool
}

// NewDeviceManager creates a new device manager
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == ControllerLaunchpad {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, ok := scanPorts(3 * time.Second)
	if !ok {
		// driver hung, try again next poll
		debug.Log("ctrl", "port scan timed out")
		return
	}

	seenIDs := make(map[string]bool)

	for i, inPort := range inPorts {
		id := inPort.String()
		name := strings.ToLower(id)
		if dm.PortFilter != "" && !strings.Contains(name, strings.ToLower(dm.PortFilter)) {
			continue
		}
		launchpad := isLaunchpad(name)
		if !launchpad && !dm.Keyboards {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		var c Controller
		var err error
		if launchpad {
			var outPort drivers.Out
			for j, op := range outPorts {
				if strings.ToLower(op.String()) == name {
					outPort = outPorts[j]
					break
				}
			}
			model := dm.Model
			if model == 0 {
				model = ModelFromName(name)
			}
			c, err = NewLaunchpadController(id, model, inPorts[i], outPort)
		} else {
			c, err = NewKeyboardController(id, inPorts[i])
		}
		if err != nil {
			debug.Log("ctrl", "open %q: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()

		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

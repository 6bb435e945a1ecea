// Package tui provides a live terminal dashboard over a running Control
// Core: the current device/anchor fleet and a scrolling feed of world
// events, plus simple key-driven anchor administration.
package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/model"
)

// MaxEvents is the maximum number of event-feed lines retained for display.
const MaxEvents = 200

// inputMode distinguishes what the single text input on screen is
// currently collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputAddAnchor
	inputRemoveAnchor
)

// participantRow is one line of the fleet table.
type participantRow struct {
	Category model.Category
	Mac      string
	Position model.Position
}

// Model is the bubbletea model driving the dashboard.
type Model struct {
	core *core.Core

	width    int
	height   int
	ready    bool
	quitting bool

	spinner  spinner.Model
	viewport viewport.Model
	input    textinput.Model

	participants map[string]participantRow
	eventLog     []string
	mode         inputMode
	statusMsg    string
	startTime    time.Time
}

// eventMsg wraps a core.Event delivered over the subscription channel.
type eventMsg core.Event

// subClosedMsg signals the event subscription channel closed.
type subClosedMsg struct{}

// tickMsg drives the uptime counter and spinner.
type tickMsg time.Time

// New creates a dashboard Model over c. Call Run to start it.
func New(c *core.Core) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 128

	return Model{
		core:         c,
		spinner:      s,
		input:        ti,
		participants: make(map[string]participantRow),
		startTime:    time.Now(),
	}
}

// Init subscribes to the core's event broadcaster and snapshots the current
// fleet before the first frame is drawn.
//
//nolint:gocritic // hugeParam: Model must be value receiver to implement tea.Model interface
func (m Model) Init() tea.Cmd {
	reply := make(chan []core.ParticipantState, 1)
	m.core.Commands() <- core.GetState{Reply: reply}
	for _, p := range <-reply {
		m.participants[p.MacAddress.String()] = participantRow{Category: p.Category, Mac: p.MacAddress.String(), Position: p.Position}
	}

	ch, _ := m.core.Events().Subscribe()
	return tea.Batch(m.spinner.Tick, tickCmd(), waitForEvent(ch))
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForEvent(ch <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return subClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *Model) appendEventLine(line string) {
	m.eventLog = append(m.eventLog, line)
	if len(m.eventLog) > MaxEvents {
		m.eventLog = m.eventLog[len(m.eventLog)-MaxEvents:]
	}
}

func (m *Model) applyEvent(ev core.Event) {
	switch e := ev.(type) {
	case core.DeviceAdded:
		m.participants[e.MacAddress.String()] = participantRow{Category: e.Category, Mac: e.MacAddress.String(), Position: e.Position}
		m.appendEventLine(eventLine("+", e.Category, e.MacAddress.String(), e.Position))
	case core.DeviceRemoved:
		delete(m.participants, e.MacAddress.String())
		m.appendEventLine(eventLine("-", e.Category, e.MacAddress.String(), model.Position{}))
	case core.DeviceUpdated:
		m.participants[e.MacAddress.String()] = participantRow{Category: e.Category, Mac: e.MacAddress.String(), Position: e.Position}
		m.appendEventLine(eventLine("~", e.Category, e.MacAddress.String(), e.Position))
	case core.NeighborUpdated:
		m.appendEventLine(neighborLine(e))
	}
}

func eventLine(verb string, cat model.Category, mac string, pos model.Position) string {
	return strings.Join([]string{
		verb, cat.String(), mac,
		"@", itoa(pos.X), itoa(pos.Y), itoa(pos.Z),
	}, " ")
}

func neighborLine(e core.NeighborUpdated) string {
	return strings.Join([]string{
		"~", e.SourceMacAddress.String(), "->", e.DestinationMacAddress.String(),
		"dist=" + itoa(int(e.Distance)),
		"az=" + itoa(int(e.Azimuth)),
		"el=" + itoa(int(e.Elevation)),
	}, " ")
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/model"
)

const headerHeight = 6
const footerHeight = 3

//nolint:gocritic // hugeParam: Model must be value receiver to implement tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 0 {
			vpHeight = 0
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(strings.Join(m.eventLog, "\n"))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		ev := core.Event(msg)
		m.applyEvent(ev)
		m.viewport.SetContent(strings.Join(m.eventLog, "\n"))
		m.viewport.GotoBottom()
		ch, _ := m.core.Events().Subscribe()
		return m, waitForEvent(ch)

	case subClosedMsg:
		return m, nil

	case tickMsg:
		return m, tickCmd()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != inputNone {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "a":
		m.mode = inputAddAnchor
		m.input.Placeholder = "mac x y z"
		m.input.SetValue("")
		m.input.Focus()
		m.statusMsg = ""
		return m, textinput.Blink
	case "x":
		m.mode = inputRemoveAnchor
		m.input.Placeholder = "mac"
		m.input.SetValue("")
		m.input.Focus()
		m.statusMsg = ""
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		mode := m.mode
		value := m.input.Value()
		m.mode = inputNone
		m.input.Blur()
		m.statusMsg = m.submitAdmin(mode, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitAdmin parses the collected input and sends the corresponding
// command to the core, mirroring the anchor lifecycle exposed over the
// admin reply-channel contract (Core.Commands).
func (m *Model) submitAdmin(mode inputMode, value string) string {
	fields := strings.Fields(value)

	switch mode {
	case inputAddAnchor:
		if len(fields) != 4 {
			return "usage: mac x y z"
		}
		mac, err := model.ParseMacAddress(fields[0])
		if err != nil {
			return fmt.Sprintf("invalid mac: %v", err)
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		z, errZ := strconv.Atoi(fields[3])
		if errX != nil || errY != nil || errZ != nil {
			return "x/y/z must be integers"
		}
		reply := make(chan error, 1)
		m.core.Commands() <- core.CreateAnchor{
			MacAddress: mac,
			Position:   model.Position{X: x, Y: y, Z: z},
			Reply:      reply,
		}
		if err := <-reply; err != nil {
			return err.Error()
		}
		return "anchor added: " + mac.String()

	case inputRemoveAnchor:
		if len(fields) != 1 {
			return "usage: mac"
		}
		mac, err := model.ParseMacAddress(fields[0])
		if err != nil {
			return fmt.Sprintf("invalid mac: %v", err)
		}
		reply := make(chan error, 1)
		m.core.Commands() <- core.DestroyAnchor{MacAddress: mac, Reply: reply}
		if err := <-reply; err != nil {
			return err.Error()
		}
		return "anchor removed: " + mac.String()
	}
	return ""
}

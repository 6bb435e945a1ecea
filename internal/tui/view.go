package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return fmt.Sprintf("%s Initializing...\n", m.spinner.View())
	}

	var b strings.Builder

	title := titleStyle.Render("📡 pica fleet dashboard")
	b.WriteString(title)
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	b.WriteString(m.renderFleet())
	b.WriteString("\n")

	eventsBox := boxStyle.Width(m.width - 4).Render(m.viewport.View())
	b.WriteString(eventsBox)
	b.WriteString("\n")

	if m.mode != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if m.statusMsg != "" {
		b.WriteString(statLabelStyle.Render(m.statusMsg))
		b.WriteString("\n")
	}

	help := helpStyle.Render("q: quit • a: add anchor • x: remove anchor • ↑/↓: scroll events")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderStatusBar() string {
	status := StatusIndicator(len(m.participants) > 0)

	counts := statLabelStyle.Render(" | Participants: ") + statValueStyle.Render(fmt.Sprintf("%d", len(m.participants)))

	uptime := time.Since(m.startTime).Round(time.Second)
	uptimeInfo := statLabelStyle.Render(" | Uptime: ") + statValueStyle.Render(uptime.String())

	return status + counts + uptimeInfo
}

func (m Model) renderFleet() string {
	if len(m.participants) == 0 {
		return statLabelStyle.Render("No devices or anchors yet.")
	}

	macs := make([]string, 0, len(m.participants))
	for mac := range m.participants {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	var b strings.Builder
	for _, mac := range macs {
		p := m.participants[mac]
		line := fmt.Sprintf("%-7s %-17s x=%-6d y=%-6d z=%-6d",
			p.Category.String(), p.Mac, p.Position.X, p.Position.Y, p.Position.Z)
		b.WriteString(messageContentStyle.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Package tui renders the live progress view of a generation batch.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TheSilvered/Cursors/internal/pipeline"
)

const colName = 24

// Messages

type eventMsg pipeline.Event

type batchEndedMsg struct{}

type item struct {
	name   string
	status pipeline.Status
	err    error
}

// Progress is the Bubble Tea model for a running batch. It consumes
// pipeline events from a channel and quits when the channel closes.
type Progress struct {
	events   <-chan pipeline.Event
	items    []item
	index    map[string]int
	warnings []string
	aborted  bool
}

// NewProgress creates a progress model pre-seeded with the cursor
// names the batch will process, in processing order.
func NewProgress(names []string, events <-chan pipeline.Event) Progress {
	p := Progress{
		events: events,
		index:  make(map[string]int, len(names)),
	}
	for _, name := range names {
		p.index[name] = len(p.items)
		p.items = append(p.items, item{name: name, status: pipeline.StatusPending})
	}
	return p
}

// Aborted reports whether the user quit before the batch finished.
func (p Progress) Aborted() bool {
	return p.aborted
}

func (p Progress) Init() tea.Cmd {
	return p.waitForEvent()
}

func (p Progress) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-p.events
		if !ok {
			return batchEndedMsg{}
		}
		return eventMsg(ev)
	}
}

func (p Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			p.aborted = true
			return p, tea.Quit
		}
		return p, nil

	case eventMsg:
		ev := pipeline.Event(msg)
		if ev.Warning != "" {
			p.warnings = append(p.warnings, fmt.Sprintf("%s: %s", ev.Name, ev.Warning))
			return p, p.waitForEvent()
		}
		i, ok := p.index[ev.Name]
		if !ok {
			// Sources that failed to parse were not pre-seeded.
			i = len(p.items)
			p.index[ev.Name] = i
			p.items = append(p.items, item{name: ev.Name})
		}
		p.items[i].status = ev.Status
		p.items[i].err = ev.Err
		return p, p.waitForEvent()

	case batchEndedMsg:
		return p, tea.Quit
	}

	return p, nil
}

func (p Progress) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Generating cursors"))
	b.WriteString("\n\n")

	for _, it := range p.items {
		name := it.name
		if len(name) > colName {
			name = name[:colName-1] + "…"
		}
		fmt.Fprintf(&b, "  %s %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", colName, name)),
			statusStyle(it.status).Render(it.status.String()),
		)
		if it.err != nil {
			fmt.Fprintf(&b, "    %s\n", errDetailStyle.Render(it.err.Error()))
		}
	}

	for _, w := range p.warnings {
		b.WriteString(warningStyle.Render("  ! " + w))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("  q quit"))
	b.WriteString("\n")
	return b.String()
}

package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TheSilvered/Cursors/internal/pipeline"
)

func apply(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next
}

func TestProgress_TracksStatuses(t *testing.T) {
	var m tea.Model = NewProgress([]string{"arrow", "hand"}, nil)

	m = apply(t, m, eventMsg(pipeline.Event{Name: "arrow", Status: pipeline.StatusRendering}))
	m = apply(t, m, eventMsg(pipeline.Event{Name: "arrow", Status: pipeline.StatusDone}))
	m = apply(t, m, eventMsg(pipeline.Event{Name: "hand", Status: pipeline.StatusFailed, Err: fmt.Errorf("boom")}))

	view := m.View()
	if !strings.Contains(view, "arrow") || !strings.Contains(view, "DONE") {
		t.Errorf("view should show arrow as done:\n%s", view)
	}
	if !strings.Contains(view, "hand") || !strings.Contains(view, "FAILED") {
		t.Errorf("view should show hand as failed:\n%s", view)
	}
	if !strings.Contains(view, "boom") {
		t.Errorf("view should show the failure detail:\n%s", view)
	}
}

func TestProgress_PendingByDefault(t *testing.T) {
	m := NewProgress([]string{"arrow"}, nil)
	if !strings.Contains(m.View(), "PENDING") {
		t.Errorf("unstarted cursors should render as pending:\n%s", m.View())
	}
}

func TestProgress_AddsUnknownNames(t *testing.T) {
	var m tea.Model = NewProgress(nil, nil)
	m = apply(t, m, eventMsg(pipeline.Event{Name: "broken", Status: pipeline.StatusFailed, Err: fmt.Errorf("parse error")}))

	if !strings.Contains(m.View(), "broken") {
		t.Errorf("view should list sources first seen through events:\n%s", m.View())
	}
}

func TestProgress_CollectsWarnings(t *testing.T) {
	var m tea.Model = NewProgress([]string{"arrow"}, nil)
	m = apply(t, m, eventMsg(pipeline.Event{Name: "arrow", Warning: "missing hotspot"}))

	if !strings.Contains(m.View(), "missing hotspot") {
		t.Errorf("view should show warnings:\n%s", m.View())
	}
}

func TestProgress_QuitsWhenBatchEnds(t *testing.T) {
	m := NewProgress([]string{"arrow"}, nil)
	_, cmd := m.Update(batchEndedMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command when the batch ends")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("expected tea.Quit, got %T", msg)
	}
}

func TestProgress_AbortOnQuitKey(t *testing.T) {
	m := NewProgress([]string{"arrow"}, nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected a quit command on ctrl+c")
	}
	if p, ok := next.(Progress); !ok || !p.Aborted() {
		t.Error("quitting mid-batch should mark the model aborted")
	}
}

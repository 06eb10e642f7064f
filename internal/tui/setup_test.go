package tui

import (
	"regexp"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"vaultview/internal/api"
	"vaultview/internal/config"
)

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output. It acquires colorProfileMu to prevent data races with
// parallel tests and restores the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// newTestModel builds a connected model with a fixed terminal size. No client
// is attached; tests that need server round-trips install one themselves.
func newTestModel() Model {
	m := New(Options{
		Settings: &config.Settings{ServerURL: "http://localhost:8080"},
		Version:  "test",
	})
	m.width = 100
	m.height = 24
	m.pageSize = 16
	m.status = connectionStatus{phase: connConnected}
	return m
}

// update runs one reducer step and returns the model with its command.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

// collect executes cmd and flattens batches into the produced messages.
// Commands that would hit the network must not reach this helper.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// keyMsg builds a KeyMsg whose String() matches s.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press feeds one key through the reducer.
func press(t *testing.T, m Model, s string) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, keyMsg(s))
}

func sampleSummary(id int64) api.MessageSummary {
	return api.MessageSummary{
		ID:      id,
		Subject: "Quarterly report",
		From:    "alice@acme.com",
		Snippet: "Attached is the latest",
		SentAt:  time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func sampleDetail(id int64) *api.MessageDetail {
	return &api.MessageDetail{
		ID:      id,
		Subject: "Quarterly report",
		From:    "alice@acme.com",
		To:      []string{"bob@acme.com"},
		SentAt:  time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC),
		Body:    "Please find the report attached.",
		Attachments: []api.Attachment{
			{Filename: "report.pdf", MimeType: "application/pdf", SizeBytes: 120_000},
		},
		ThreadID: "t-1",
	}
}

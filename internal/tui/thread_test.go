package tui

import (
	"testing"

	"vaultview/internal/api"
)

func threadOf(n int) []api.MessageDetail {
	msgs := make([]api.MessageDetail, n)
	for i := range msgs {
		msgs[i] = *sampleDetail(int64(i + 1))
	}
	return msgs
}

func TestThreadLoad_LastMessageExpandedAndFocused(t *testing.T) {
	var ts threadState
	ts.load("t-1", threadOf(3))

	if ts.focused != 2 {
		t.Fatalf("focused = %d, want last message", ts.focused)
	}
	for i := 0; i < 2; i++ {
		if ts.isExpanded(i) {
			t.Errorf("message %d expanded on load", i)
		}
	}
	if !ts.isExpanded(2) {
		t.Error("most recent message not expanded on load")
	}
}

func TestThreadLoad_EmptyThread(t *testing.T) {
	var ts threadState
	ts.load("t-empty", nil)

	if ts.focused != 0 {
		t.Fatalf("focused = %d on empty thread", ts.focused)
	}
	if ts.isExpanded(0) {
		t.Error("empty thread reports an expanded message")
	}
}

func TestThreadToggle_IsIdempotentInPairs(t *testing.T) {
	var ts threadState
	ts.load("t-1", threadOf(3))

	ts.toggleExpanded(0)
	if !ts.isExpanded(0) {
		t.Fatal("toggle did not expand")
	}
	ts.toggleExpanded(0)
	if ts.isExpanded(0) {
		t.Fatal("second toggle did not collapse")
	}

	// Out of range is a no-op, not a panic.
	ts.toggleExpanded(-1)
	ts.toggleExpanded(99)
}

func TestThreadFocus_ClampedAtBothEnds(t *testing.T) {
	var ts threadState
	ts.load("t-1", threadOf(2))

	ts.focusNext() // already at the last message
	if ts.focused != 1 {
		t.Fatalf("focusNext past end moved to %d", ts.focused)
	}
	ts.focusPrevious()
	ts.focusPrevious()
	ts.focusPrevious()
	if ts.focused != 0 {
		t.Fatalf("focusPrevious past start moved to %d", ts.focused)
	}
}

func TestThreadExpandCollapseAll(t *testing.T) {
	var ts threadState
	ts.load("t-1", threadOf(4))

	ts.expandAll()
	for i := 0; i < 4; i++ {
		if !ts.isExpanded(i) {
			t.Fatalf("message %d collapsed after expandAll", i)
		}
	}
	ts.collapseAll()
	for i := 0; i < 4; i++ {
		if ts.isExpanded(i) {
			t.Fatalf("message %d expanded after collapseAll", i)
		}
	}
}

func TestThreadClear_OnLeavingView(t *testing.T) {
	m := newTestModel()
	m.nav.Push(ThreadView{ThreadID: "t-1"})
	m.thread.load("t-1", threadOf(2))

	m, _ = press(t, m, "esc")
	if len(m.thread.messages) != 0 || m.thread.threadID != "" {
		t.Fatal("thread state survived leaving the view")
	}
}

func TestThreadKeys_ToggleFocusedMessage(t *testing.T) {
	m := newTestModel()
	m.nav.Push(ThreadView{ThreadID: "t-1"})
	m, _ = update(t, m, threadLoadedMsg{thread: &api.Thread{ThreadID: "t-1", Messages: threadOf(3)}})

	m, _ = press(t, m, "up") // focus message 1
	m, _ = press(t, m, "enter")
	if !m.thread.isExpanded(1) {
		t.Fatal("enter did not expand the focused message")
	}
}

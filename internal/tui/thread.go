package tui

import "vaultview/internal/api"

// threadState holds the conversation view: which messages are expanded and
// which one has focus.
type threadState struct {
	threadID string
	messages []api.MessageDetail
	expanded []bool
	focused  int
	loading  bool
}

// load replaces the thread contents. All messages start collapsed except the
// most recent, which is expanded and focused.
func (t *threadState) load(threadID string, messages []api.MessageDetail) {
	t.threadID = threadID
	t.messages = messages
	t.expanded = make([]bool, len(messages))
	t.focused = 0
	if n := len(messages); n > 0 {
		t.expanded[n-1] = true
		t.focused = n - 1
	}
	t.loading = false
}

// toggleExpanded flips one message. Out-of-range indices are ignored.
func (t *threadState) toggleExpanded(i int) {
	if i >= 0 && i < len(t.expanded) {
		t.expanded[i] = !t.expanded[i]
	}
}

func (t *threadState) expandAll() {
	for i := range t.expanded {
		t.expanded[i] = true
	}
}

func (t *threadState) collapseAll() {
	for i := range t.expanded {
		t.expanded[i] = false
	}
}

// focusPrevious moves focus up, clamped at the first message.
func (t *threadState) focusPrevious() {
	if t.focused > 0 {
		t.focused--
	}
}

// focusNext moves focus down, clamped at the last message.
func (t *threadState) focusNext() {
	if t.focused+1 < len(t.messages) {
		t.focused++
	}
}

func (t *threadState) isExpanded(i int) bool {
	return i >= 0 && i < len(t.expanded) && t.expanded[i]
}

func (t *threadState) clear() {
	*t = threadState{}
}

package tui

import (
	"fmt"

	"vaultview/internal/api"
)

// View identifies which screen is active and carries the parameters needed to
// re-derive its content. Views own no loaded data; caches live on the Model.
type View interface {
	// Title returns the breadcrumb label for this view.
	Title() string
}

// DashboardView is the stats home screen.
type DashboardView struct{}

func (DashboardView) Title() string { return "Dashboard" }

// AggregatesView is a top-level aggregate list (senders, domains, ...).
type AggregatesView struct {
	Type api.ViewType
}

func (v AggregatesView) Title() string { return v.Type.DisplayName() }

// SubAggregatesView groups the messages behind one aggregate key by another
// dimension (e.g. a domain's labels).
type SubAggregatesView struct {
	ParentType api.ViewType
	ParentKey  string
	Type       api.ViewType
}

func (v SubAggregatesView) Title() string {
	return fmt.Sprintf("%s → %s", v.ParentKey, v.Type.DisplayName())
}

// MessagesView is a filtered, paginated message list.
type MessagesView struct {
	Filter api.MessageFilter
}

func (v MessagesView) Title() string { return v.Filter.Describe() }

// MessageDetailView is a single message.
type MessageDetailView struct {
	MessageID int64
}

func (v MessageDetailView) Title() string { return fmt.Sprintf("Message #%d", v.MessageID) }

// ThreadView is a whole conversation.
type ThreadView struct {
	ThreadID string
}

func (ThreadView) Title() string { return "Thread" }

// SearchView is the search screen.
type SearchView struct{}

func (SearchView) Title() string { return "Search" }

// SyncView shows per-account sync status.
type SyncView struct{}

func (SyncView) Title() string { return "Sync" }

// AccountsView manages archive accounts.
type AccountsView struct{}

func (AccountsView) Title() string { return "Accounts" }

// SettingsView edits the client configuration.
type SettingsView struct{}

func (SettingsView) Title() string { return "Settings" }

// Crumb is one entry of the breadcrumb trail.
type Crumb struct {
	Label string
	View  View
}

// NavStack is the navigation history plus the current view. Current is never
// nil after construction; the zero history means the user is at the root.
type NavStack struct {
	history []View
	current View
}

// NewNavStack creates a stack positioned at the dashboard.
func NewNavStack() *NavStack {
	return &NavStack{current: DashboardView{}}
}

// Current returns the active view.
func (s *NavStack) Current() View {
	if s.current == nil {
		return DashboardView{}
	}
	return s.current
}

// Push navigates to a new view, appending the current one to history.
func (s *NavStack) Push(v View) {
	s.history = append(s.history, s.Current())
	s.current = v
}

// Replace swaps the current view without touching history. Used when a
// screen changes shape in place (e.g. cycling aggregate dimensions).
func (s *NavStack) Replace(v View) {
	s.current = v
}

// Pop returns to the previous view. It reports whether navigation moved;
// popping with an empty history is a safe no-op.
func (s *NavStack) Pop() bool {
	if len(s.history) == 0 {
		return false
	}
	s.current = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return true
}

// CanGoBack reports whether Pop would move.
func (s *NavStack) CanGoBack() bool { return len(s.history) > 0 }

// Depth returns the number of history entries.
func (s *NavStack) Depth() int { return len(s.history) }

// JumpTo navigates directly to history index i, discarding every later entry.
// Indices out of range are ignored. This is destructive: there is no redo.
func (s *NavStack) JumpTo(i int) {
	if i < 0 || i >= len(s.history) {
		return
	}
	s.current = s.history[i]
	s.history = s.history[:i]
}

// Reset returns to the dashboard and clears history.
func (s *NavStack) Reset() {
	s.history = nil
	s.current = DashboardView{}
}

// Breadcrumbs derives the trail: history entries followed by the current view.
func (s *NavStack) Breadcrumbs() []Crumb {
	crumbs := make([]Crumb, 0, len(s.history)+1)
	for _, v := range s.history {
		crumbs = append(crumbs, Crumb{Label: v.Title(), View: v})
	}
	crumbs = append(crumbs, Crumb{Label: s.Current().Title(), View: s.Current()})
	return crumbs
}

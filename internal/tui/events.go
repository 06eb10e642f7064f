package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"vaultview/internal/api"
)

// Every async result and every synthetic user intent is a message processed
// by Update. Commands are the only producers of messages besides terminal
// input; each command feeds back exactly one message (downloads additionally
// re-emit progress through the program's send hook).

// emit returns a command that immediately re-enters Update with msg. This is
// how one handler chains into another without performing work itself.
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// SyncRefreshMsg is the message external schedulers send to refresh the sync
// status cache. It is the only message producers outside this package need.
func SyncRefreshMsg() tea.Msg { return fetchSyncStatusMsg{} }

// checkHealthMsg starts the connection flow against the configured server.
type checkHealthMsg struct{}

// healthCheckedMsg is the health probe result.
type healthCheckedMsg struct {
	health *api.Health
	err    error
}

// retryConnectionMsg is the single user-triggered retry; no retry is ever
// automatic.
type retryConnectionMsg struct{}

// fetchStatsMsg requests the dashboard statistics.
type fetchStatsMsg struct{}

// statsLoadedMsg carries the stats fetch result.
type statsLoadedMsg struct {
	stats *api.Stats
	err   error
}

// fetchAggregatesMsg requests rows for the current aggregate view.
type fetchAggregatesMsg struct{}

// aggregatesLoadedMsg carries the aggregate fetch result.
type aggregatesLoadedMsg struct {
	result *api.AggregateResult
	err    error
}

// fetchMessagesMsg requests the page described by the current message filter.
type fetchMessagesMsg struct{}

// messagesLoadedMsg carries a message list page.
type messagesLoadedMsg struct {
	page *api.MessagePage
	err  error
}

// messageDetailLoadedMsg carries a single message fetch result.
type messageDetailLoadedMsg struct {
	detail *api.MessageDetail
	err    error
}

// threadLoadedMsg carries a whole conversation.
type threadLoadedMsg struct {
	thread *api.Thread
	err    error
}

// runSearchMsg executes the search box contents from offset zero.
type runSearchMsg struct{}

// searchResultsMsg carries a page of search results.
type searchResultsMsg struct {
	result *api.SearchResult
	offset int
	err    error
}

// fetchSyncStatusMsg requests per-account sync status. The periodic refresher
// emits this same message; the reducer owns no timer.
type fetchSyncStatusMsg struct{}

// syncStatusLoadedMsg carries the sync status result.
type syncStatusLoadedMsg struct {
	status *api.SyncStatus
	err    error
}

// syncTriggeredMsg reports the outcome of a manual sync trigger.
type syncTriggeredMsg struct {
	email string
	err   error
}

// fetchAccountsMsg requests the configured account list.
type fetchAccountsMsg struct{}

// accountsLoadedMsg carries the account list result.
type accountsLoadedMsg struct {
	accounts []api.AccountInfo
	err      error
}

// accountRemovedMsg reports the outcome of an account removal.
type accountRemovedMsg struct {
	email string
	err   error
}

// oauthInitiatedMsg carries the account-linking initiation result.
type oauthInitiatedMsg struct {
	init *api.OAuthInit
	err  error
}

// pollDeviceFlowMsg is the manual poll of a pending device authorization.
type pollDeviceFlowMsg struct{}

// devicePollResultMsg carries a device-flow poll outcome.
type devicePollResultMsg struct {
	status *api.DeviceFlowStatus
	err    error
}

// browserOpenedMsg reports the attempt to open a URL in the system browser.
type browserOpenedMsg struct {
	err error
}

// downloadProgressMsg is re-emitted during a long download.
type downloadProgressMsg struct {
	messageID int64
	index     int
	fraction  float64
}

// downloadFinishedMsg is the terminal result of an attachment download.
type downloadFinishedMsg struct {
	messageID int64
	index     int
	path      string
	err       error
}

// fileOpenedMsg reports handing a downloaded file to the OS opener.
type fileOpenedMsg struct {
	err error
}

// sendFinishedMsg is the result of submitting a composed message.
type sendFinishedMsg struct {
	err error
}

// flashClearMsg expires the transient status-bar notification.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"vaultview/internal/api"
)

// Update is the reducer: every state transition happens here, keyed on the
// incoming message. Commands returned from one branch feed their results back
// in as new messages; Update itself never blocks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Fetch intents are inert until a client exists.
	if m.client == nil {
		switch msg.(type) {
		case fetchStatsMsg, fetchAggregatesMsg, fetchMessagesMsg,
			fetchAccountsMsg, fetchSyncStatusMsg, runSearchMsg:
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = msg.Height - 8
		if m.pageSize < 5 {
			m.pageSize = 5
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case checkHealthMsg:
		if m.client == nil {
			m.status = connectionStatus{phase: connFailed, reason: "no server configured"}
			return m, nil
		}
		m.status = connectionStatus{phase: connConnecting}
		m.loading = true
		return m, tea.Batch(m.checkHealth(), m.startSpinner())

	case healthCheckedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = connectionStatus{phase: connFailed, reason: msg.err.Error()}
			return m, nil
		}
		m.status = connectionStatus{phase: connConnected}
		// Connected: load the dashboard and seed the sync cache.
		return m, tea.Batch(emit(fetchStatsMsg{}), emit(fetchSyncStatusMsg{}))

	case retryConnectionMsg:
		return m, emit(checkHealthMsg{})

	case fetchStatsMsg:
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(m.loadStats(), m.startSpinner())

	case statsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.stats = msg.stats
		return m, nil

	case fetchAggregatesMsg:
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(m.loadAggregates(), m.startSpinner())

	case aggregatesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.aggRows = msg.result.Rows
		if m.aggCursor >= len(m.aggRows) {
			m.aggCursor = max(0, len(m.aggRows)-1)
		}
		return m, nil

	case fetchMessagesMsg:
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(m.loadMessages(), m.startSpinner())

	case messagesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.messages = msg.page.Messages
		m.msgTotal = msg.page.Total
		if m.msgCursor >= len(m.messages) {
			m.msgCursor = max(0, len(m.messages)-1)
		}
		return m, nil

	case messageDetailLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.detail = msg.detail
		return m, nil

	case threadLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.thread.loading = false
			return m.fail(msg.err), nil
		}
		m.thread.load(msg.thread.ThreadID, msg.thread.Messages)
		return m, nil

	case runSearchMsg:
		query := m.searchInput.Value()
		if query == "" {
			return m, nil
		}
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(m.loadSearch(query, 0), m.startSpinner())

	case searchResultsMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.searchResults = msg.result.Messages
		m.searchTotal = msg.result.Total
		m.searchOffset = msg.offset
		m.searchCursor = 0
		return m, nil

	case fetchSyncStatusMsg:
		if !m.status.connected() {
			return m, nil
		}
		return m, m.loadSyncStatus()

	case syncStatusLoadedMsg:
		if msg.err != nil {
			// Background refresh; stale data on screen beats an error popup.
			if _, ok := m.nav.Current().(SyncView); ok {
				return m.fail(msg.err), nil
			}
			return m, nil
		}
		m.syncAccounts = msg.status.Accounts
		m.syncRunning = msg.status.Running
		if m.syncCursor >= len(m.syncAccounts) {
			m.syncCursor = max(0, len(m.syncAccounts)-1)
		}
		return m, nil

	case syncTriggeredMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		return m, tea.Batch(m.flash("Sync started for "+msg.email), emit(fetchSyncStatusMsg{}))

	case fetchAccountsMsg:
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(m.loadAccounts(), m.startSpinner())

	case accountsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.accounts = msg.accounts
		if m.accountsCursor >= len(m.accounts) {
			m.accountsCursor = max(0, len(m.accounts)-1)
		}
		return m, nil

	case accountRemovedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		return m, tea.Batch(m.flash("Removed "+msg.email), emit(fetchAccountsMsg{}))

	case oauthInitiatedMsg:
		// A result landing after esc canceled the flow finds an idle machine
		// and must not resurrect it.
		if m.addAccount.phase != phaseInitiating {
			return m, nil
		}
		if msg.err != nil {
			m.addAccount.fail(msg.err.Error())
			return m, nil
		}
		if msg.init.DeviceFlow {
			m.addAccount.deviceFlowStarted(msg.init.UserCode, msg.init.VerificationURL, msg.init.PollInterval)
			return m, nil
		}
		// Browser flow: the server confirms the link out-of-band, so the
		// machine goes back to idle and the account list picks it up later.
		m.addAccount.reset()
		return m, tea.Batch(openBrowser(msg.init.AuthURL), m.flash("Continue in your browser"))

	case pollDeviceFlowMsg:
		if !m.addAccount.canPoll() {
			return m, nil
		}
		m.addAccount.beginPoll()
		return m, m.oauthPoll(m.addAccount.email)

	case devicePollResultMsg:
		if m.addAccount.phase != phasePolling {
			return m, nil
		}
		if msg.err != nil {
			m.addAccount.fail(msg.err.Error())
			return m, nil
		}
		switch msg.status.Status {
		case api.DeviceFlowPending:
			m.addAccount.pollPending()
			return m, nil
		case api.DeviceFlowComplete:
			email := m.addAccount.email
			m.addAccount.reset()
			return m, tea.Batch(
				m.flash("Linked "+email),
				emit(fetchAccountsMsg{}),
				emit(fetchSyncStatusMsg{}),
			)
		case api.DeviceFlowExpired:
			m.addAccount.fail("authorization expired, start again")
			return m, nil
		default:
			reason := msg.status.Error
			if reason == "" {
				reason = "authorization failed"
			}
			m.addAccount.fail(reason)
			return m, nil
		}

	case browserOpenedMsg:
		if msg.err != nil {
			return m, m.flash("Could not open browser: " + msg.err.Error())
		}
		return m, nil

	case downloadProgressMsg:
		m.downloads.setProgress(msg.messageID, msg.index, msg.fraction)
		return m, nil

	case downloadFinishedMsg:
		if msg.err != nil {
			m.downloads.setFailed(msg.messageID, msg.index, msg.err.Error())
			return m, m.flash("Download failed: " + msg.err.Error())
		}
		m.downloads.setComplete(msg.messageID, msg.index, msg.path)
		return m, m.flash("Saved " + msg.path)

	case fileOpenedMsg:
		if msg.err != nil {
			return m, m.flash("Could not open file: " + msg.err.Error())
		}
		return m, nil

	case sendFinishedMsg:
		m.compose.sending = false
		if msg.err != nil {
			m.compose.sendError = msg.err.Error()
			return m, nil
		}
		m.compose.close()
		return m, m.flash("Message sent")

	case flashClearMsg:
		if !m.flashExpires.After(timeNow()) {
			m.flashMessage = ""
		}
		return m, nil

	case spinnerTickMsg:
		if !m.loading {
			m.spinnerActive = false
			return m, nil
		}
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		return m, spinnerTick()
	}

	return m, nil
}

// fail records a screen-local error. Connection failures additionally flip
// the connection status so the retry screen takes over.
func (m Model) fail(err error) Model {
	m.loading = false
	m.errMsg = err.Error()
	if api.IsConnectionError(err) {
		m.status = connectionStatus{phase: connFailed, reason: err.Error()}
	}
	return m
}

// openView pushes a view and fetches its data.
func (m *Model) openView(v View) tea.Cmd {
	m.nav.Push(v)
	m.errMsg = ""
	return m.refetchForCurrentView()
}

// goBack pops one view and re-derives the data for whatever is now current.
// Cached data may be shown stale briefly; the fetch overwrites it.
func (m *Model) goBack() tea.Cmd {
	if !m.nav.Pop() {
		return nil
	}
	m.errMsg = ""
	return m.refetchForCurrentView()
}

// jumpToCrumb navigates directly to breadcrumb index i. The last crumb is the
// current view, so only history indices cause movement.
func (m *Model) jumpToCrumb(i int) tea.Cmd {
	if i >= m.nav.Depth() {
		return nil
	}
	m.nav.JumpTo(i)
	m.errMsg = ""
	return m.refetchForCurrentView()
}

// refetchForCurrentView issues the fetch that the current view needs. Views
// carry the parameters to re-derive their content, so back navigation and
// breadcrumb jumps always land on fresh data.
func (m *Model) refetchForCurrentView() tea.Cmd {
	switch v := m.nav.Current().(type) {
	case DashboardView:
		return emit(fetchStatsMsg{})
	case AggregatesView, SubAggregatesView:
		return emit(fetchAggregatesMsg{})
	case MessagesView:
		m.msgFilter = v.Filter
		return emit(fetchMessagesMsg{})
	case MessageDetailView:
		m.loading = true
		return tea.Batch(m.loadMessageDetail(v.MessageID), m.startSpinner())
	case ThreadView:
		m.loading = true
		m.thread.loading = true
		return tea.Batch(m.loadThread(v.ThreadID), m.startSpinner())
	case SearchView:
		return nil // cached results stay until the next query
	case SyncView:
		return emit(fetchSyncStatusMsg{})
	case AccountsView:
		return emit(fetchAccountsMsg{})
	}
	return nil
}

// nextMessagePage advances the message list one page if more rows exist.
func (m *Model) nextMessagePage() tea.Cmd {
	if int64(m.msgFilter.Offset+m.msgFilter.Limit) >= m.msgTotal {
		return nil
	}
	m.msgFilter.Offset += m.msgFilter.Limit
	m.msgCursor = 0
	return emit(fetchMessagesMsg{})
}

// previousMessagePage goes back one page, clamped at zero.
func (m *Model) previousMessagePage() tea.Cmd {
	if m.msgFilter.Offset == 0 {
		return nil
	}
	m.msgFilter.Offset -= m.msgFilter.Limit
	if m.msgFilter.Offset < 0 {
		m.msgFilter.Offset = 0
	}
	m.msgCursor = 0
	return emit(fetchMessagesMsg{})
}

// nextSearchPage advances the search results one page.
func (m *Model) nextSearchPage() tea.Cmd {
	next := m.searchOffset + messagePageSize
	if int64(next) >= m.searchTotal {
		return nil
	}
	m.loading = true
	return tea.Batch(m.loadSearch(m.searchInput.Value(), next), m.startSpinner())
}

// previousSearchPage goes back one page of search results.
func (m *Model) previousSearchPage() tea.Cmd {
	if m.searchOffset == 0 {
		return nil
	}
	prev := m.searchOffset - messagePageSize
	if prev < 0 {
		prev = 0
	}
	m.loading = true
	return tea.Batch(m.loadSearch(m.searchInput.Value(), prev), m.startSpinner())
}

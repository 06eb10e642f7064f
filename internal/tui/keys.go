package tui

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"vaultview/internal/api"
	"vaultview/internal/config"
)

// handleKey routes terminal input. Modal surfaces (compose, account linking,
// settings, the search box) capture keys first; everything else is dispatched
// by the current view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.confirmQuit {
		switch msg.String() {
		case "y", "enter":
			m.quitting = true
			return m, tea.Quit
		default:
			m.confirmQuit = false
			return m, nil
		}
	}
	if m.confirmRemove != "" {
		email := m.confirmRemove
		m.confirmRemove = ""
		switch msg.String() {
		case "y", "enter":
			return m, m.removeAccount(email)
		default:
			return m, nil
		}
	}

	if m.compose.open {
		return m.handleComposeKey(msg)
	}
	if m.addingEmail {
		return m.handleEmailEntryKey(msg)
	}
	if m.addAccount.active() {
		return m.handleAddAccountKey(msg)
	}

	if !m.status.connected() {
		return m.handleDisconnectedKey(msg)
	}

	if _, ok := m.nav.Current().(SettingsView); ok {
		return m.handleSettingsKey(msg)
	}
	if _, ok := m.nav.Current().(SearchView); ok && m.searchInput.Focused() {
		return m.handleSearchInputKey(msg)
	}

	key := msg.String()

	// Digits: breadcrumb jumps everywhere except the detail view, where they
	// address attachments instead.
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		n, _ := strconv.Atoi(key)
		if _, ok := m.nav.Current().(MessageDetailView); ok {
			return m.handleAttachmentDigit(n - 1)
		}
		return m, m.jumpToCrumb(n - 1)
	}

	switch key {
	case "q":
		// An in-flight download is the one thing quitting would lose.
		if m.downloads.anyActive() {
			m.confirmQuit = true
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "esc", "backspace":
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m.handleBack()
	case "/":
		if _, ok := m.nav.Current().(SearchView); !ok {
			m.searchInput.Focus()
			return m, m.openView(SearchView{})
		}
		m.searchInput.Focus()
		return m, nil
	case "m":
		return m, m.openView(MessagesView{Filter: api.MessageFilter{All: true, Limit: messagePageSize}})
	case "a":
		if _, ok := m.nav.Current().(AccountsView); ok {
			break // "a" means add account there
		}
		return m, m.openView(AggregatesView{Type: api.ViewSenders})
	case "y":
		return m, m.openView(SyncView{})
	case "A":
		return m, m.openView(AccountsView{})
	case ",":
		m.serverInput.SetValue(m.settings.ServerURL)
		m.apiKeyInput.SetValue(m.settings.APIKey)
		m.serverInput.Focus()
		m.apiKeyInput.Blur()
		m.settingsFocus = 0
		return m, m.openView(SettingsView{})
	case "c":
		from := m.composeFrom()
		if from == "" {
			return m, m.flash("No account configured to send from")
		}
		m.compose = openNewCompose(from)
		return m, nil
	}

	switch m.nav.Current().(type) {
	case AggregatesView, SubAggregatesView:
		return m.handleAggregatesKey(key)
	case MessagesView:
		return m.handleMessagesKey(key)
	case MessageDetailView:
		return m.handleDetailKey(key)
	case ThreadView:
		return m.handleThreadKey(key)
	case SearchView:
		return m.handleSearchResultsKey(key)
	case SyncView:
		return m.handleSyncKey(key)
	case AccountsView:
		return m.handleAccountsKey(key)
	}
	return m, nil
}

// handleBack pops the current view and releases its per-screen state.
func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch v := m.nav.Current().(type) {
	case MessageDetailView:
		m.downloads.clearMessage(v.MessageID)
		m.detail = nil
	case ThreadView:
		m.thread.clear()
	}
	return m, m.goBack()
}

// handleDisconnectedKey serves the failure screen: retry or fix settings.
func (m Model) handleDisconnectedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.nav.Current().(SettingsView); ok {
		return m.handleSettingsKey(msg)
	}
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "r":
		return m, emit(retryConnectionMsg{})
	case ",", "s":
		m.serverInput.SetValue(m.settings.ServerURL)
		m.apiKeyInput.SetValue(m.settings.APIKey)
		m.serverInput.Focus()
		m.settingsFocus = 0
		m.nav.Push(SettingsView{})
		return m, nil
	}
	return m, nil
}

func (m Model) handleAggregatesKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.aggCursor > 0 {
			m.aggCursor--
		}
	case "down", "j":
		if m.aggCursor+1 < len(m.aggRows) {
			m.aggCursor++
		}
	case "enter":
		row, ok := m.selectedAggregate()
		if !ok {
			return m, nil
		}
		viewType := m.currentAggregateType()
		filter := api.MessageFilter{
			View:        viewType,
			Key:         row.Key,
			Granularity: m.granularity,
			Limit:       messagePageSize,
		}
		return m, m.openView(MessagesView{Filter: filter})
	case "u":
		row, ok := m.selectedAggregate()
		if !ok {
			return m, nil
		}
		parent := m.currentAggregateType()
		sub := api.ViewLabels
		if parent == api.ViewLabels {
			sub = api.ViewSenders
		}
		m.aggCursor = 0
		return m, m.openView(SubAggregatesView{ParentType: parent, ParentKey: row.Key, Type: sub})
	case "s":
		m.sortField = m.sortField.Next()
		return m, emit(fetchAggregatesMsg{})
	case "r":
		m.sortDir = m.sortDir.Toggle()
		return m, emit(fetchAggregatesMsg{})
	case "t":
		if m.currentAggregateType() == api.ViewTime {
			m.granularity = m.granularity.Next()
			return m, emit(fetchAggregatesMsg{})
		}
	case "tab":
		return m.cycleAggregateType(true)
	case "shift+tab":
		return m.cycleAggregateType(false)
	}
	return m, nil
}

// cycleAggregateType swaps the dimension of the current aggregate screen in
// place; history is untouched.
func (m Model) cycleAggregateType(forward bool) (tea.Model, tea.Cmd) {
	switch v := m.nav.Current().(type) {
	case AggregatesView:
		if forward {
			v.Type = v.Type.Next()
		} else {
			v.Type = v.Type.Previous()
		}
		m.nav.Replace(v)
	case SubAggregatesView:
		if forward {
			v.Type = v.Type.Next()
		} else {
			v.Type = v.Type.Previous()
		}
		m.nav.Replace(v)
	default:
		return m, nil
	}
	m.aggCursor = 0
	return m, emit(fetchAggregatesMsg{})
}

func (m Model) currentAggregateType() api.ViewType {
	switch v := m.nav.Current().(type) {
	case AggregatesView:
		return v.Type
	case SubAggregatesView:
		return v.Type
	}
	return api.ViewSenders
}

func (m Model) selectedAggregate() (api.AggregateRow, bool) {
	if m.aggCursor < 0 || m.aggCursor >= len(m.aggRows) {
		return api.AggregateRow{}, false
	}
	return m.aggRows[m.aggCursor], true
}

func (m Model) handleMessagesKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.msgCursor > 0 {
			m.msgCursor--
		}
	case "down", "j":
		if m.msgCursor+1 < len(m.messages) {
			m.msgCursor++
		}
	case "enter":
		if msg, ok := m.selectedMessage(); ok {
			return m, m.openView(MessageDetailView{MessageID: msg.ID})
		}
	case "right", "n":
		return m, m.nextMessagePage()
	case "left", "p":
		return m, m.previousMessagePage()
	case " ":
		if msg, ok := m.selectedMessage(); ok {
			m.toggleSelected(msg.ID)
		}
	case "T":
		if msg, ok := m.selectedMessage(); ok && msg.ThreadID != "" {
			return m, m.openView(ThreadView{ThreadID: msg.ThreadID})
		}
	}
	return m, nil
}

func (m Model) selectedMessage() (api.MessageSummary, bool) {
	if m.msgCursor < 0 || m.msgCursor >= len(m.messages) {
		return api.MessageSummary{}, false
	}
	return m.messages[m.msgCursor], true
}

// toggleSelected flips a message in the cross-screen selection set.
func (m *Model) toggleSelected(id int64) {
	if m.selection[id] {
		delete(m.selection, id)
	} else {
		m.selection[id] = true
	}
}

// handleAttachmentDigit starts, or opens the result of, attachment n of the
// current detail view.
func (m Model) handleAttachmentDigit(n int) (tea.Model, tea.Cmd) {
	if m.detail == nil || n < 0 || n >= len(m.detail.Attachments) {
		return m, nil
	}
	switch st := m.downloads.get(m.detail.ID, n); st.phase {
	case downloadActive:
		return m, nil
	case downloadComplete:
		return m, openFile(st.path)
	default:
		m.downloads.setProgress(m.detail.ID, n, 0)
		att := m.detail.Attachments[n]
		return m, m.downloadAttachment(m.detail.ID, n, att.Filename)
	}
}

func (m Model) handleDetailKey(key string) (tea.Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	switch key {
	case "r":
		from := m.composeFrom()
		if from == "" {
			return m, m.flash("No account configured to send from")
		}
		m.compose = openReply(from, m.detail)
	case "R":
		from := m.composeFrom()
		if from == "" {
			return m, m.flash("No account configured to send from")
		}
		m.compose = openReplyAll(from, m.detail)
	case "f":
		from := m.composeFrom()
		if from == "" {
			return m, m.flash("No account configured to send from")
		}
		m.compose = openForward(from, m.detail)
	case "T":
		if m.detail.ThreadID != "" {
			return m, m.openView(ThreadView{ThreadID: m.detail.ThreadID})
		}
	}
	return m, nil
}

func (m Model) handleThreadKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.thread.focusPrevious()
	case "down", "j":
		m.thread.focusNext()
	case "enter", " ":
		m.thread.toggleExpanded(m.thread.focused)
	case "e":
		m.thread.expandAll()
	case "c":
		m.thread.collapseAll()
	}
	return m, nil
}

// handleSearchInputKey feeds keys to the query box while it has focus.
func (m Model) handleSearchInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchInput.Blur()
		return m, emit(runSearchMsg{})
	case "tab":
		m.searchMode = m.searchMode.Toggle()
		return m, nil
	case "esc":
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchResultsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "i":
		m.searchInput.Focus()
	case "enter":
		if m.searchCursor >= 0 && m.searchCursor < len(m.searchResults) {
			return m, m.openView(MessageDetailView{MessageID: m.searchResults[m.searchCursor].ID})
		}
	case "up", "k":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
	case "down", "j":
		if m.searchCursor+1 < len(m.searchResults) {
			m.searchCursor++
		}
	case "right", "n":
		return m, m.nextSearchPage()
	case "left", "p":
		return m, m.previousSearchPage()
	case " ":
		if m.searchCursor >= 0 && m.searchCursor < len(m.searchResults) {
			m.toggleSelected(m.searchResults[m.searchCursor].ID)
		}
	}
	return m, nil
}

func (m Model) handleSyncKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.syncCursor > 0 {
			m.syncCursor--
		}
	case "down", "j":
		if m.syncCursor+1 < len(m.syncAccounts) {
			m.syncCursor++
		}
	case "enter", "s":
		if m.syncCursor >= 0 && m.syncCursor < len(m.syncAccounts) {
			return m, m.triggerSync(m.syncAccounts[m.syncCursor].Email)
		}
	case "S":
		return m, m.triggerSync("") // all accounts
	case "r":
		return m, emit(fetchSyncStatusMsg{})
	}
	return m, nil
}

func (m Model) handleAccountsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.accountsCursor > 0 {
			m.accountsCursor--
		}
	case "down", "j":
		if m.accountsCursor+1 < len(m.accounts) {
			m.accountsCursor++
		}
	case "a":
		m.addingEmail = true
		m.emailInput.SetValue("")
		m.emailInput.Focus()
	case "x":
		if m.accountsCursor >= 0 && m.accountsCursor < len(m.accounts) {
			m.confirmRemove = m.accounts[m.accountsCursor].Email
		}
	case "s":
		if m.accountsCursor >= 0 && m.accountsCursor < len(m.accounts) {
			return m, m.triggerSync(m.accounts[m.accountsCursor].Email)
		}
	}
	return m, nil
}

// handleEmailEntryKey captures keys for the new-account email prompt.
func (m Model) handleEmailEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.addingEmail = false
		m.emailInput.Blur()
		return m, nil
	case "enter":
		email := m.emailInput.Value()
		m.addingEmail = false
		m.emailInput.Blur()
		if !m.addAccount.start(email) {
			return m, nil
		}
		return m, m.oauthInit(email)
	}
	var cmd tea.Cmd
	m.emailInput, cmd = m.emailInput.Update(msg)
	return m, cmd
}

// handleAddAccountKey drives the device-flow overlay. Polling is manual.
func (m Model) handleAddAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Cancel from any phase; in-flight results will find an idle machine.
		m.addAccount.reset()
		return m, nil
	case "p", "enter":
		if m.addAccount.canPoll() {
			return m, emit(pollDeviceFlowMsg{})
		}
	case "o":
		if m.addAccount.verificationURL != "" {
			return m, openBrowser(m.addAccount.verificationURL)
		}
	}
	return m, nil
}

// handleSettingsKey edits and saves the client configuration.
func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.nav.Pop() {
			return m, m.refetchForCurrentView()
		}
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.settingsFocus = 1 - m.settingsFocus
		if m.settingsFocus == 0 {
			m.serverInput.Focus()
			m.apiKeyInput.Blur()
		} else {
			m.serverInput.Blur()
			m.apiKeyInput.Focus()
		}
		return m, nil
	case "enter":
		return m.saveSettings()
	}
	var cmd tea.Cmd
	if m.settingsFocus == 0 {
		m.serverInput, cmd = m.serverInput.Update(msg)
	} else {
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
	}
	return m, cmd
}

// saveSettings persists the edited configuration, rebuilds the client, and
// re-runs the connection flow.
func (m Model) saveSettings() (tea.Model, tea.Cmd) {
	m.settings.ServerURL = m.serverInput.Value()
	m.settings.APIKey = m.apiKeyInput.Value()

	if err := m.reconnect(); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	if m.settingsPath != "" {
		if err := config.Save(m.settingsPath, &m.settings); err != nil {
			return m, m.flash("Could not save settings: " + err.Error())
		}
	}
	m.nav.Pop()
	// The view under the settings screen holds the old server's data.
	return m, tea.Batch(m.flash("Settings saved"), emit(checkHealthMsg{}), m.refetchForCurrentView())
}

// handleComposeKey drives the compose modal.
func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.compose.close()
		return m, nil
	case "ctrl+s":
		if !m.compose.canSend() {
			return m, nil
		}
		m.compose.sending = true
		m.compose.sendError = ""
		return m, m.sendMessage(m.compose.sendRequest())
	case "tab":
		m.focusComposeField((m.compose.focus + 1) % 4)
		return m, nil
	case "shift+tab":
		m.focusComposeField((m.compose.focus + 3) % 4)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.compose.focus {
	case fieldTo:
		m.compose.toInput, cmd = m.compose.toInput.Update(msg)
	case fieldCc:
		m.compose.ccInput, cmd = m.compose.ccInput.Update(msg)
	case fieldSubject:
		m.compose.subjectInput, cmd = m.compose.subjectInput.Update(msg)
	case fieldBody:
		m.compose.bodyInput, cmd = m.compose.bodyInput.Update(msg)
	}
	m.compose.dirty = true
	return m, cmd
}

// focusComposeField moves focus within the compose form.
func (m *Model) focusComposeField(f composeField) {
	m.compose.focus = f
	m.compose.toInput.Blur()
	m.compose.ccInput.Blur()
	m.compose.subjectInput.Blur()
	m.compose.bodyInput.Blur()
	switch f {
	case fieldTo:
		m.compose.toInput.Focus()
	case fieldCc:
		m.compose.ccInput.Focus()
	case fieldSubject:
		m.compose.subjectInput.Focus()
	case fieldBody:
		m.compose.bodyInput.Focus()
	}
}

// composeFrom picks the sending address: the first configured account.
func (m Model) composeFrom() string {
	if len(m.accounts) > 0 {
		return m.accounts[0].Email
	}
	return ""
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"vaultview/internal/api"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	// Spinner style - NOT faint so it's visible
	spinnerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	separatorStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	// Cursor row: subtle lighter background
	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	faintStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Background(bgBase)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}).
			Background(bgBase)
)

// View renders the whole screen for the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 80
	}

	if !m.status.connected() {
		if _, ok := m.nav.Current().(SettingsView); ok {
			return m.renderShell(width, m.renderSettings(width))
		}
		return m.renderConnectionScreen(width)
	}

	if m.confirmQuit {
		return m.renderShell(width, m.renderConfirm("A download is still running. Quit anyway?"))
	}
	if m.confirmRemove != "" {
		return m.renderShell(width, m.renderConfirm("Remove account "+m.confirmRemove+"?"))
	}
	if m.compose.open {
		return m.renderShell(width, m.renderCompose(width))
	}
	if m.addingEmail || m.addAccount.active() {
		return m.renderShell(width, m.renderAddAccount(width))
	}
	if m.showHelp {
		return m.renderShell(width, m.renderHelp())
	}

	var body string
	switch m.nav.Current().(type) {
	case DashboardView:
		body = m.renderDashboard(width)
	case AggregatesView, SubAggregatesView:
		body = m.renderAggregates(width)
	case MessagesView:
		body = m.renderMessages(width)
	case MessageDetailView:
		body = m.renderDetail(width)
	case ThreadView:
		body = m.renderThread(width)
	case SearchView:
		body = m.renderSearch(width)
	case SyncView:
		body = m.renderSync(width)
	case AccountsView:
		body = m.renderAccounts(width)
	case SettingsView:
		body = m.renderSettings(width)
	}
	return m.renderShell(width, body)
}

// renderShell wraps body with the title bar, breadcrumb trail and footer.
func (m Model) renderShell(width int, body string) string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar(width))
	b.WriteByte('\n')
	b.WriteString(m.buildBreadcrumbs(width))
	b.WriteByte('\n')
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(m.buildFooter(width))
	return b.String()
}

func (m Model) buildTitleBar(width int) string {
	title := "vaultview"
	if m.version != "" && m.version != "dev" {
		title = fmt.Sprintf("vaultview [%s]", m.version)
	}
	right := ""
	if m.status.connected() && m.settings.ServerURL != "" {
		right = m.settings.ServerURL
	}
	gap := width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
		right = ""
	}
	return titleBarStyle.Render(title + strings.Repeat(" ", gap) + right)
}

// buildBreadcrumbs renders the trail with 1-based jump digits for history
// entries. The current view carries no digit; it is where the user already is.
func (m Model) buildBreadcrumbs(width int) string {
	crumbs := m.nav.Breadcrumbs()
	parts := make([]string, 0, len(crumbs))
	for i, c := range crumbs {
		if i < len(crumbs)-1 {
			parts = append(parts, fmt.Sprintf("[%d] %s", i+1, c.Label))
		} else {
			parts = append(parts, c.Label)
		}
	}
	return breadcrumbStyle.Render(truncateRunes(strings.Join(parts, " → "), width-2))
}

func (m Model) buildFooter(width int) string {
	var left string
	switch {
	case m.errMsg != "":
		left = errorStyle.Render("Error: " + truncateRunes(m.errMsg, width-20))
	case m.flashMessage != "":
		left = flashStyle.Render(truncateRunes(m.flashMessage, width-20))
	case m.loading:
		left = spinnerStyle.Render(spinnerFrames[m.spinnerFrame]) + " Loading..."
	default:
		left = m.footerHints()
	}
	right := ""
	if n := len(m.selection); n > 0 {
		right = fmt.Sprintf("%d selected", n)
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
		right = ""
	}
	return footerStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// footerHints returns the key hints for the current view.
func (m Model) footerHints() string {
	switch m.nav.Current().(type) {
	case DashboardView:
		return "a:browse  m:messages  /:search  y:sync  A:accounts  ?:help  q:quit"
	case AggregatesView, SubAggregatesView:
		return "enter:drill  u:group  s:sort  r:direction  tab:dimension  esc:back"
	case MessagesView:
		return "enter:open  space:select  n/p:page  T:thread  esc:back"
	case MessageDetailView:
		return "1-9:attachment  r:reply  R:reply-all  f:forward  T:thread  esc:back"
	case ThreadView:
		return "j/k:focus  enter:expand  e:all  c:none  esc:back"
	case SearchView:
		return "i:edit query  tab:mode  enter:open  n/p:page  esc:back"
	case SyncView:
		return "enter:sync account  S:sync all  r:refresh  esc:back"
	case AccountsView:
		return "a:add  x:remove  s:sync  esc:back"
	case SettingsView:
		return "tab:field  enter:save  esc:back"
	}
	return "?:help  q:quit"
}

// renderConnectionScreen covers connecting and failed states before the main
// UI is available.
func (m Model) renderConnectionScreen(width int) string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar(width))
	b.WriteString("\n\n")
	switch m.status.phase {
	case connConnecting:
		b.WriteString("  " + spinnerStyle.Render(spinnerFrames[m.spinnerFrame]))
		b.WriteString(" Connecting to " + m.settings.ServerURL + "...\n")
	case connFailed:
		b.WriteString("  " + errorStyle.Render("Cannot reach the archive server") + "\n\n")
		b.WriteString("  " + truncateRunes(m.status.reason, width-4) + "\n\n")
		b.WriteString(footerStyle.Render("r:retry  ,:settings  q:quit"))
		b.WriteByte('\n')
	default:
		b.WriteString("  Starting...\n")
	}
	return b.String()
}

func (m Model) renderDashboard(width int) string {
	if m.stats == nil {
		return faintStyle.Render("  Loading archive statistics...") + "\n"
	}
	s := m.stats
	rows := []struct {
		label string
		value string
	}{
		{"Messages", formatCount(s.TotalMessages)},
		{"Threads", formatCount(s.TotalThreads)},
		{"Accounts", fmt.Sprintf("%d", s.TotalAccounts)},
		{"Labels", fmt.Sprintf("%d", s.TotalLabels)},
		{"Attachments", formatCount(s.TotalAttachments)},
		{"Archive size", formatBytes(s.DatabaseSize)},
	}
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render("  Archive") + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", min(width-4, 40))) + "\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n", padRight(r.label, 14), r.value))
	}
	return b.String()
}

func (m Model) renderAggregates(width int) string {
	header := fmt.Sprintf("  %s %s %s %s",
		padRight(m.currentAggregateType().DisplayName(), width-40),
		padRight("Count", 10),
		padRight("Size", 12),
		"Attach")
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(truncateRunes(header, width)) + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")

	if len(m.aggRows) == 0 && !m.loading {
		b.WriteString(faintStyle.Render("  No data") + "\n")
		return b.String()
	}

	start, end := windowBounds(m.aggCursor, len(m.aggRows), m.pageSize)
	for i := start; i < end; i++ {
		row := m.aggRows[i]
		line := fmt.Sprintf("  %s %s %s %s",
			padRight(truncateRunes(row.Key, width-42), width-40),
			padRight(formatCount(row.Count), 10),
			padRight(formatBytes(row.TotalSize), 12),
			formatBytes(row.AttachmentSize))
		line = padRight(line, width)
		if i == m.aggCursor {
			b.WriteString(cursorRowStyle.Render(line))
		} else {
			b.WriteString(normalRowStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %d rows  sort:%s/%s", len(m.aggRows), m.sortField, m.sortDir)) + "\n")
	return b.String()
}

func (m Model) renderMessages(width int) string {
	var b strings.Builder
	header := fmt.Sprintf("    %s %s %s %s",
		padRight("Date", 10),
		padRight("From", 28),
		padRight("Subject", width-58),
		"Size")
	b.WriteString(tableHeaderStyle.Render(truncateRunes(header, width)) + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")

	if len(m.messages) == 0 && !m.loading {
		b.WriteString(faintStyle.Render("  No messages") + "\n")
		return b.String()
	}

	start, end := windowBounds(m.msgCursor, len(m.messages), m.pageSize)
	for i := start; i < end; i++ {
		msg := m.messages[i]
		b.WriteString(m.renderMessageRow(msg, width, i == m.msgCursor))
		b.WriteByte('\n')
	}

	page := m.msgFilter.Offset/messagePageSize + 1
	pages := int((m.msgTotal + messagePageSize - 1) / messagePageSize)
	if pages < 1 {
		pages = 1
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("  page %d/%d  %s messages", page, pages, formatCount(m.msgTotal))) + "\n")
	return b.String()
}

// renderMessageRow is shared by the message list and search results.
func (m Model) renderMessageRow(msg api.MessageSummary, width int, atCursor bool) string {
	mark := " "
	if m.selection[msg.ID] {
		mark = "✓"
	}
	attach := " "
	if msg.HasAttachments {
		attach = "@"
	}
	from := msg.FromName
	if from == "" {
		from = msg.From
	}
	line := fmt.Sprintf("  %s%s%s %s %s %s",
		mark, attach,
		padRight(formatDate(msg.SentAt), 10),
		padRight(truncateRunes(from, 28), 28),
		padRight(truncateRunes(msg.Subject, width-58), width-58),
		formatBytes(msg.SizeBytes))
	line = padRight(line, width)
	switch {
	case atCursor:
		return cursorRowStyle.Render(line)
	case m.selection[msg.ID]:
		return selectedRowStyle.Render(line)
	default:
		return normalRowStyle.Render(line)
	}
}

func (m Model) renderDetail(width int) string {
	if m.detail == nil {
		return faintStyle.Render("  Loading message...") + "\n"
	}
	d := m.detail
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render("  "+truncateRunes(d.Subject, width-4)) + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")
	b.WriteString("  From: " + truncateRunes(d.From, width-10) + "\n")
	b.WriteString("  To:   " + formatAddressList(d.To, width-10) + "\n")
	if len(d.Cc) > 0 {
		b.WriteString("  Cc:   " + formatAddressList(d.Cc, width-10) + "\n")
	}
	b.WriteString("  Date: " + d.SentAt.Format("Mon, 2 Jan 2006 15:04") + "\n")
	if len(d.Labels) > 0 {
		b.WriteString("  Labels: " + truncateRunes(strings.Join(d.Labels, ", "), width-12) + "\n")
	}

	if len(d.Attachments) > 0 {
		b.WriteString("\n")
		b.WriteString(tableHeaderStyle.Render("  Attachments") + "\n")
		for i, att := range d.Attachments {
			b.WriteString(fmt.Sprintf("  [%d] %s (%s)%s\n",
				i+1,
				truncateRunes(att.Filename, width-30),
				formatBytes(att.SizeBytes),
				m.attachmentStatus(d.ID, i)))
		}
	}

	b.WriteString("\n")
	limit := m.pageSize
	lines := wrapText(d.Body, width-4)
	for i, line := range lines {
		if i >= limit {
			b.WriteString(faintStyle.Render(fmt.Sprintf("  ... %d more lines", len(lines)-limit)) + "\n")
			break
		}
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// attachmentStatus renders the download state suffix for one attachment.
func (m Model) attachmentStatus(messageID int64, index int) string {
	switch st := m.downloads.get(messageID, index); st.phase {
	case downloadActive:
		return "  downloading " + formatPercent(st.progress)
	case downloadComplete:
		return "  saved → " + st.path
	case downloadFailed:
		return "  failed: " + st.errMsg
	default:
		return ""
	}
}

func (m Model) renderThread(width int) string {
	if m.thread.loading || len(m.thread.messages) == 0 {
		return faintStyle.Render("  Loading thread...") + "\n"
	}
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("  Thread (%d messages)", len(m.thread.messages))) + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")
	for i, msg := range m.thread.messages {
		marker := "▸"
		if m.thread.isExpanded(i) {
			marker = "▾"
		}
		head := fmt.Sprintf("  %s %s  %s  %s",
			marker,
			padRight(formatDate(msg.SentAt), 10),
			padRight(truncateRunes(msg.From, 30), 30),
			truncateRunes(msg.Subject, width-50))
		head = padRight(head, width)
		if i == m.thread.focused {
			b.WriteString(cursorRowStyle.Render(head))
		} else {
			b.WriteString(normalRowStyle.Render(head))
		}
		b.WriteByte('\n')
		if m.thread.isExpanded(i) {
			for _, line := range wrapText(msg.Body, width-8) {
				b.WriteString("      " + line + "\n")
			}
		}
	}
	return b.String()
}

func (m Model) renderSearch(width int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Search [%s]: %s\n", m.searchMode.DisplayName(), m.searchInput.View()))
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")

	if len(m.searchResults) == 0 {
		if m.searchTotal == 0 && m.searchInput.Value() != "" && !m.loading && !m.searchInput.Focused() {
			b.WriteString(faintStyle.Render("  No results") + "\n")
		}
		return b.String()
	}

	start, end := windowBounds(m.searchCursor, len(m.searchResults), m.pageSize)
	for i := start; i < end; i++ {
		b.WriteString(m.renderMessageRow(m.searchResults[i], width, i == m.searchCursor && !m.searchInput.Focused()))
		b.WriteByte('\n')
	}
	page := m.searchOffset/messagePageSize + 1
	pages := int((m.searchTotal + messagePageSize - 1) / messagePageSize)
	if pages < 1 {
		pages = 1
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("  page %d/%d  %s results", page, pages, formatCount(m.searchTotal))) + "\n")
	return b.String()
}

func (m Model) renderSync(width int) string {
	var b strings.Builder
	state := "idle"
	if m.syncRunning {
		state = "running"
	}
	b.WriteString(tableHeaderStyle.Render("  Sync status: "+state) + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")
	if len(m.syncAccounts) == 0 {
		b.WriteString(faintStyle.Render("  No accounts") + "\n")
		return b.String()
	}
	for i, acc := range m.syncAccounts {
		line := fmt.Sprintf("  %s %s %s",
			padRight(truncateRunes(acc.Email, 36), 36),
			padRight(acc.Status.DisplayName(), 10),
			padRight("last: "+orDash(acc.LastSyncAt), 28))
		if acc.Error != "" {
			line += " " + truncateRunes(acc.Error, 30)
		}
		line = padRight(line, width)
		if i == m.syncCursor {
			b.WriteString(cursorRowStyle.Render(line))
		} else {
			b.WriteString(normalRowStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) renderAccounts(width int) string {
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render("  Accounts") + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")
	if len(m.accounts) == 0 {
		b.WriteString(faintStyle.Render("  No accounts linked. Press a to add one.") + "\n")
		return b.String()
	}
	for i, acc := range m.accounts {
		status := "enabled"
		if !acc.Enabled {
			status = "disabled"
		}
		line := fmt.Sprintf("  %s %s %s",
			padRight(truncateRunes(acc.Email, 36), 36),
			padRight(status, 10),
			"last sync: "+orDash(acc.LastSyncAt))
		line = padRight(line, width)
		if i == m.accountsCursor {
			b.WriteString(cursorRowStyle.Render(line))
		} else {
			b.WriteString(normalRowStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderAddAccount shows the email prompt or the device-flow overlay.
func (m Model) renderAddAccount(width int) string {
	var body strings.Builder
	body.WriteString(modalTitleStyle.Render("Link account") + "\n\n")
	switch {
	case m.addingEmail:
		body.WriteString("Email: " + m.emailInput.View() + "\n\n")
		body.WriteString(faintStyle.Render("enter:continue  esc:cancel"))
	case m.addAccount.phase == phaseInitiating:
		body.WriteString(spinnerStyle.Render(spinnerFrames[m.spinnerFrame]) + " Contacting server...\n\n")
		body.WriteString(faintStyle.Render("esc:cancel"))
	case m.addAccount.errMsg != "":
		body.WriteString(errorStyle.Render(m.addAccount.errMsg) + "\n\n")
		body.WriteString(faintStyle.Render("esc:close"))
	default:
		body.WriteString("Visit " + m.addAccount.verificationURL + "\n")
		body.WriteString("and enter the code: " + modalTitleStyle.Render(m.addAccount.userCode) + "\n\n")
		if m.addAccount.phase == phasePolling {
			body.WriteString("Waiting for authorization...\n\n")
		} else if m.addAccount.pollInterval > 0 {
			body.WriteString(faintStyle.Render(fmt.Sprintf("check again in %ds", m.addAccount.pollInterval)) + "\n\n")
		}
		body.WriteString(faintStyle.Render("p:check status  o:open browser  esc:cancel"))
	}
	return modalStyle.Render(truncateLines(body.String(), width-6)) + "\n"
}

func (m Model) renderSettings(width int) string {
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render("  Settings") + "\n")
	b.WriteString(separatorStyle.Render("  "+strings.Repeat("─", max(width-4, 10))) + "\n")
	b.WriteString("  Server URL: " + m.serverInput.View() + "\n")
	b.WriteString("  API key:    " + m.apiKeyInput.View() + "\n")
	if m.settingsPath != "" {
		b.WriteString(faintStyle.Render("  stored at "+m.settingsPath) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("  "+m.errMsg) + "\n")
	}
	return b.String()
}

func (m Model) renderCompose(width int) string {
	c := m.compose
	var body strings.Builder
	body.WriteString(modalTitleStyle.Render(c.mode.displayName()) + "\n\n")
	body.WriteString("From:    " + c.from + "\n")
	body.WriteString("To:      " + c.toInput.View() + "\n")
	body.WriteString("Cc:      " + c.ccInput.View() + "\n")
	body.WriteString("Subject: " + c.subjectInput.View() + "\n\n")
	body.WriteString(c.bodyInput.View() + "\n\n")
	switch {
	case c.sending:
		body.WriteString(spinnerStyle.Render(spinnerFrames[m.spinnerFrame]) + " Sending...")
	case c.sendError != "":
		body.WriteString(errorStyle.Render(c.sendError) + "\n")
		body.WriteString(faintStyle.Render("ctrl+s:retry  esc:discard"))
	default:
		body.WriteString(faintStyle.Render("tab:next field  ctrl+s:send  esc:discard"))
	}
	return modalStyle.Render(truncateLines(body.String(), width-6)) + "\n"
}

func (m Model) renderConfirm(question string) string {
	body := modalTitleStyle.Render(question) + "\n\n" +
		faintStyle.Render("y:confirm  any other key:cancel")
	return modalStyle.Render(body) + "\n"
}

func (m Model) renderHelp() string {
	help := `Navigation
  1-9        jump to breadcrumb
  esc        back
  a          browse aggregates     m  all messages
  /          search                y  sync status
  A          accounts              ,  settings
  c          compose               q  quit

Lists
  j/k        move cursor           enter  open
  n/p        next/previous page    space  select

Message
  1-9        download / open attachment
  r/R/f      reply / reply all / forward
  T          open thread`
	return modalStyle.Render(help) + "\n"
}

// windowBounds computes the visible slice of a list so the cursor stays on
// screen.
func windowBounds(cursor, total, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	start := 0
	if cursor >= pageSize {
		start = cursor - pageSize + 1
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

// truncateLines clamps every line of a block to maxWidth cells, preserving
// ANSI sequences.
func truncateLines(s string, maxWidth int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, maxWidth, "")
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

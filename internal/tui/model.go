// Package tui implements the vaultview terminal client: a single model
// updated by a pure reducer, with all I/O pushed into commands.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"vaultview/internal/api"
	"vaultview/internal/config"
	"vaultview/internal/sysopen"
)

// connPhase is the coarse connection state with the server.
type connPhase int

const (
	connUnknown connPhase = iota
	connConnecting
	connConnected
	connFailed
)

// connectionStatus pairs the phase with the failure reason when connFailed.
type connectionStatus struct {
	phase  connPhase
	reason string
}

func (c connectionStatus) connected() bool { return c.phase == connConnected }

// Options configures the TUI.
type Options struct {
	Client       *api.Client
	Settings     *config.Settings
	SettingsPath string
	DownloadDir  string
	Version      string
}

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// flashDuration is how long flash messages are displayed.
const flashDuration = 4 * time.Second

// timeNow is swapped out in tests that exercise flash expiry.
var timeNow = time.Now

// messagePageSize is the page length for message lists and search results.
const messagePageSize = 50

// Model is the session state: the single root value threaded through every
// Update call. Exactly one cache is active per current view; stale data in
// inactive caches is tolerated and lazily overwritten on re-entry.
type Model struct {
	client       *api.Client
	settings     config.Settings
	settingsPath string
	downloadDir  string
	version      string

	// notify lets long-running commands re-emit progress events through the
	// running program. Nil until the program starts (and in tests).
	notify func(tea.Msg)

	status connectionStatus
	nav    *NavStack

	// Dashboard cache.
	stats *api.Stats

	// Aggregates cache.
	aggRows     []api.AggregateRow
	aggCursor   int
	sortField   api.SortField
	sortDir     api.SortDirection
	granularity api.TimeGranularity

	// Message list cache.
	messages  []api.MessageSummary
	msgCursor int
	msgFilter api.MessageFilter
	msgTotal  int64

	// Message detail cache.
	detail *api.MessageDetail

	// Search cache.
	searchInput   textinput.Model
	searchMode    api.SearchMode
	searchResults []api.MessageSummary
	searchTotal   int64
	searchOffset  int
	searchCursor  int

	// Sync cache.
	syncAccounts []api.AccountSyncStatus
	syncCursor   int
	syncRunning  bool

	// Accounts cache and account-linking machine.
	accounts       []api.AccountInfo
	accountsCursor int
	addAccount     addAccountState
	emailInput     textinput.Model
	addingEmail    bool // email input active

	// Settings screen inputs.
	serverInput   textinput.Model
	apiKeyInput   textinput.Model
	settingsFocus int // 0 = server URL, 1 = API key

	// Sub-states.
	thread    threadState
	downloads downloadTracker
	compose   composeState
	selection map[int64]bool

	// Pending confirmations.
	confirmQuit   bool
	confirmRemove string // email awaiting removal confirmation

	// Transient UI state.
	loading       bool
	errMsg        string
	spinnerFrame  int
	spinnerActive bool
	flashMessage  string
	flashExpires  time.Time
	width         int
	height        int
	pageSize      int
	showHelp      bool
	quitting      bool
}

// New creates the model. The client may be nil when no server is configured
// yet; the settings screen can still be used to enter one.
func New(opts Options) Model {
	search := textinput.New()
	search.Placeholder = "search (tab: deep)"
	search.CharLimit = 200
	search.Width = 50

	email := textinput.New()
	email.Placeholder = "account email"
	email.CharLimit = 128

	server := textinput.New()
	server.Placeholder = "https://server:8080"
	server.CharLimit = 256

	apiKey := textinput.New()
	apiKey.Placeholder = "API key (optional)"
	apiKey.CharLimit = 256
	apiKey.EchoMode = textinput.EchoPassword

	settings := config.Settings{}
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	server.SetValue(settings.ServerURL)
	apiKey.SetValue(settings.APIKey)

	return Model{
		client:       opts.Client,
		settings:     settings,
		settingsPath: opts.SettingsPath,
		downloadDir:  opts.DownloadDir,
		version:      opts.Version,
		nav:          NewNavStack(),
		sortField:    api.SortByCount,
		sortDir:      api.SortDesc,
		granularity:  api.TimeMonth,
		searchInput:  search,
		emailInput:   email,
		serverInput:  server,
		apiKeyInput:  apiKey,
		downloads:    newDownloadTracker(),
		selection:    make(map[int64]bool),
		msgFilter:    api.MessageFilter{All: true, Limit: messagePageSize},
		pageSize:     20,
	}
}

// SetNotify installs the hook used to re-emit progress events from inside
// running commands. Call it with tea.Program.Send once the program exists.
func (m *Model) SetNotify(send func(tea.Msg)) { m.notify = send }

// Init implements tea.Model: the first thing the client does is check health.
func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return emit(checkHealthMsg{})
}

// spinnerTick fires the next spinner frame.
func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner marks loading and returns a tick command unless one is
// already running.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	m.spinnerFrame = 0
	return spinnerTick()
}

// flash shows a transient status-bar notification.
func (m *Model) flash(text string) tea.Cmd {
	m.flashMessage = text
	m.flashExpires = timeNow().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// --- Commands -------------------------------------------------------------
//
// Each command closes over the parameters it needs, performs one client call
// outside the reducer, and returns exactly one result message.

func (m Model) checkHealth() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		h, err := client.Health(context.Background())
		return healthCheckedMsg{health: h, err: err}
	}
}

func (m Model) loadStats() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		s, err := client.Stats(context.Background())
		return statsLoadedMsg{stats: s, err: err}
	}
}

// aggregateOptions derives the query for the current aggregate view.
func (m Model) aggregateOptions() (api.AggregateOptions, bool) {
	switch v := m.nav.Current().(type) {
	case AggregatesView:
		return api.AggregateOptions{
			View:        v.Type,
			Sort:        m.sortField,
			Dir:         m.sortDir,
			Granularity: m.granularity,
		}, true
	case SubAggregatesView:
		return api.AggregateOptions{
			View:        v.Type,
			Sort:        m.sortField,
			Dir:         m.sortDir,
			Granularity: m.granularity,
			ParentView:  v.ParentType,
			ParentKey:   v.ParentKey,
			SubGroup:    true,
		}, true
	}
	return api.AggregateOptions{}, false
}

func (m Model) loadAggregates() tea.Cmd {
	opts, ok := m.aggregateOptions()
	if !ok {
		return nil
	}
	client := m.client
	return func() tea.Msg {
		r, err := client.Aggregates(context.Background(), opts)
		return aggregatesLoadedMsg{result: r, err: err}
	}
}

func (m Model) loadMessages() tea.Cmd {
	client := m.client
	filter := m.msgFilter
	return func() tea.Msg {
		p, err := client.ListMessages(context.Background(), filter)
		return messagesLoadedMsg{page: p, err: err}
	}
}

func (m Model) loadMessageDetail(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		d, err := client.GetMessage(context.Background(), id)
		return messageDetailLoadedMsg{detail: d, err: err}
	}
}

func (m Model) loadThread(threadID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		t, err := client.GetThread(context.Background(), threadID)
		return threadLoadedMsg{thread: t, err: err}
	}
}

func (m Model) loadSearch(query string, offset int) tea.Cmd {
	client := m.client
	mode := m.searchMode
	return func() tea.Msg {
		r, err := client.Search(context.Background(), query, mode, offset, messagePageSize)
		return searchResultsMsg{result: r, offset: offset, err: err}
	}
}

func (m Model) loadSyncStatus() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		s, err := client.SyncStatus(context.Background())
		return syncStatusLoadedMsg{status: s, err: err}
	}
}

func (m Model) triggerSync(email string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.TriggerSync(context.Background(), email)
		return syncTriggeredMsg{email: email, err: err}
	}
}

func (m Model) loadAccounts() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		a, err := client.ListAccounts(context.Background())
		return accountsLoadedMsg{accounts: a, err: err}
	}
}

func (m Model) removeAccount(email string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.RemoveAccount(context.Background(), email)
		return accountRemovedMsg{email: email, err: err}
	}
}

func (m Model) oauthInit(email string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		oi, err := client.OAuthInit(context.Background(), email)
		return oauthInitiatedMsg{init: oi, err: err}
	}
}

func (m Model) oauthPoll(email string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		st, err := client.OAuthPoll(context.Background(), email)
		return devicePollResultMsg{status: st, err: err}
	}
}

func (m Model) sendMessage(req api.SendRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.SendMessage(context.Background(), req)
		return sendFinishedMsg{err: err}
	}
}

// openBrowser hands a URL to the OS default handler.
func openBrowser(url string) tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg{err: sysopen.URL(url)}
	}
}

// openFile hands a downloaded file to the OS default handler.
func openFile(path string) tea.Cmd {
	return func() tea.Msg {
		return fileOpenedMsg{err: sysopen.File(path)}
	}
}

// downloadTimeout bounds the one long-running command in the client.
const downloadTimeout = 5 * time.Minute

// downloadAttachment streams one attachment. Progress is re-emitted through
// the notify hook while the command runs; the returned message is final.
func (m Model) downloadAttachment(messageID int64, index int, filename string) tea.Cmd {
	client := m.client
	destDir := m.downloadDir
	notify := m.notify
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
		defer cancel()

		var progress api.ProgressFunc
		if notify != nil {
			progress = func(f float64) {
				notify(downloadProgressMsg{messageID: messageID, index: index, fraction: f})
			}
		}

		path, err := client.DownloadAttachment(ctx, messageID, index, filename, destDir, progress)
		return downloadFinishedMsg{messageID: messageID, index: index, path: path, err: err}
	}
}

// reconnect rebuilds the client from the edited settings. Used by the
// settings screen before re-running the connection flow.
func (m *Model) reconnect() error {
	client, err := api.New(api.Config{
		URL:           m.settings.ServerURL,
		APIKey:        m.settings.APIKey,
		AllowInsecure: m.settings.AllowInsecure,
	})
	if err != nil {
		return err
	}
	m.client = client
	return nil
}

package api

import "time"

// Health is the response from GET /api/v1/health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Stats holds archive-wide statistics.
type Stats struct {
	TotalMessages    int64 `json:"total_messages"`
	TotalThreads     int64 `json:"total_threads"`
	TotalAccounts    int64 `json:"total_accounts"`
	TotalLabels      int64 `json:"total_labels"`
	TotalAttachments int64 `json:"total_attachments"`
	DatabaseSize     int64 `json:"database_size_bytes"`
}

// AggregateRow is a single row in an aggregate view.
type AggregateRow struct {
	Key             string `json:"key"`
	Count           int64  `json:"count"`
	TotalSize       int64  `json:"total_size"`
	AttachmentSize  int64  `json:"attachment_size"`
	AttachmentCount int64  `json:"attachment_count"`
	TotalUnique     int64  `json:"total_unique"`
}

// AggregateResult is the response from GET /api/v1/aggregates.
type AggregateResult struct {
	ViewType string         `json:"view_type"`
	Rows     []AggregateRow `json:"rows"`
}

// MessageSummary is a message as it appears in list responses.
type MessageSummary struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	From           string    `json:"from"`
	FromName       string    `json:"from_name,omitempty"`
	Snippet        string    `json:"snippet"`
	SentAt         time.Time `json:"sent_at"`
	SizeBytes      int64     `json:"size_bytes"`
	HasAttachments bool      `json:"has_attachments"`
	Labels         []string  `json:"labels,omitempty"`
	ThreadID       string    `json:"thread_id,omitempty"`
}

// Attachment is attachment metadata on a message detail.
type Attachment struct {
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// MessageDetail is the full message returned by GET /api/v1/messages/{id}.
type MessageDetail struct {
	ID          int64        `json:"id"`
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Cc          []string     `json:"cc,omitempty"`
	Bcc         []string     `json:"bcc,omitempty"`
	SentAt      time.Time    `json:"sent_at"`
	Body        string       `json:"body"`
	Labels      []string     `json:"labels,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ThreadID    string       `json:"thread_id,omitempty"`
}

// MessagePage is a paginated message list response.
type MessagePage struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Messages []MessageSummary `json:"messages"`
}

// SearchResult is the response from GET /api/v1/search.
type SearchResult struct {
	Query    string           `json:"query"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Messages []MessageSummary `json:"messages"`
}

// Thread is the response from GET /api/v1/threads/{id}: all messages in a
// conversation in chronological order.
type Thread struct {
	ThreadID string          `json:"thread_id"`
	Messages []MessageDetail `json:"messages"`
}

// AccountInfo describes a configured archive account.
type AccountInfo struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	LastSyncAt  string `json:"last_sync_at,omitempty"`
	NextSyncAt  string `json:"next_sync_at,omitempty"`
	Schedule    string `json:"schedule,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// SyncState is the sync status of a single account.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncRunning SyncState = "running"
	SyncPaused  SyncState = "paused"
	SyncError   SyncState = "error"
)

// DisplayName returns a human-readable name for the sync state.
func (s SyncState) DisplayName() string {
	switch s {
	case SyncRunning:
		return "Syncing"
	case SyncPaused:
		return "Paused"
	case SyncError:
		return "Error"
	default:
		return "Idle"
	}
}

// AccountSyncStatus is the sync status for one account.
type AccountSyncStatus struct {
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name,omitempty"`
	Status         SyncState `json:"status"`
	LastSyncAt     string    `json:"last_sync_at,omitempty"`
	NextSyncAt     string    `json:"next_sync_at,omitempty"`
	MessagesSynced int64     `json:"messages_synced,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// SyncStatus is the response from GET /api/v1/sync/status.
type SyncStatus struct {
	Running  bool                `json:"running"`
	Accounts []AccountSyncStatus `json:"accounts"`
}

// OAuthInit is the response from POST /api/v1/accounts/oauth/init.
type OAuthInit struct {
	AuthURL         string `json:"auth_url"`
	DeviceFlow      bool   `json:"device_flow"`
	UserCode        string `json:"user_code,omitempty"`
	VerificationURL string `json:"verification_url,omitempty"`
	PollInterval    int    `json:"poll_interval,omitempty"`
}

// DeviceFlowState is the state of a pending device authorization.
type DeviceFlowState string

const (
	DeviceFlowPending  DeviceFlowState = "pending"
	DeviceFlowComplete DeviceFlowState = "complete"
	DeviceFlowExpired  DeviceFlowState = "expired"
	DeviceFlowError    DeviceFlowState = "error"
)

// DeviceFlowStatus is the response from GET /api/v1/accounts/oauth/poll.
type DeviceFlowStatus struct {
	Status DeviceFlowState `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// ViewType identifies an aggregation dimension.
type ViewType int

const (
	ViewSenders ViewType = iota
	ViewSenderNames
	ViewRecipients
	ViewRecipientNames
	ViewDomains
	ViewLabels
	ViewTime
)

// viewTypeCount is the number of ViewType values, for cycling.
const viewTypeCount = 7

// String returns the API parameter value for the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSenders:
		return "senders"
	case ViewSenderNames:
		return "sender_names"
	case ViewRecipients:
		return "recipients"
	case ViewRecipientNames:
		return "recipient_names"
	case ViewDomains:
		return "domains"
	case ViewLabels:
		return "labels"
	case ViewTime:
		return "time"
	default:
		return "senders"
	}
}

// DisplayName returns a human-readable name for the view type.
func (v ViewType) DisplayName() string {
	switch v {
	case ViewSenders:
		return "Senders"
	case ViewSenderNames:
		return "Sender Names"
	case ViewRecipients:
		return "Recipients"
	case ViewRecipientNames:
		return "Recipient Names"
	case ViewDomains:
		return "Domains"
	case ViewLabels:
		return "Labels"
	case ViewTime:
		return "Time"
	default:
		return "Senders"
	}
}

// Next returns the following view type, wrapping around.
func (v ViewType) Next() ViewType {
	return (v + 1) % viewTypeCount
}

// Previous returns the preceding view type, wrapping around.
func (v ViewType) Previous() ViewType {
	return (v + viewTypeCount - 1) % viewTypeCount
}

// SortField identifies how aggregate rows are ordered.
type SortField int

const (
	SortByCount SortField = iota
	SortBySize
	SortByAttachmentSize
	SortByName
)

// String returns the API parameter value for the sort field.
func (f SortField) String() string {
	switch f {
	case SortBySize:
		return "size"
	case SortByAttachmentSize:
		return "attachment_size"
	case SortByName:
		return "name"
	default:
		return "count"
	}
}

// Next cycles to the following sort field.
func (f SortField) Next() SortField {
	return (f + 1) % 4
}

// SortDirection is the ordering direction.
type SortDirection int

const (
	SortDesc SortDirection = iota
	SortAsc
)

// String returns the API parameter value for the direction.
func (d SortDirection) String() string {
	if d == SortAsc {
		return "asc"
	}
	return "desc"
}

// Toggle flips the direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// TimeGranularity controls bucketing for the Time view.
type TimeGranularity int

const (
	TimeMonth TimeGranularity = iota
	TimeYear
	TimeDay
)

// String returns the API parameter value for the granularity.
func (g TimeGranularity) String() string {
	switch g {
	case TimeYear:
		return "year"
	case TimeDay:
		return "day"
	default:
		return "month"
	}
}

// Next cycles to the following granularity.
func (g TimeGranularity) Next() TimeGranularity {
	return (g + 1) % 3
}

// SearchMode selects between fast metadata search and deep body search.
type SearchMode int

const (
	SearchFast SearchMode = iota
	SearchDeep
)

// String returns the API parameter value for the search mode.
func (m SearchMode) String() string {
	if m == SearchDeep {
		return "deep"
	}
	return "fast"
}

// DisplayName returns a human-readable name for the search mode.
func (m SearchMode) DisplayName() string {
	if m == SearchDeep {
		return "Deep"
	}
	return "Fast"
}

// Toggle flips between fast and deep search.
func (m SearchMode) Toggle() SearchMode {
	if m == SearchFast {
		return SearchDeep
	}
	return SearchFast
}

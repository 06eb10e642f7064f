// Package api provides the HTTP client for a msgvault archive server.
//
// The client exposes one method per server endpoint. Every method returns a
// domain type or an *Error; callers never see raw transport errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client talks to a msgvault server over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds configuration for creating a client.
type Config struct {
	URL           string
	APIKey        string
	AllowInsecure bool
	Timeout       time.Duration
}

// New creates a client. HTTPS is required unless AllowInsecure is set.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, configErr(eris.New("server URL is required"))
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, configErr(eris.Wrap(err, "invalid server URL"))
	}

	if parsed.Scheme == "http" && !cfg.AllowInsecure {
		// Plain HTTP to localhost is always fine; discovery relies on it.
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return nil, configErr(eris.New("HTTPS required for remote connections (set allow_insecure for trusted networks)"))
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, configErr(eris.Errorf("URL scheme must be http or https, got %q", parsed.Scheme))
	}
	if parsed.Host == "" {
		return nil, configErr(eris.New("server URL must include a host"))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the server URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// doRequest performs an authenticated request against the API.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: err.Error(), cause: err}
	}

	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(err)
	}
	return resp, nil
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleErrorResponse converts a non-2xx response into an *Error.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return apiErr(resp.StatusCode, eb.Message)
	}
	return apiErr(resp.StatusCode, strings.TrimSpace(string(body)))
}

// getJSON performs a GET and decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apiErr(0, eris.Wrap(err, "invalid response body").Error())
	}
	return nil
}

// postJSON performs a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindRequest, Message: err.Error(), cause: err}
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return handleErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apiErr(0, eris.Wrap(err, "invalid response body").Error())
	}
	return nil
}

// Health checks server liveness. This is the first request made on startup.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/api/v1/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Stats fetches archive-wide statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.getJSON(ctx, "/api/v1/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AggregateOptions control an aggregate query.
type AggregateOptions struct {
	View        ViewType
	Sort        SortField
	Dir         SortDirection
	Granularity TimeGranularity
	Query       string // optional search filter

	// Set for sub-aggregates: group the messages matching the parent key by View.
	ParentView ViewType
	ParentKey  string
	SubGroup   bool
}

// Aggregates fetches aggregate rows for a view.
func (c *Client) Aggregates(ctx context.Context, opts AggregateOptions) (*AggregateResult, error) {
	q := url.Values{}
	q.Set("view", opts.View.String())
	q.Set("sort", opts.Sort.String())
	q.Set("dir", opts.Dir.String())
	if opts.View == ViewTime {
		q.Set("granularity", opts.Granularity.String())
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.SubGroup {
		q.Set("parent_view", opts.ParentView.String())
		q.Set("parent_key", opts.ParentKey)
	}

	var ar AggregateResult
	if err := c.getJSON(ctx, "/api/v1/aggregates?"+q.Encode(), &ar); err != nil {
		return nil, err
	}
	return &ar, nil
}

// MessageFilter selects which messages to list.
type MessageFilter struct {
	View        ViewType // dimension of Key
	Key         string   // aggregate key to filter by ("" with All=true lists everything)
	All         bool
	Granularity TimeGranularity
	Offset      int
	Limit       int
}

// Describe returns a human-readable description of the filter for titles.
func (f MessageFilter) Describe() string {
	if f.All || f.Key == "" {
		return "All Messages"
	}
	return f.Key
}

// queryParam returns the query parameter name for the filter dimension.
func (f MessageFilter) queryParam() string {
	switch f.View {
	case ViewSenders, ViewSenderNames:
		return "sender"
	case ViewRecipients, ViewRecipientNames:
		return "recipient"
	case ViewDomains:
		return "domain"
	case ViewLabels:
		return "label"
	case ViewTime:
		return "period"
	default:
		return "sender"
	}
}

// ListMessages fetches a page of messages matching the filter.
func (c *Client) ListMessages(ctx context.Context, f MessageFilter) (*MessagePage, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := (f.Offset / limit) + 1

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(limit))
	if !f.All && f.Key != "" {
		q.Set(f.queryParam(), f.Key)
		if f.View == ViewTime {
			q.Set("granularity", f.Granularity.String())
		}
	}

	var mp MessagePage
	if err := c.getJSON(ctx, "/api/v1/messages?"+q.Encode(), &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

// GetMessage fetches a single message with body and attachments.
func (c *Client) GetMessage(ctx context.Context, id int64) (*MessageDetail, error) {
	var md MessageDetail
	path := "/api/v1/messages/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, path, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// GetThread fetches all messages in a conversation.
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	var t Thread
	path := "/api/v1/threads/" + url.PathEscape(threadID)
	if err := c.getJSON(ctx, path, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Search searches messages. Offset is converted to page-aligned paging.
func (c *Client) Search(ctx context.Context, query string, mode SearchMode, offset, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	page := (offset / limit) + 1

	q := url.Values{}
	q.Set("q", query)
	q.Set("mode", mode.String())
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(limit))

	var sr SearchResult
	if err := c.getJSON(ctx, "/api/v1/search?"+q.Encode(), &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

// SyncStatus fetches the per-account sync status.
func (c *Client) SyncStatus(ctx context.Context) (*SyncStatus, error) {
	var ss SyncStatus
	if err := c.getJSON(ctx, "/api/v1/sync/status", &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// TriggerSync asks the server to start a sync for one account.
func (c *Client) TriggerSync(ctx context.Context, email string) error {
	path := "/api/v1/sync/" + url.PathEscape(email)
	return c.postJSON(ctx, path, nil, nil)
}

// ListAccounts fetches the configured accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]AccountInfo, error) {
	var resp struct {
		Accounts []AccountInfo `json:"accounts"`
	}
	if err := c.getJSON(ctx, "/api/v1/accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// OAuthInit starts account linking for the given email on the server.
func (c *Client) OAuthInit(ctx context.Context, email string) (*OAuthInit, error) {
	req := map[string]string{"email": email}
	var oi OAuthInit
	if err := c.postJSON(ctx, "/api/v1/accounts/oauth/init", req, &oi); err != nil {
		return nil, err
	}
	return &oi, nil
}

// OAuthPoll checks whether a pending device authorization has completed.
func (c *Client) OAuthPoll(ctx context.Context, email string) (*DeviceFlowStatus, error) {
	q := url.Values{}
	q.Set("email", email)
	var st DeviceFlowStatus
	if err := c.getJSON(ctx, "/api/v1/accounts/oauth/poll?"+q.Encode(), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// RemoveAccount deletes an account from the server.
func (c *Client) RemoveAccount(ctx context.Context, email string) error {
	path := "/api/v1/accounts/" + url.PathEscape(email)
	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return handleErrorResponse(resp)
	}
	return nil
}

// SendRequest is the payload for sending a message through the archive account.
type SendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	ReplyTo int64    `json:"reply_to_id,omitempty"`
}

// SendMessage submits an outgoing message.
func (c *Client) SendMessage(ctx context.Context, req SendRequest) error {
	return c.postJSON(ctx, "/api/v1/messages/send", req, nil)
}

// ProgressFunc receives download progress in the range 0..1. Total may be
// unknown (-1 fraction reported as 0 until completion).
type ProgressFunc func(fraction float64)

// DownloadAttachment streams an attachment to destDir, reporting progress.
// It returns the path of the written file.
func (c *Client) DownloadAttachment(ctx context.Context, messageID int64, index int, filename, destDir string, progress ProgressFunc) (string, error) {
	path := fmt.Sprintf("/api/v1/messages/%d/attachments/%d", messageID, index)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", handleErrorResponse(resp)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", configErr(eris.Wrap(err, "create download directory"))
	}

	dest := filepath.Join(destDir, filepath.Base(filename))
	out, err := os.Create(dest)
	if err != nil {
		return "", configErr(eris.Wrap(err, "create download file"))
	}
	defer out.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 64*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return "", configErr(eris.Wrap(werr, "write download file"))
			}
			written += int64(n)
			if progress != nil && total > 0 {
				progress(float64(written) / float64(total))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", &Error{Kind: KindRequest, Message: rerr.Error(), cause: rerr}
		}
	}

	if progress != nil {
		progress(1)
	}
	return dest, nil
}

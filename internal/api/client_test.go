package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_RejectsHTTPWithoutAllowInsecure(t *testing.T) {
	_, err := New(Config{URL: "http://nas:8080", APIKey: "key"})
	if err == nil {
		t.Fatal("New() should reject http:// to a non-loopback host without AllowInsecure")
	}
}

func TestNew_AllowsHTTPToLocalhost(t *testing.T) {
	c, err := New(Config{URL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c == nil {
		t.Fatal("New() returned nil client")
	}
}

func TestNew_AllowsHTTPWithAllowInsecure(t *testing.T) {
	c, err := New(Config{URL: "http://nas:8080", APIKey: "key", AllowInsecure: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c == nil {
		t.Fatal("New() returned nil client")
	}
}

func TestNew_RejectsEmptyURL(t *testing.T) {
	_, err := New(Config{APIKey: "key"})
	if err == nil {
		t.Fatal("New() should reject empty URL")
	}
}

func TestNew_RejectsInvalidScheme(t *testing.T) {
	_, err := New(Config{URL: "ftp://nas:8080"})
	if err == nil {
		t.Fatal("New() should reject ftp:// scheme")
	}
	if !strings.Contains(err.Error(), "http or https") {
		t.Errorf("error = %q, want mention of http or https", err.Error())
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New(Config{URL: "http://localhost:8080/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}

// newTestClient creates a Client pointing at the given httptest server.
func newTestClient(srv *httptest.Server, apiKey string) *Client {
	return &Client{
		baseURL:    srv.URL,
		apiKey:     apiKey,
		httpClient: srv.Client(),
	}
}

func TestHealth_SendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewEncoder(w).Encode(Health{Status: "ok"})
	}))
	defer srv.Close()

	c := newTestClient(srv, "secret")
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "ok" {
		t.Errorf("Status = %q, want ok", h.Status)
	}
	if gotKey != "secret" {
		t.Errorf("X-API-Key = %q, want secret", gotKey)
	}
}

func TestStats_DecodesResponse(t *testing.T) {
	want := &Stats{
		TotalMessages:    120000,
		TotalThreads:     45000,
		TotalAccounts:    2,
		TotalLabels:      31,
		TotalAttachments: 8000,
		DatabaseSize:     1 << 30,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stats" {
			t.Errorf("path = %q, want /api/v1/stats", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := newTestClient(srv, "").Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStats_APIErrorIncludesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "unauthorized",
			"message": "Invalid API key",
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "bad").Stats(context.Background())
	if err == nil {
		t.Fatal("Stats() should fail on 401")
	}
	ae, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if ae.Kind != KindAPI || ae.Status != http.StatusUnauthorized {
		t.Errorf("error = %+v, want KindAPI 401", ae)
	}
	if !strings.Contains(ae.Message, "Invalid API key") {
		t.Errorf("message = %q, want server message", ae.Message)
	}
}

func TestHealth_ConnectionRefusedIsConnectionError(t *testing.T) {
	// Port 1 is never listening.
	c, err := New(Config{URL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.Health(context.Background())
	if err == nil {
		t.Fatal("Health() should fail against a closed port")
	}
	if !IsConnectionError(err) {
		t.Errorf("err = %v, want connection error", err)
	}
}

func TestAggregates_BuildsQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(AggregateResult{ViewType: "senders"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").Aggregates(context.Background(), AggregateOptions{
		View: ViewSenders,
		Sort: SortBySize,
		Dir:  SortAsc,
	})
	if err != nil {
		t.Fatalf("Aggregates() error = %v", err)
	}
	for _, want := range []string{"view=senders", "sort=size", "dir=asc"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query = %q, want %q", gotQuery, want)
		}
	}
}

func TestAggregates_SubGroupParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(AggregateResult{ViewType: "labels"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").Aggregates(context.Background(), AggregateOptions{
		View:       ViewLabels,
		ParentView: ViewDomains,
		ParentKey:  "acme.com",
		SubGroup:   true,
	})
	if err != nil {
		t.Fatalf("Aggregates() error = %v", err)
	}
	for _, want := range []string{"parent_view=domains", "parent_key=acme.com"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query = %q, want %q", gotQuery, want)
		}
	}
}

func TestListMessages_PageAlignment(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(MessagePage{Total: 100, Page: 3, PageSize: 50})
	}))
	defer srv.Close()

	mp, err := newTestClient(srv, "").ListMessages(context.Background(), MessageFilter{
		View:   ViewSenders,
		Key:    "alice@example.com",
		Offset: 100,
		Limit:  50,
	})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if !strings.Contains(gotQuery, "page=3") {
		t.Errorf("query = %q, want page=3 for offset 100 limit 50", gotQuery)
	}
	if !strings.Contains(gotQuery, "sender=alice%40example.com") {
		t.Errorf("query = %q, want sender filter", gotQuery)
	}
	if mp.Total != 100 {
		t.Errorf("Total = %d, want 100", mp.Total)
	}
}

func TestSearch_ModeParam(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(SearchResult{Query: "invoice", Total: 2})
	}))
	defer srv.Close()

	sr, err := newTestClient(srv, "").Search(context.Background(), "invoice", SearchDeep, 0, 50)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !strings.Contains(gotQuery, "mode=deep") {
		t.Errorf("query = %q, want mode=deep", gotQuery)
	}
	if sr.Total != 2 {
		t.Errorf("Total = %d, want 2", sr.Total)
	}
}

func TestOAuthInit_PostsEmail(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(OAuthInit{
			AuthURL:         "https://accounts.example.com/device",
			DeviceFlow:      true,
			UserCode:        "ABCD-1234",
			VerificationURL: "https://example.com/activate",
		})
	}))
	defer srv.Close()

	oi, err := newTestClient(srv, "").OAuthInit(context.Background(), "me@example.com")
	if err != nil {
		t.Fatalf("OAuthInit() error = %v", err)
	}
	if gotBody["email"] != "me@example.com" {
		t.Errorf("posted email = %q", gotBody["email"])
	}
	if !oi.DeviceFlow || oi.UserCode != "ABCD-1234" {
		t.Errorf("OAuthInit = %+v, want device flow with user code", oi)
	}
}

func TestRemoveAccount_UsesDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv, "").RemoveAccount(context.Background(), "me@example.com"); err != nil {
		t.Fatalf("RemoveAccount() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotPath != "/api/v1/accounts/me@example.com" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestDownloadAttachment_WritesFileAndReportsProgress(t *testing.T) {
	payload := strings.Repeat("x", 128*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "131072")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	dir := t.TempDir()
	var fractions []float64
	path, err := newTestClient(srv, "").DownloadAttachment(
		context.Background(), 42, 0, "report.pdf", dir,
		func(f float64) { fractions = append(fractions, f) })
	if err != nil {
		t.Fatalf("DownloadAttachment() error = %v", err)
	}
	if filepath.Base(path) != "report.pdf" {
		t.Errorf("path = %q, want report.pdf in %q", path, dir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if len(data) != len(payload) {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}
	if len(fractions) == 0 {
		t.Fatal("no progress reported")
	}
	last := fractions[len(fractions)-1]
	if last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Errorf("progress went backwards at %d: %v < %v", i, fractions[i], fractions[i-1])
		}
	}
}

func TestDownloadAttachment_SanitizesFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := newTestClient(srv, "").DownloadAttachment(
		context.Background(), 1, 0, "../../evil.sh", dir, nil)
	if err != nil {
		t.Fatalf("DownloadAttachment() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q escaped destination dir %q", path, dir)
	}
}

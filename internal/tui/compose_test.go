package tui

import (
	"strings"
	"testing"
)

func TestReplySubject_PrefixesOnce(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Quarterly report", "Re: Quarterly report"},
		{"Re: Quarterly report", "Re: Quarterly report"},
		{"RE: shouting", "RE: shouting"},
		{"", "Re: "},
	}
	for _, tc := range cases {
		if got := replySubject(tc.in); got != tc.want {
			t.Errorf("replySubject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestForwardSubject_PrefixesOnce(t *testing.T) {
	if got := forwardSubject("Plans"); got != "Fwd: Plans" {
		t.Errorf("forwardSubject = %q", got)
	}
	if got := forwardSubject("Fwd: Plans"); got != "Fwd: Plans" {
		t.Errorf("forwardSubject double-prefixed: %q", got)
	}
}

func TestQuoteBody_PrefixesEveryLine(t *testing.T) {
	quoted := quoteBody("alice@acme.com", "Mar 14, 2024", "line one\nline two")
	if !strings.HasPrefix(quoted, "On Mar 14, 2024, alice@acme.com wrote:\n") {
		t.Fatalf("quote header missing: %q", quoted)
	}
	for _, line := range strings.Split(strings.TrimSuffix(quoted, "\n"), "\n")[1:] {
		if !strings.HasPrefix(line, "> ") {
			t.Errorf("unquoted line %q", line)
		}
	}
}

func TestOpenReply_TargetsSender(t *testing.T) {
	c := openReply("me@acme.com", sampleDetail(1))
	if c.toInput.Value() != "alice@acme.com" {
		t.Fatalf("reply to = %q, want sender", c.toInput.Value())
	}
	if !strings.HasPrefix(c.subjectInput.Value(), "Re: ") {
		t.Fatalf("reply subject = %q", c.subjectInput.Value())
	}
	if !strings.Contains(c.bodyInput.Value(), "> Please find the report attached.") {
		t.Fatal("reply body does not quote the original")
	}
	if c.replyToID != 1 {
		t.Fatalf("replyToID = %d", c.replyToID)
	}
}

func TestOpenReplyAll_IncludesRecipientsExceptSelf(t *testing.T) {
	src := sampleDetail(1)
	src.To = []string{"me@acme.com", "carol@acme.com"}
	src.Cc = []string{"dave@acme.com"}

	c := openReplyAll("me@acme.com", src)
	to := c.toInput.Value()
	if !strings.Contains(to, "alice@acme.com") || !strings.Contains(to, "carol@acme.com") {
		t.Fatalf("reply-all to = %q", to)
	}
	if strings.Contains(to, "me@acme.com") {
		t.Fatalf("reply-all includes self: %q", to)
	}
	if c.ccInput.Value() != "dave@acme.com" {
		t.Fatalf("reply-all cc = %q", c.ccInput.Value())
	}
}

func TestOpenForward_EmptyRecipients(t *testing.T) {
	c := openForward("me@acme.com", sampleDetail(1))
	if c.toInput.Value() != "" {
		t.Fatalf("forward pre-filled recipients: %q", c.toInput.Value())
	}
	if !strings.HasPrefix(c.subjectInput.Value(), "Fwd: ") {
		t.Fatalf("forward subject = %q", c.subjectInput.Value())
	}
	if !strings.Contains(c.bodyInput.Value(), "Forwarded message") {
		t.Fatal("forward body missing original")
	}
}

func TestRecipients_ParsesCommaList(t *testing.T) {
	got := recipients(" a@x.com, b@y.com ,, c@z.com ")
	want := []string{"a@x.com", "b@y.com", "c@z.com"}
	if len(got) != len(want) {
		t.Fatalf("recipients = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipients[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCanSend_RequiresRecipientAndNotInFlight(t *testing.T) {
	c := openNewCompose("me@acme.com")
	if c.canSend() {
		t.Error("empty draft reported sendable")
	}
	c.toInput.SetValue("bob@acme.com")
	if !c.canSend() {
		t.Error("draft with recipient not sendable")
	}
	c.sending = true
	if c.canSend() {
		t.Error("in-flight draft reported sendable")
	}
}

func TestSendRequest_MaterializesDraft(t *testing.T) {
	c := openReply("me@acme.com", sampleDetail(4))
	c.ccInput.SetValue("carol@acme.com")

	req := c.sendRequest()
	if req.From != "me@acme.com" {
		t.Errorf("From = %q", req.From)
	}
	if len(req.To) != 1 || req.To[0] != "alice@acme.com" {
		t.Errorf("To = %v", req.To)
	}
	if len(req.Cc) != 1 || req.Cc[0] != "carol@acme.com" {
		t.Errorf("Cc = %v", req.Cc)
	}
	if req.ReplyTo != 4 {
		t.Errorf("ReplyTo = %d", req.ReplyTo)
	}
}

func TestComposeClose_DiscardsEverything(t *testing.T) {
	c := openReply("me@acme.com", sampleDetail(1))
	c.close()
	if c.open || c.toInput.Value() != "" || c.replyToID != 0 {
		t.Fatalf("close left draft state: %+v", c)
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"vaultview/internal/api"
)

// composeMode distinguishes new messages from replies and forwards.
type composeMode int

const (
	composeNew composeMode = iota
	composeReply
	composeReplyAll
	composeForward
)

// displayName returns the modal title for the mode.
func (m composeMode) displayName() string {
	switch m {
	case composeReply:
		return "Reply"
	case composeReplyAll:
		return "Reply All"
	case composeForward:
		return "Forward"
	default:
		return "New Message"
	}
}

// composeField is the focused input within the compose form.
type composeField int

const (
	fieldTo composeField = iota
	fieldCc
	fieldSubject
	fieldBody
)

// composeState is the draft being edited. It is created empty or pre-filled
// from a source message and cleared entirely on send, discard, or close.
type composeState struct {
	open      bool
	mode      composeMode
	replyToID int64
	from      string
	to        []string
	cc        []string
	bcc       []string

	toInput      textinput.Model
	ccInput      textinput.Model
	subjectInput textinput.Model
	bodyInput    textarea.Model
	focus        composeField

	sending   bool
	sendError string
	dirty     bool
}

// newComposeInputs builds the form inputs shared by every compose mode.
func newComposeInputs() (textinput.Model, textinput.Model, textinput.Model, textarea.Model) {
	to := textinput.New()
	to.Placeholder = "to@example.com"
	to.CharLimit = 256
	cc := textinput.New()
	cc.Placeholder = "cc"
	cc.CharLimit = 256
	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.CharLimit = 256
	body := textarea.New()
	body.Placeholder = "Write your message..."
	return to, cc, subject, body
}

// openNew starts an empty draft.
func openNewCompose(from string) composeState {
	to, cc, subject, body := newComposeInputs()
	to.Focus()
	return composeState{open: true, mode: composeNew, from: from,
		toInput: to, ccInput: cc, subjectInput: subject, bodyInput: body}
}

// replySubject prefixes "Re:" unless already present.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// forwardSubject prefixes "Fwd:" unless already present.
func forwardSubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "fwd:") {
		return subject
	}
	return "Fwd: " + subject
}

// quoteBody formats the original message for inclusion in a reply.
func quoteBody(from, date, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "On %s, %s wrote:\n", date, from)
	for _, line := range strings.Split(body, "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// openReply pre-fills a draft answering the sender of src.
func openReply(from string, src *api.MessageDetail) composeState {
	c := openNewCompose(from)
	c.mode = composeReply
	c.replyToID = src.ID
	c.to = []string{src.From}
	c.toInput.SetValue(src.From)
	c.subjectInput.SetValue(replySubject(src.Subject))
	c.bodyInput.SetValue("\n\n" + quoteBody(src.From, src.SentAt.Format("Jan 2, 2006"), src.Body))
	return c
}

// openReplyAll pre-fills a draft answering every recipient of src.
func openReplyAll(from string, src *api.MessageDetail) composeState {
	c := openReply(from, src)
	c.mode = composeReplyAll

	to := []string{src.From}
	for _, addr := range src.To {
		if addr != from {
			to = append(to, addr)
		}
	}
	c.to = to
	c.cc = append([]string(nil), src.Cc...)
	c.toInput.SetValue(strings.Join(to, ", "))
	c.ccInput.SetValue(strings.Join(src.Cc, ", "))
	return c
}

// openForward pre-fills a draft forwarding src with an empty recipient list.
func openForward(from string, src *api.MessageDetail) composeState {
	c := openNewCompose(from)
	c.mode = composeForward
	c.replyToID = src.ID
	c.subjectInput.SetValue(forwardSubject(src.Subject))
	c.bodyInput.SetValue("\n\n---------- Forwarded message ----------\n" + src.Body)
	return c
}

// recipients parses a comma-separated input value into addresses.
func recipients(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// canSend reports whether the draft has a sender and at least one recipient
// and is not already in flight.
func (c *composeState) canSend() bool {
	return c.open && !c.sending && c.from != "" && len(recipients(c.toInput.Value())) > 0
}

// sendRequest materializes the draft into the API payload.
func (c *composeState) sendRequest() api.SendRequest {
	return api.SendRequest{
		From:    c.from,
		To:      recipients(c.toInput.Value()),
		Cc:      recipients(c.ccInput.Value()),
		Bcc:     c.bcc,
		Subject: c.subjectInput.Value(),
		Body:    c.bodyInput.Value(),
		ReplyTo: c.replyToID,
	}
}

// close discards the draft entirely.
func (c *composeState) close() {
	*c = composeState{}
}

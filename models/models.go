package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Action is the type of step that produced a message. Composers dispatch on
// it instead of subclassing message types.
type Action int

const (
	ActionNew Action = iota
	ActionReply
	ActionReplyAll
	ActionForward
	ActionEnd
)

func (a Action) String() string {
	switch a {
	case ActionNew:
		return "new"
	case ActionReply:
		return "reply"
	case ActionReplyAll:
		return "reply-all"
	case ActionForward:
		return "forward"
	case ActionEnd:
		return "end"
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

// IsReplyClass reports whether the action is a reply or a reply-all.
func (a Action) IsReplyClass() bool {
	return a == ActionReply || a == ActionReplyAll
}

// An Attachment is an opaque reference to a document produced by the
// attachment renderer. The renderer owns the bytes; the graph only carries
// the descriptor.
type Attachment struct {
	ID          string
	Filename    string
	ContentType string
	// Path is where the renderer materialized the file, empty when
	// placeholder rendering is disabled.
	Path    string
	Created time.Time
}

// An Email is one node of a conversation graph. Nodes are immutable once
// attached to the graph; only the Broken flag may be set afterwards.
type Email struct {
	ID        string
	MessageID string
	ThreadID  string
	// ParentID is the parent node id, empty for roots.
	ParentID string

	Type Action

	From *mail.Address
	To   []*mail.Address
	Cc   []*mail.Address
	Bcc  []*mail.Address

	Date    time.Time
	Subject string

	// InReplyTo and References carry message-ids without angle brackets.
	InReplyTo  string
	References []string

	// Content is the text owned by this node, QuotedBlock the rendered
	// history below it.
	Content     string
	QuotedBlock string

	Attachments []Attachment

	// Broken nodes are excluded from export but keep their message-id
	// reserved so that descendant reference chains dangle realistically.
	Broken bool
}

// Rendered returns the full visible text of the message: own content
// followed by the quoted history.
func (e *Email) Rendered() string {
	if e.QuotedBlock == "" {
		return e.Content
	}
	return e.Content + "\n\n" + e.QuotedBlock
}

// Recipients returns to, cc and bcc in header order.
func (e *Email) Recipients() []*mail.Address {
	rcpts := make([]*mail.Address, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	rcpts = append(rcpts, e.To...)
	rcpts = append(rcpts, e.Cc...)
	rcpts = append(rcpts, e.Bcc...)
	return rcpts
}

func (e *Email) String() string {
	return fmt.Sprintf("[%s] %s -> %s | %s (%s)",
		e.Date.Format("2006-01-02 15:04"), FormatAddress(e.From),
		FormatAddresses(e.To), e.Subject, e.Type)
}

// FormatAddress formats a single address as "Name <addr>".
func FormatAddress(a *mail.Address) string {
	if a == nil {
		return ""
	}
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

// FormatAddresses formats a list of addresses as a comma separated header
// value.
func FormatAddresses(addrs []*mail.Address) string {
	val := make([]string, 0, len(addrs))
	for _, a := range addrs {
		val = append(val, FormatAddress(a))
	}
	return strings.Join(val, ", ")
}

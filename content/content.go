package content

import (
	"context"
	"math/rand"

	"github.com/emersion/go-message/mail"
)

// Style hints what kind of text is wanted.
type Style int

const (
	StyleNew Style = iota
	StyleReply
	StyleForward
)

// A Request carries everything a provider may condition on. PriorText holds
// the parent's rendered body for replies and forwards.
type Request struct {
	Sender     *mail.Address
	Recipients []*mail.Address
	Topic      string
	Subject    string
	PriorText  string
	Style      Style

	// RNG is a per-message stream reserved for text generation.
	// Deterministic providers must draw from it exclusively.
	RNG *rand.Rand
}

// A Result is the generated text. Subject is only consulted for StyleNew;
// replies and forwards derive their subject from the parent.
type Result struct {
	Subject string
	Body    string
}

// Provider generates message text. Implementations backed by an external
// service may fail; the engine then falls back to the Template provider and
// the run continues.
type Provider interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}

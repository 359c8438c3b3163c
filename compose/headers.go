package compose

import (
	"math/rand"

	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/config"
	"github.com/mailgen/mailgen/lib"
	"github.com/mailgen/mailgen/models"
	"github.com/mailgen/mailgen/roster"
)

// Headers is the derived header set for a new node. ThreadID and MessageID
// are assigned later by the graph store.
type Headers struct {
	From       *mail.Address
	To         []*mail.Address
	Cc         []*mail.Address
	Subject    string
	InReplyTo  string
	References []string
}

// HeaderInput bundles everything header composition depends on. Composition
// is a pure function of this input plus the RNG stream.
type HeaderInput struct {
	Parent *models.Email
	Action models.Action
	// Sender is the identity already chosen for the new node.
	Sender *mail.Address
	// Participants holds every address seen in the thread so far. Used to
	// draw disjoint forward recipients.
	Participants lib.AddressSet
	Roster       roster.Provider
	ForwardRefs  config.ForwardRefs
	RNG          *rand.Rand
}

// ComposeHeaders derives the header set for a reply, reply-all or forward of
// in.Parent. Root headers are built with RootHeaders instead.
func ComposeHeaders(in *HeaderInput) (*Headers, error) {
	parent := in.Parent
	h := &Headers{From: in.Sender}

	switch in.Action {
	case models.ActionReply, models.ActionReplyAll:
		h.To = []*mail.Address{parent.From}
		if in.Action == models.ActionReplyAll {
			// cc everyone else on the parent, deduplicated, never
			// the new sender and never the parent sender twice
			seen := lib.NewAddressSet()
			seen.Add(in.Sender)
			seen.Add(parent.From)
			h.Cc = append(h.Cc, seen.Filter(parent.To)...)
			h.Cc = append(h.Cc, seen.Filter(parent.Cc)...)
		}
		h.Subject = ApplyTag(parent.Subject, TagRe)
		h.InReplyTo = parent.MessageID
		h.References = childReferences(parent)

	case models.ActionForward:
		to, err := forwardRecipients(in)
		if err != nil {
			return nil, err
		}
		h.To = to
		h.Subject = ApplyTag(parent.Subject, TagFwd)
		h.InReplyTo = parent.MessageID
		if in.ForwardRefs == config.ForwardRefsTruncate {
			h.References = []string{parent.MessageID}
		} else {
			h.References = childReferences(parent)
		}

	default:
		return nil, errors.Errorf("%s: not a child action", in.Action)
	}
	return h, nil
}

// RootHeaders builds the header set for a thread-opening message.
func RootHeaders(sender *mail.Address, to []*mail.Address, subject string) *Headers {
	return &Headers{From: sender, To: to, Subject: subject}
}

// childReferences extends the parent's chain with the parent itself,
// deduplicated with order preserved.
func childReferences(parent *models.Email) []string {
	refs := make([]string, 0, len(parent.References)+1)
	seen := make(map[string]struct{}, len(parent.References)+1)
	for _, r := range append(append([]string{}, parent.References...), parent.MessageID) {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}
	return refs
}

// forwardRecipients draws a fresh recipient set disjoint from the thread's
// participants. With nobody left in the pool the branch cannot forward.
func forwardRecipients(in *HeaderInput) ([]*mail.Address, error) {
	var pool []*roster.Person
	for _, p := range in.Roster.Lookup("") {
		if in.Participants.Contains(p.Address()) {
			continue
		}
		if p.Email == in.Sender.Address {
			continue
		}
		pool = append(pool, p)
	}
	if len(pool) == 0 {
		return nil, models.ErrRecipientPoolExhausted
	}
	n := 1
	if len(pool) > 1 && in.RNG.Intn(3) == 0 {
		n = 2
	}
	out := make([]*mail.Address, 0, n)
	for ; n > 0; n-- {
		i := in.RNG.Intn(len(pool))
		out = append(out, pool[i].Address())
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out, nil
}

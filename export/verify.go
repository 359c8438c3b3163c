package export

import (
	"time"

	sortthread "github.com/emersion/go-imap-sortthread"
	"github.com/gatherstars-com/jwz"
	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/log"
	"github.com/mailgen/mailgen/models"
)

// Verify re-threads the corpus with the jwz algorithm, the same one mail
// clients run on the References headers alone, and checks that the
// recovered structure matches the graph. A node whose nearest surviving
// ancestor differs from what the headers imply means the composer and the
// store disagree, so verification failure is a bug, not bad luck.
func Verify(emails []*models.Email) error {
	present := make(map[string]*models.Email, len(emails))
	nodes := make([]jwz.Threadable, 0, len(emails))
	for _, e := range emails {
		present[e.MessageID] = e
		nodes = append(nodes, &verifyNode{email: e})
	}

	threader := jwz.NewThreader()
	structure, err := threader.ThreadSlice(nodes)
	if err != nil {
		return errors.Wrap(err, "jwz.ThreadSlice")
	}

	recovered := make(map[string]string, len(emails))
	collectAncestry(structure, "", recovered)

	for _, e := range emails {
		got, ok := recovered[e.MessageID]
		if !ok {
			return errors.Errorf("%s: missing from threaded structure", e.MessageID)
		}
		want := nearestPresentAncestor(e, present)
		if got != want {
			return errors.Errorf("%s: threaded under %q, headers imply %q",
				e.MessageID, got, want)
		}
	}
	log.Debugf("verified threading of %d messages", len(emails))
	return nil
}

// collectAncestry records, for every real node, the message-id of its
// nearest real ancestor. Dummy containers stand in for messages the
// threader saw referenced but never received; they are transparent here.
func collectAncestry(node jwz.Threadable, ancestor string, out map[string]string) {
	for n := node; n != nil; n = n.GetNext() {
		next := ancestor
		if vn, ok := n.(*verifyNode); ok && !vn.IsDummy() {
			out[vn.email.MessageID] = ancestor
			next = vn.email.MessageID
		}
		collectAncestry(n.GetChild(), next, out)
	}
}

// nearestPresentAncestor walks the references chain from the closest end
// and returns the first message-id that survived into the corpus. Broken
// ancestors were dropped, so the threader can do no better than this.
func nearestPresentAncestor(e *models.Email, present map[string]*models.Email) string {
	for i := len(e.References) - 1; i >= 0; i-- {
		if _, ok := present[e.References[i]]; ok {
			return e.References[i]
		}
	}
	return ""
}

// verifyNode adapts a corpus message to the jwz.Threadable interface.
type verifyNode struct {
	email *models.Email

	next, child, parent jwz.Threadable
	dummy               bool
	dummyID             string
}

func (v *verifyNode) MessageThreadID() string {
	if v.dummy {
		return v.dummyID
	}
	return v.email.MessageID
}

// MessageThreadReferences returns the references cleaned for threading:
// never the node's own id, no duplicates.
func (v *verifyNode) MessageThreadReferences() []string {
	if v.dummy {
		return nil
	}
	seen := make(map[string]struct{}, len(v.email.References))
	refs := make([]string, 0, len(v.email.References))
	for _, r := range v.email.References {
		if _, dup := seen[r]; dup || r == v.email.MessageID {
			continue
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}
	return refs
}

func (v *verifyNode) Subject() string {
	if v.dummy {
		return ""
	}
	return v.email.Subject
}

func (v *verifyNode) SimplifiedSubject() string {
	subject, _ := sortthread.GetBaseSubject(v.Subject())
	return subject
}

func (v *verifyNode) SubjectIsReply() bool {
	_, reply := sortthread.GetBaseSubject(v.Subject())
	return reply
}

func (v *verifyNode) SetNext(next jwz.Threadable) { v.next = next }

func (v *verifyNode) SetChild(kid jwz.Threadable) {
	v.child = kid
	if kid != nil {
		kid.SetParent(v)
	}
}

func (v *verifyNode) SetParent(parent jwz.Threadable) { v.parent = parent }

func (v *verifyNode) GetNext() jwz.Threadable   { return v.next }
func (v *verifyNode) GetChild() jwz.Threadable  { return v.child }
func (v *verifyNode) GetParent() jwz.Threadable { return v.parent }

func (v *verifyNode) GetDate() time.Time {
	if v.dummy {
		if v.child != nil {
			return v.child.GetDate()
		}
		return time.Unix(0, 0)
	}
	return v.email.Date
}

func (v *verifyNode) MakeDummy(forID string) jwz.Threadable {
	return &verifyNode{dummy: true, dummyID: forID}
}

func (v *verifyNode) IsDummy() bool { return v.dummy }

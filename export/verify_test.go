package export

import (
	"fmt"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"

	"github.com/mailgen/mailgen/models"
)

type msg struct {
	id      string
	subject string
	refs    []string
}

func buildCorpus(msgs []msg) []*models.Email {
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	out := make([]*models.Email, 0, len(msgs))
	for i, m := range msgs {
		e := &models.Email{
			ID:         fmt.Sprintf("node-%d", i+1),
			MessageID:  m.id,
			ThreadID:   "t1",
			From:       &mail.Address{Address: "alice@acme.com"},
			To:         []*mail.Address{{Address: "bob@acme.com"}},
			Date:       start.Add(time.Duration(i) * time.Hour),
			Subject:    m.subject,
			References: m.refs,
			Content:    "text",
		}
		if len(m.refs) > 0 {
			e.InReplyTo = m.refs[len(m.refs)-1]
		}
		out = append(out, e)
	}
	return out
}

func TestVerifyLinearThread(t *testing.T) {
	emails := buildCorpus([]msg{
		{"a@x", "Topic", nil},
		{"b@x", "Re: Topic", []string{"a@x"}},
		{"c@x", "Re[2]: Topic", []string{"a@x", "b@x"}},
	})
	assert.NoError(t, Verify(emails))
}

func TestVerifyBranchingThread(t *testing.T) {
	emails := buildCorpus([]msg{
		{"a@x", "Topic", nil},
		{"b@x", "Re: Topic", []string{"a@x"}},
		{"c@x", "Re: Topic", []string{"a@x"}},
		{"d@x", "Re[2]: Topic", []string{"a@x", "c@x"}},
	})
	assert.NoError(t, Verify(emails))
}

func TestVerifyDanglingReference(t *testing.T) {
	// the middle of the chain was lost: the leaf still references it and
	// must re-thread under the surviving root
	emails := buildCorpus([]msg{
		{"a@x", "Topic", nil},
		{"c@x", "Re[2]: Topic", []string{"a@x", "lost@x"}},
	})
	assert.NoError(t, Verify(emails))
}

func TestVerifyTruncatedForward(t *testing.T) {
	// a truncated forward only references its direct parent
	emails := buildCorpus([]msg{
		{"a@x", "Topic", nil},
		{"b@x", "Re: Topic", []string{"a@x"}},
		{"f@x", "Fwd: Re: Topic", []string{"b@x"}},
	})
	assert.NoError(t, Verify(emails))
}

func TestVerifySeparateThreads(t *testing.T) {
	emails := buildCorpus([]msg{
		{"a@x", "First topic", nil},
		{"b@x", "Second topic", nil},
		{"c@x", "Re: Second topic", []string{"b@x"}},
	})
	assert.NoError(t, Verify(emails))
}

func TestNearestPresentAncestor(t *testing.T) {
	emails := buildCorpus([]msg{
		{"a@x", "Topic", nil},
		{"d@x", "Re: Topic", []string{"a@x", "lost1@x", "lost2@x"}},
	})
	present := map[string]*models.Email{
		"a@x": emails[0], "d@x": emails[1],
	}
	assert.Equal(t, "a@x", nearestPresentAncestor(emails[1], present))
	assert.Equal(t, "", nearestPresentAncestor(emails[0], present))
}

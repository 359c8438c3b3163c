package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailgen/mailgen/models"
)

func testEmail(content, quoted string) *models.Email {
	return &models.Email{
		From:        &mail.Address{Name: "Alice Carter", Address: "alice.carter@acme.com"},
		To:          []*mail.Address{{Name: "Bob Diaz", Address: "bob.diaz@acme.com"}},
		Date:        time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC),
		Subject:     "Budget review",
		Content:     content,
		QuotedBlock: quoted,
	}
}

func TestComposeBodyReplyAccumulatesQuoteDepth(t *testing.T) {
	root := testEmail("Original text.", "")

	first := ComposeBody(root, models.ActionReply, "First answer.")
	assert.Equal(t, 1, QuoteDepth(first.QuotedBlock))
	assert.Contains(t, first.QuotedBlock,
		"On 2024-01-08 09:30, Alice Carter <alice.carter@acme.com> wrote:")
	assert.Contains(t, first.QuotedBlock, "> Original text.")

	parent := testEmail("First answer.", first.QuotedBlock)
	parent.Date = root.Date.Add(time.Hour)
	second := ComposeBody(parent, models.ActionReplyAll, "Second answer.")
	assert.Equal(t, 2, QuoteDepth(second.QuotedBlock))
	assert.Contains(t, second.QuotedBlock, "> > Original text.")
	assert.Contains(t, second.QuotedBlock, "> First answer.")
}

func TestComposeBodyForward(t *testing.T) {
	parent := testEmail("Original text.", "> Earlier text.")
	body := ComposeBody(parent, models.ActionForward, "FYI.")

	require.True(t, strings.HasPrefix(body.QuotedBlock, forwardDelimiter))
	assert.Contains(t, body.QuotedBlock, "From: Alice Carter <alice.carter@acme.com>")
	assert.Contains(t, body.QuotedBlock, "Date: 2024-01-08 09:30")
	assert.Contains(t, body.QuotedBlock, "Subject: Budget review")
	assert.Contains(t, body.QuotedBlock, "To: Bob Diaz <bob.diaz@acme.com>")
	// the original is enclosed verbatim, no extra quote markers
	assert.Contains(t, body.QuotedBlock, "Original text.\n\n> Earlier text.")
	assert.Equal(t, 1, QuoteDepth(body.QuotedBlock))
}

func TestComposeBodyRoot(t *testing.T) {
	body := ComposeBody(nil, models.ActionNew, "Fresh text.")
	assert.Equal(t, "Fresh text.", body.Content)
	assert.Empty(t, body.QuotedBlock)
}

func TestQuoteDepth(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"no quotes here", 0},
		{"> one level", 1},
		{"text\n> one\n> > two\nmore", 2},
		{"", 0},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, QuoteDepth(test.text))
	}
}

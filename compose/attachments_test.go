package compose

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailgen/mailgen/attach"
	"github.com/mailgen/mailgen/models"
)

type fakeRenderer struct {
	created int
	fail    bool
}

func (f *fakeRenderer) Create(spec *attach.Spec) (models.Attachment, error) {
	if f.fail {
		return models.Attachment{}, fmt.Errorf("renderer down")
	}
	f.created++
	return models.Attachment{
		ID:       fmt.Sprintf("doc-%d", f.created),
		Filename: spec.Title + ".pdf",
		Created:  spec.Date,
	}, nil
}

func attachmentIDs(atts []models.Attachment) []string {
	var out []string
	for _, a := range atts {
		out = append(out, a.ID)
	}
	return out
}

func TestResolveAttachmentsForwardCarriesAll(t *testing.T) {
	parent := testParent()
	parent.Attachments = []models.Attachment{{ID: "a"}, {ID: "b"}}

	atts, err := ResolveAttachments(&AttachmentInput{
		Parent:         parent,
		Action:         models.ActionForward,
		Subject:        "Fwd: Budget review",
		Date:           time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
		ForwardNewRate: 1,
		Renderer:       &fakeRenderer{},
		RNG:            rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	// the parent's set comes through whole, plus the new document
	require.Len(t, atts, 3)
	assert.Equal(t, []string{"a", "b", "doc-1"}, attachmentIDs(atts))
}

func TestResolveAttachmentsReply(t *testing.T) {
	parent := testParent()
	parent.Attachments = []models.Attachment{{ID: "a"}}

	tests := []struct {
		name string
		prob float64
		want int
	}{
		{"never reattach", 0, 0},
		{"always reattach", 1, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			atts, err := ResolveAttachments(&AttachmentInput{
				Parent:       parent,
				Action:       models.ActionReply,
				ReattachProb: test.prob,
				Renderer:     &fakeRenderer{},
				RNG:          rand.New(rand.NewSource(1)),
			})
			require.NoError(t, err)
			assert.Len(t, atts, test.want)
		})
	}
}

func TestResolveAttachmentsRoot(t *testing.T) {
	renderer := &fakeRenderer{}
	atts, err := ResolveAttachments(&AttachmentInput{
		Action:   models.ActionNew,
		Subject:  "Budget review",
		Date:     time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		RootRate: 1,
		Renderer: renderer,
		RNG:      rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "Budget review.pdf", atts[0].Filename)
}

func TestResolveAttachmentsRendererFailure(t *testing.T) {
	parent := testParent()
	parent.Attachments = []models.Attachment{{ID: "a"}}

	atts, err := ResolveAttachments(&AttachmentInput{
		Parent:         parent,
		Action:         models.ActionForward,
		ForwardNewRate: 1,
		Renderer:       &fakeRenderer{fail: true},
		RNG:            rand.New(rand.NewSource(1)),
	})
	require.Error(t, err)
	// the carried-over set survives a renderer failure
	assert.Equal(t, []string{"a"}, attachmentIDs(atts))
}

package compose

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/attach"
	"github.com/mailgen/mailgen/models"
)

// AttachmentInput bundles what the attachment policy depends on.
type AttachmentInput struct {
	Parent *models.Email
	Action models.Action
	// Subject and Date describe the node under composition; new documents
	// inherit them.
	Subject string
	Date    time.Time

	// ReattachProb is the chance a reply carries the parent's attachments
	// forward. RootRate and ForwardNewRate gate fresh documents.
	ReattachProb   float64
	RootRate       float64
	ForwardNewRate float64

	Renderer attach.Renderer
	RNG      *rand.Rand
}

// ResolveAttachments applies the carry-over rules: replies drop attachments
// unless the reattach draw fires, forwards always carry the parent's full
// set and may add new documents, roots draw fresh documents at the
// configured rate.
func ResolveAttachments(in *AttachmentInput) ([]models.Attachment, error) {
	var atts []models.Attachment

	switch {
	case in.Action.IsReplyClass():
		if in.Parent != nil && in.RNG.Float64() < in.ReattachProb {
			atts = append(atts, in.Parent.Attachments...)
		}
	case in.Action == models.ActionForward:
		if in.Parent != nil {
			atts = append(atts, in.Parent.Attachments...)
		}
		if in.RNG.Float64() < in.ForwardNewRate {
			att, err := in.create()
			if err != nil {
				return atts, err
			}
			atts = append(atts, att)
		}
	case in.Action == models.ActionNew:
		if in.RNG.Float64() < in.RootRate {
			att, err := in.create()
			if err != nil {
				return atts, err
			}
			atts = append(atts, att)
		}
	}
	return atts, nil
}

func (in *AttachmentInput) create() (models.Attachment, error) {
	att, err := in.Renderer.Create(&attach.Spec{
		Title: BaseSubject(in.Subject),
		Date:  in.Date,
		RNG:   in.RNG,
	})
	if err != nil {
		return models.Attachment{}, errors.Wrap(err, "render attachment")
	}
	return att, nil
}

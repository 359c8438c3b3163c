package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/mailgen/mailgen/models"
)

// jsonEmail is the machine-readable record for one node: the full header
// set plus the graph linkage that the mail formats only carry implicitly.
type jsonEmail struct {
	ID         string    `json:"id"`
	MessageID  string    `json:"message_id"`
	ThreadID   string    `json:"thread_id"`
	ParentID   string    `json:"parent_id,omitempty"`
	Type       string    `json:"type"`
	From       string    `json:"from"`
	To         []string  `json:"to"`
	Cc         []string  `json:"cc,omitempty"`
	Date       time.Time `json:"date"`
	Subject    string    `json:"subject"`
	InReplyTo  string    `json:"in_reply_to,omitempty"`
	References []string  `json:"references,omitempty"`
	Body       string    `json:"body"`

	Attachments []jsonAttachment `json:"attachments,omitempty"`
}

type jsonAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (ex *Exporter) writeJSON(emails []*models.Email) error {
	records := make([]jsonEmail, 0, len(emails))
	for _, e := range emails {
		rec := jsonEmail{
			ID:         e.ID,
			MessageID:  e.MessageID,
			ThreadID:   e.ThreadID,
			ParentID:   e.ParentID,
			Type:       e.Type.String(),
			From:       models.FormatAddress(e.From),
			Date:       e.Date,
			Subject:    e.Subject,
			InReplyTo:  e.InReplyTo,
			References: e.References,
			Body:       e.Rendered(),
		}
		for _, a := range e.To {
			rec.To = append(rec.To, models.FormatAddress(a))
		}
		for _, a := range e.Cc {
			rec.Cc = append(rec.Cc, models.FormatAddress(a))
		}
		for _, att := range e.Attachments {
			rec.Attachments = append(rec.Attachments, jsonAttachment{
				Filename:    att.Filename,
				ContentType: att.ContentType,
			})
		}
		records = append(records, rec)
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ex.cfg.Dir, "emails.json"), data, 0o644)
}

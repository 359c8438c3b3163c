package attach

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/models"
)

// A Spec asks the renderer for one document. Title is derived from the
// email subject; Date must match the email's date so document metadata stays
// consistent with the message carrying it.
type Spec struct {
	Title string
	Date  time.Time

	// RNG is the caller's thread-local stream, used for document type and
	// id draws.
	RNG *rand.Rand
}

// Renderer is the attachment capability consumed by the engine. Physical
// PDF/DOCX byte generation lives behind this interface and out of this
// module.
type Renderer interface {
	Create(spec *Spec) (models.Attachment, error)
}

var docTypes = []string{"report", "proposal", "notes", "analysis", "summary"}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Stub fabricates attachment descriptors without rendering document bytes.
// With WriteFiles set it drops a small placeholder file per descriptor so
// that exporters have real bytes to embed.
type Stub struct {
	// Dir receives placeholder files when WriteFiles is set.
	Dir        string
	WriteFiles bool
}

// Create implements Renderer.
func (s *Stub) Create(spec *Spec) (models.Attachment, error) {
	docType := docTypes[spec.RNG.Intn(len(docTypes))]
	ext, ctype := ".pdf", "application/pdf"
	if spec.RNG.Intn(2) == 1 {
		ext, ctype = ".docx", docxContentType
	}
	id, err := uuid.NewRandomFromReader(spec.RNG)
	if err != nil {
		return models.Attachment{}, errors.Wrap(err, "uuid")
	}
	att := models.Attachment{
		ID:          id.String(),
		Filename:    sanitizeFilename(spec.Title, 40) + "_" + docType + ext,
		ContentType: ctype,
		Created:     spec.Date,
	}
	if s.WriteFiles {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return models.Attachment{}, err
		}
		att.Path = filepath.Join(s.Dir, att.ID+ext)
		body := fmt.Sprintf("%s\n%s of %s\n", spec.Title, docType,
			spec.Date.Format("2006-01-02"))
		if err := os.WriteFile(att.Path, []byte(body), 0o644); err != nil {
			return models.Attachment{}, err
		}
	}
	return att, nil
}

// sanitizeFilename replaces non-alphanumeric runes with underscores and
// truncates, mirroring the naming of the rest of the corpus files.
func sanitizeFilename(text string, maxLen int) string {
	var b strings.Builder
	for _, c := range text {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

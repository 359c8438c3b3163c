package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mailgen/mailgen/models"
)

// writeMarkdown writes one human-readable markdown file per message, the
// layout review tooling expects: header block, separator, full text.
func (ex *Exporter) writeMarkdown(emails []*models.Email) error {
	dir := filepath.Join(ex.cfg.Dir, "markdown")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, e := range emails {
		name := fmt.Sprintf("%04d_%s.md", i+1, slug(e.Subject, 40))
		if err := os.WriteFile(filepath.Join(dir, name),
			[]byte(renderMarkdown(e)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func renderMarkdown(e *models.Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Subject)
	fmt.Fprintf(&b, "**From:** %s\n\n", models.FormatAddress(e.From))
	fmt.Fprintf(&b, "**Date:** %s\n\n", e.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**To:** %s\n\n", models.FormatAddresses(e.To))
	if len(e.Cc) > 0 {
		fmt.Fprintf(&b, "**Cc:** %s\n\n", models.FormatAddresses(e.Cc))
	}
	if len(e.Attachments) > 0 {
		names := make([]string, 0, len(e.Attachments))
		for _, att := range e.Attachments {
			names = append(names, att.Filename)
		}
		fmt.Fprintf(&b, "**Attachments:** %s\n\n", strings.Join(names, ", "))
	}
	b.WriteString("---\n\n")
	b.WriteString(e.Rendered())
	b.WriteString("\n")
	return b.String()
}

package export

import (
	"os"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/config"
	"github.com/mailgen/mailgen/log"
	"github.com/mailgen/mailgen/models"
)

// Exporter writes a generated corpus to disk in the configured formats. The
// input slice must already be in causal order; every writer preserves it.
type Exporter struct {
	cfg    *config.OutputConfig
	logger log.Logger
}

func New(cfg *config.OutputConfig) *Exporter {
	return &Exporter{cfg: cfg, logger: log.NewLogger("export", 3)}
}

func (ex *Exporter) Run(emails []*models.Email) error {
	if len(emails) == 0 {
		return errors.New("nothing to export")
	}
	if err := os.MkdirAll(ex.cfg.Dir, 0o755); err != nil {
		return err
	}
	for _, f := range ex.cfg.Formats {
		var err error
		format := strings.TrimSpace(strings.ToLower(f))
		switch format {
		case "eml":
			err = ex.writeEML(emails)
		case "mbox":
			err = ex.writeMbox(emails)
		case "maildir":
			err = ex.writeMaildir(emails)
		case "markdown":
			err = ex.writeMarkdown(emails)
		case "json":
			err = ex.writeJSON(emails)
		default:
			err = errors.Errorf("%s: unknown format", f)
		}
		if err != nil {
			return errors.Wrap(err, format)
		}
		ex.logger.Infof("wrote %d messages as %s under %s",
			len(emails), format, ex.cfg.Dir)
	}
	return nil
}

// slug turns a subject into a filename fragment.
func slug(s string, max int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > max {
		out = out[:max]
	}
	if out == "" {
		out = "message"
	}
	return out
}

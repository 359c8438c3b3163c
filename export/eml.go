package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mailgen/mailgen/models"
)

// writeEML writes one .eml file per message. Filenames carry the causal
// index so a directory listing reads in graph order.
func (ex *Exporter) writeEML(emails []*models.Email) error {
	dir := filepath.Join(ex.cfg.Dir, "eml")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, e := range emails {
		name := fmt.Sprintf("%04d_%s.eml", i+1, slug(e.Subject, 40))
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		err = writeMessage(e, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

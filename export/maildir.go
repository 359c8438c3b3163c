package export

import (
	"path/filepath"

	"github.com/emersion/go-maildir"

	"github.com/mailgen/mailgen/models"
)

// writeMaildir delivers every message into a maildir, flagged seen so mail
// clients treat the corpus as an existing mailbox rather than new mail.
func (ex *Exporter) writeMaildir(emails []*models.Email) error {
	dir := maildir.Dir(filepath.Join(ex.cfg.Dir, "maildir"))
	if err := dir.Init(); err != nil {
		return err
	}
	for _, e := range emails {
		_, w, err := dir.Create([]maildir.Flag{maildir.FlagSeen})
		if err != nil {
			return err
		}
		err = writeMessage(e, w)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

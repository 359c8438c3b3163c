package export

import (
	"os"
	"path/filepath"

	"github.com/emersion/go-mbox"
	"github.com/miolini/datacounter"

	"github.com/mailgen/mailgen/models"
)

// writeMbox writes the whole corpus into a single mbox file in causal
// order.
func (ex *Exporter) writeMbox(emails []*models.Email) error {
	f, err := os.Create(filepath.Join(ex.cfg.Dir, "corpus.mbox"))
	if err != nil {
		return err
	}
	defer f.Close()

	ctr := datacounter.NewWriterCounter(f)
	w := mbox.NewWriter(ctr)
	for _, e := range emails {
		mw, err := w.CreateMessage(e.From.Address, e.Date)
		if err != nil {
			return err
		}
		if err := writeMessage(e, mw); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	ex.logger.Debugf("corpus.mbox: %d bytes", ctr.Count())
	return nil
}

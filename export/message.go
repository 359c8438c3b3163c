package export

import (
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/models"
)

// messageHeader builds the RFC 5322 header set for one node. Message-ids
// are stored bare; the header encoder adds the angle brackets.
func messageHeader(e *models.Email) *mail.Header {
	var h mail.Header
	h.SetDate(e.Date)
	h.SetSubject(e.Subject)
	h.SetAddressList("From", []*mail.Address{e.From})
	h.SetAddressList("To", e.To)
	if len(e.Cc) > 0 {
		h.SetAddressList("Cc", e.Cc)
	}
	if len(e.Bcc) > 0 {
		h.SetAddressList("Bcc", e.Bcc)
	}
	h.SetMessageID(e.MessageID)
	if e.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{e.InReplyTo})
	}
	if len(e.References) > 0 {
		h.SetMsgIDList("References", e.References)
	}
	return &h
}

// writeMessage serializes one node as a MIME message. Text-only messages
// stay single part; anything with attachments becomes multipart/mixed.
func writeMessage(e *models.Email, w io.Writer) error {
	header := messageHeader(e)
	body := strings.NewReader(e.Rendered())

	if len(e.Attachments) == 0 {
		return writeInlineBody(header, body, w)
	}

	mw, err := mail.CreateWriter(w, *header)
	if err != nil {
		return errors.Wrap(err, "CreateWriter")
	}
	defer mw.Close()

	if err := writeMultipartBody(body, mw); err != nil {
		return errors.Wrap(err, "writeMultipartBody")
	}
	for _, att := range e.Attachments {
		if err := writeAttachment(att, mw); err != nil {
			return errors.Wrap(err, "writeAttachment")
		}
	}
	return nil
}

func writeInlineBody(header *mail.Header, body io.Reader, w io.Writer) error {
	header.SetContentType("text/plain", map[string]string{"charset": "UTF-8"})
	iw, err := mail.CreateSingleInlineWriter(w, *header)
	if err != nil {
		return errors.Wrap(err, "CreateSingleInlineWriter")
	}
	defer iw.Close()
	if _, err := io.Copy(iw, body); err != nil {
		return errors.Wrap(err, "io.Copy")
	}
	return nil
}

func writeMultipartBody(body io.Reader, w *mail.Writer) error {
	bh := mail.InlineHeader{}
	bh.SetContentType("text/plain", map[string]string{"charset": "UTF-8"})

	bi, err := w.CreateInline()
	if err != nil {
		return errors.Wrap(err, "CreateInline")
	}
	defer bi.Close()

	bw, err := bi.CreatePart(bh)
	if err != nil {
		return errors.Wrap(err, "CreatePart")
	}
	defer bw.Close()
	if _, err := io.Copy(bw, body); err != nil {
		return errors.Wrap(err, "io.Copy")
	}
	return nil
}

func writeAttachment(att models.Attachment, w *mail.Writer) error {
	mimeType, params, err := mime.ParseMediaType(att.ContentType)
	if err != nil {
		mimeType, params = "application/octet-stream", map[string]string{}
	}
	params["name"] = att.Filename

	ah := mail.AttachmentHeader{}
	ah.SetContentType(mimeType, params)
	// setting the filename auto sets the content disposition
	ah.SetFilename(att.Filename)

	aw, err := w.CreateAttachment(ah)
	if err != nil {
		return errors.Wrap(err, "CreateAttachment")
	}
	defer aw.Close()

	_, err = aw.Write(attachmentBytes(att))
	return err
}

// attachmentBytes returns the document content: the rendered file when one
// exists on disk, a deterministic placeholder otherwise.
func attachmentBytes(att models.Attachment) []byte {
	if att.Path != "" {
		if data, err := os.ReadFile(att.Path); err == nil {
			return data
		}
	}
	return []byte(fmt.Sprintf("%s\nDocument id %s, created %s.\n",
		att.Filename, att.ID, att.Created.Format("2006-01-02")))
}

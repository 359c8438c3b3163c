package compose

import (
	"fmt"
	"strings"

	"github.com/mailgen/mailgen/models"
)

const forwardDelimiter = "---------- Forwarded message ----------"

// Body is the composed text of a new node.
type Body struct {
	Content     string
	QuotedBlock string
}

// ComposeBody derives the quoted history for a child of parent. newText is
// the fresh content obtained from the content provider.
//
// Replies re-quote the parent's full rendered text behind one more ">"
// marker per hop. Forwards enclose the original verbatim behind a delimiter
// and header block, resetting visual quote depth to zero.
func ComposeBody(parent *models.Email, action models.Action, newText string) *Body {
	b := &Body{Content: newText}
	if parent == nil {
		return b
	}
	switch {
	case action.IsReplyClass():
		b.QuotedBlock = fmt.Sprintf("On %s, %s wrote:\n%s",
			parent.Date.Format("2006-01-02 15:04"),
			models.FormatAddress(parent.From),
			quotePrefix(parent.Rendered()))
	case action == models.ActionForward:
		b.QuotedBlock = strings.Join([]string{
			forwardDelimiter,
			"From: " + models.FormatAddress(parent.From),
			"Date: " + parent.Date.Format("2006-01-02 15:04"),
			"Subject: " + parent.Subject,
			"To: " + models.FormatAddresses(parent.To),
			"",
			parent.Rendered(),
		}, "\n")
	}
	return b
}

// quotePrefix adds one quote marker to every line, so existing "> " markers
// deepen by exactly one level.
func quotePrefix(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// QuoteDepth reports the deepest nesting of quote markers in a block.
func QuoteDepth(text string) int {
	depth := 0
	for _, line := range strings.Split(text, "\n") {
		d := 0
		for strings.HasPrefix(line, "> ") {
			d++
			line = line[2:]
		}
		if d > depth {
			depth = d
		}
	}
	return depth
}

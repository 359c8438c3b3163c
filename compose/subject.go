package compose

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Subject tags understood by the generator. Anything else in the subject is
// treated as payload and never altered.
const (
	TagRe  = "Re"
	TagFwd = "Fwd"
)

// leading "Re:", "Fwd:", "Re[2]:" ... with optional bracketed counter
var tagRe = regexp.MustCompile(`^(?i)(Re|Fwd)(?:\[(\d+)\])?:\s*`)

type subjectTag struct {
	name  string
	count int
}

func (t subjectTag) render() string {
	if t.count > 1 {
		return fmt.Sprintf("%s[%d]: ", t.name, t.count)
	}
	return t.name + ": "
}

// parseTags splits a subject into its leading tag stack and the untouched
// base text. Tags come back in display order, canonically capitalized.
func parseTags(subject string) ([]subjectTag, string) {
	var tags []subjectTag
	rest := subject
	for {
		m := tagRe.FindStringSubmatch(rest)
		if m == nil {
			break
		}
		tag := subjectTag{count: 1}
		if strings.EqualFold(m[1], TagRe) {
			tag.name = TagRe
		} else {
			tag.name = TagFwd
		}
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err == nil && n > 1 {
				tag.count = n
			}
		}
		// adjacent repeats count as one tag: "Re: Re:" parses as Re[2]
		if n := len(tags); n > 0 && tags[n-1].name == tag.name {
			tags[n-1].count += tag.count
		} else {
			tags = append(tags, tag)
		}
		rest = rest[len(m[0]):]
	}
	return tags, rest
}

// ApplyTag prepends tag to subject, collapsing repeats into a bracketed
// counter: applying Re to "Re: x" yields "Re[2]: x", never "Re: Re: x".
// Applying a different tag preserves the existing stack, so forwarding a
// reply yields "Fwd: Re: x".
func ApplyTag(subject, tag string) string {
	tags, base := parseTags(subject)
	if len(tags) > 0 && tags[0].name == tag {
		tags[0].count++
	} else {
		tags = append([]subjectTag{{name: tag, count: 1}}, tags...)
	}
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(t.render())
	}
	b.WriteString(base)
	return b.String()
}

// BaseSubject strips the whole leading tag stack.
func BaseSubject(subject string) string {
	_, base := parseTags(subject)
	return base
}

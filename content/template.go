package content

import (
	"context"
	"fmt"
	"strings"
)

// Template is the deterministic fallback provider. All draws come from the
// request RNG, so a fixed seed reproduces the exact same corpus text.
type Template struct{}

var subjectStarts = []string{
	"Regarding", "Update on", "Question about", "Notes for", "Discussion:",
}

var genericSubjects = []string{
	"Quarterly planning review", "Vendor contract renewal",
	"Office move logistics", "Budget reconciliation",
	"Hiring pipeline update", "Customer escalation follow-up",
	"Release readiness check", "Team offsite agenda",
	"Security audit findings", "Partnership proposal draft",
}

var openers = []string{
	"Hi all,", "Hello everyone,", "Hi team,", "Quick note on this.",
}

var bodySentences = []string{
	"I went through the latest numbers this morning and a few items stand out.",
	"We should settle on an owner for the next steps before the end of the week.",
	"The timeline still looks achievable, but only if sign-off happens soon.",
	"There are a couple of open questions that need input from your side.",
	"I have attached my current notes for reference.",
	"Let me know if the proposed schedule works for everyone.",
	"We can pick this up in the weekly sync if it is easier to discuss live.",
	"The last review surfaced some issues we have not closed out yet.",
	"Happy to walk anyone through the details separately.",
	"Please flag anything that looks off before we commit to this.",
}

var replySentences = []string{
	"Thanks for the summary, this matches what I was seeing as well.",
	"I have a slightly different read on the second point.",
	"Agreed on the approach, although the dates feel tight.",
	"Adding some context from our side below.",
	"I can take the action item on this one.",
	"Let me double-check with the team and come back to you tomorrow.",
	"Good catch, that had slipped through on our end.",
}

var forwardIntros = []string{
	"FYI.",
	"Forwarding this along, see below.",
	"Looping you in on the thread below.",
	"You should have visibility on this discussion.",
}

// Generate implements Provider and never fails.
func (Template) Generate(_ context.Context, req *Request) (*Result, error) {
	res := &Result{}
	switch req.Style {
	case StyleNew:
		res.Subject = newSubject(req)
		res.Body = newBody(req)
	case StyleReply:
		res.Body = replyBody(req)
	case StyleForward:
		res.Body = forwardIntro(req)
	}
	return res, nil
}

func newSubject(req *Request) string {
	if req.Topic != "" {
		start := subjectStarts[req.RNG.Intn(len(subjectStarts))]
		return start + " " + req.Topic
	}
	return genericSubjects[req.RNG.Intn(len(genericSubjects))]
}

func newBody(req *Request) string {
	var b strings.Builder
	b.WriteString(openers[req.RNG.Intn(len(openers))])
	b.WriteString("\n\n")
	if req.Topic != "" {
		fmt.Fprintf(&b, "I wanted to discuss %s.\n\n", req.Topic)
	}
	b.WriteString(paragraph(req, bodySentences, 3, 5))
	return b.String()
}

func replyBody(req *Request) string {
	body := paragraph(req, replySentences, 2, 3)
	if req.Topic != "" && req.RNG.Float64() < 0.2 {
		body += fmt.Sprintf("\n\nRegarding the %s aspect, I agree.", req.Topic)
	}
	return body
}

func forwardIntro(req *Request) string {
	intro := forwardIntros[req.RNG.Intn(len(forwardIntros))]
	if req.Topic != "" && req.RNG.Float64() < 0.3 {
		intro = fmt.Sprintf("Thought you should see this regarding %s.\n\n%s",
			req.Topic, intro)
	}
	return intro
}

// paragraph picks min..max distinct sentences, preserving table order so the
// text reads naturally.
func paragraph(req *Request, pool []string, min, max int) string {
	n := min
	if max > min {
		n += req.RNG.Intn(max - min + 1)
	}
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]bool, len(pool))
	for c := 0; c < n; {
		i := req.RNG.Intn(len(pool))
		if !picked[i] {
			picked[i] = true
			c++
		}
	}
	var out []string
	for i, ok := range picked {
		if ok {
			out = append(out, pool[i])
		}
	}
	return strings.Join(out, " ")
}

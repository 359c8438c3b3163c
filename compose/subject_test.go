package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTag(t *testing.T) {
	tests := []struct {
		subject string
		tag     string
		want    string
	}{
		{"Budget review", TagRe, "Re: Budget review"},
		{"Budget review", TagFwd, "Fwd: Budget review"},
		{"Re: Budget review", TagRe, "Re[2]: Budget review"},
		{"Re[2]: Budget review", TagRe, "Re[3]: Budget review"},
		{"Re: Budget review", TagFwd, "Fwd: Re: Budget review"},
		{"Fwd: Re: Budget review", TagFwd, "Fwd[2]: Re: Budget review"},
		{"Fwd: Re: Budget review", TagRe, "Re: Fwd: Re: Budget review"},
		{"re: budget", TagRe, "Re[2]: budget"},
		{"Re: Re: budget", TagRe, "Re[3]: budget"},
		{"RE[3]: budget", TagRe, "Re[4]: budget"},
		{"fwd[2]: budget", TagFwd, "Fwd[3]: budget"},
		// payload containing tag-like text is never altered
		{"Notes on Re: usage", TagRe, "Re: Notes on Re: usage"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, ApplyTag(test.subject, test.tag),
			"ApplyTag(%q, %q)", test.subject, test.tag)
	}
}

func TestApplyTagNeverStutters(t *testing.T) {
	// repeated replies must collapse into a counter instead of growing a
	// "Re: Re: Re:" chain
	subject := "Quarterly planning"
	for i := 2; i <= 6; i++ {
		subject = ApplyTag(subject, TagRe)
	}
	assert.Equal(t, "Re[5]: Quarterly planning", subject)
}

func TestBaseSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"Budget review", "Budget review"},
		{"Re: Budget review", "Budget review"},
		{"Fwd[2]: Re[3]: Budget review", "Budget review"},
		{"re: fwd: Budget review", "Budget review"},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, BaseSubject(test.subject))
	}
}

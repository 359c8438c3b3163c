package content

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, req *Request) *Result {
	t.Helper()
	res, err := Template{}.Generate(context.Background(), req)
	require.NoError(t, err)
	return res
}

func TestTemplateNew(t *testing.T) {
	res := generate(t, &Request{Style: StyleNew, RNG: rand.New(rand.NewSource(1))})
	assert.NotEmpty(t, res.Subject)
	assert.NotEmpty(t, res.Body)
}

func TestTemplateTopicSteering(t *testing.T) {
	res := generate(t, &Request{
		Style: StyleNew,
		Topic: "the data center migration",
		RNG:   rand.New(rand.NewSource(1)),
	})
	assert.Contains(t, res.Subject, "the data center migration")
	assert.Contains(t, res.Body, "the data center migration")
}

func TestTemplateReply(t *testing.T) {
	res := generate(t, &Request{Style: StyleReply, RNG: rand.New(rand.NewSource(1))})
	// replies derive their subject from the parent, not the provider
	assert.Empty(t, res.Subject)
	assert.NotEmpty(t, res.Body)
}

func TestTemplateForward(t *testing.T) {
	res := generate(t, &Request{Style: StyleForward, RNG: rand.New(rand.NewSource(1))})
	assert.Empty(t, res.Subject)
	assert.NotEmpty(t, res.Body)
}

func TestTemplateDeterministic(t *testing.T) {
	for _, style := range []Style{StyleNew, StyleReply, StyleForward} {
		a := generate(t, &Request{Style: style, RNG: rand.New(rand.NewSource(9))})
		b := generate(t, &Request{Style: style, RNG: rand.New(rand.NewSource(9))})
		assert.Equal(t, a, b)
	}
}

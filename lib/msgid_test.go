package lib

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMessageID(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	id := GenerateMessageID(rng, "acme.com")

	assert.True(t, strings.HasSuffix(id, "@acme.com"), id)
	assert.NotContains(t, id, "<")
	assert.NotContains(t, id, ">")
	assert.NotContains(t, id, " ")

	local := strings.TrimSuffix(id, "@acme.com")
	assert.Contains(t, local, ".")
}

func TestGenerateMessageIDDeterministic(t *testing.T) {
	a := GenerateMessageID(rand.New(rand.NewSource(5)), "acme.com")
	b := GenerateMessageID(rand.New(rand.NewSource(5)), "acme.com")
	assert.Equal(t, a, b)

	c := GenerateMessageID(rand.New(rand.NewSource(6)), "acme.com")
	assert.NotEqual(t, a, c)
}

func TestGenerateMessageIDUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateMessageID(rng, "acme.com")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailgen/mailgen/models"
)

func TestDefaultsValidate(t *testing.T) {
	conf := Defaults()
	require.NoError(t, conf.Validate())
	assert.Equal(t, ForwardRefsFull, conf.Generation.ForwardRefs)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), conf.Dates.Start)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(*Config)
	}{
		{"zero reply", func(c *Config) { c.Generation.ReplyWeight = 0 }},
		{"negative forward", func(c *Config) { c.Generation.ForwardWeight = -1 }},
		{"zero end", func(c *Config) { c.Generation.EndWeight = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conf := Defaults()
			test.adjust(conf)
			assert.ErrorIs(t, conf.Validate(), models.ErrInvalidWeights)
		})
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(*Config)
	}{
		{"zero budget", func(c *Config) { c.Generation.NodeBudget = 0 }},
		{"zero thread length", func(c *Config) { c.Generation.MaxThreadLength = 0 }},
		{"zero burst cap", func(c *Config) { c.Generation.BurstCap = 0 }},
		{"broken fraction one", func(c *Config) { c.Generation.BrokenFraction = 1 }},
		{"reattach above one", func(c *Config) { c.Generation.ReattachProb = 1.5 }},
		{"bad forward refs", func(c *Config) { c.Generation.ForwardRefsName = "partial" }},
		{"bad start date", func(c *Config) { c.Dates.StartDate = "yesterday" }},
		{"steps inverted", func(c *Config) { c.Dates.MinStep = time.Hour; c.Dates.MaxStep = time.Minute }},
		{"roster too small", func(c *Config) { c.Roster.Size = 1 }},
		{"unknown format", func(c *Config) { c.Output.Formats = []string{"pst"} }},
		{"no roots no target", func(c *Config) { c.Generation.Roots = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conf := Defaults()
			test.adjust(conf)
			assert.Error(t, conf.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailgen.conf")
	require.NoError(t, os.WriteFile(path, []byte(`
[generation]
seed = 42
max-thread-length = 5
forward-references = truncate
workers = 4

[dates]
start-date = 2023-06-01T08:00:00Z
min-step = 2m
max-step = 1h

[output]
formats = eml,markdown,json
verify = false
`), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), conf.Generation.Seed)
	assert.Equal(t, 5, conf.Generation.MaxThreadLength)
	assert.Equal(t, ForwardRefsTruncate, conf.Generation.ForwardRefs)
	assert.Equal(t, 4, conf.Generation.Workers)
	assert.Equal(t, time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC), conf.Dates.Start)
	assert.Equal(t, 2*time.Minute, conf.Dates.MinStep)
	assert.Equal(t, []string{"eml", "markdown", "json"}, conf.Output.Formats)
	assert.False(t, conf.Output.Verify)
	// untouched sections keep their defaults
	assert.Equal(t, 25, conf.Roster.Size)
}

func TestLoadMissingFile(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "absent.conf"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), conf.Generation.Seed)
}

func TestProbabilities(t *testing.T) {
	conf := Defaults()
	probs := conf.Generation.Probabilities()
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.4, probs[0], 1e-9)
	assert.InDelta(t, 0.1, probs[2], 1e-9)
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/models"
)

// ForwardRefs selects what a forward keeps in its References header.
type ForwardRefs int

const (
	// ForwardRefsFull keeps the complete ancestry chain.
	ForwardRefsFull ForwardRefs = iota
	// ForwardRefsTruncate keeps only the forwarded node's id, simulating
	// clients that treat a forward as a fresh thread.
	ForwardRefsTruncate
)

type GenerationConfig struct {
	Seed             int64       `ini:"seed"`
	Roots            int         `ini:"roots"`
	TargetLeaves     int         `ini:"target-leaves"`
	NodeBudget       int         `ini:"node-budget"`
	MaxThreadLength  int         `ini:"max-thread-length"`
	BurstCap         int         `ini:"burst-cap"`
	ReplyWeight      float64     `ini:"reply-weight"`
	ReplyAllWeight   float64     `ini:"reply-all-weight"`
	ForwardWeight    float64     `ini:"forward-weight"`
	EndWeight        float64     `ini:"end-weight"`
	ReattachProb     float64     `ini:"reattach-probability"`
	ForwardNewThread bool        `ini:"forward-new-thread"`
	ForwardRefsName  string      `ini:"forward-references"`
	ForwardRefs      ForwardRefs `ini:"-"`
	BrokenFraction   float64     `ini:"broken-fraction"`
	Topic            string      `ini:"topic"`
	Workers          int         `ini:"workers"`
}

type DatesConfig struct {
	StartDate string        `ini:"start-date"`
	Start     time.Time     `ini:"-"`
	MinStep   time.Duration `ini:"min-step"`
	MaxStep   time.Duration `ini:"max-step"`
}

type RosterConfig struct {
	Path       string `ini:"path"`
	Size       int    `ini:"size"`
	Company    string `ini:"company"`
	Department string `ini:"department"`
}

type AttachmentsConfig struct {
	RootRate       float64 `ini:"root-rate"`
	ForwardNewRate float64 `ini:"forward-new-rate"`
	RenderFiles    bool    `ini:"render-files"`
}

type OutputConfig struct {
	Dir     string   `ini:"dir"`
	Formats []string `ini:"formats" delim:","`
	Verify  bool     `ini:"verify"`
}

type LogConfig struct {
	Level string `ini:"level"`
	File  string `ini:"file"`
}

type Config struct {
	Generation  GenerationConfig
	Dates       DatesConfig
	Roster      RosterConfig
	Attachments AttachmentsConfig
	Output      OutputConfig
	Log         LogConfig
}

// Input: MaxThreadLength
// Output: max-thread-length
func mapName(raw string) string {
	newstr := make([]rune, 0, len(raw))
	for i, chr := range raw {
		if isUpper := 'A' <= chr && chr <= 'Z'; isUpper {
			if i > 0 {
				newstr = append(newstr, '-')
			}
		}
		newstr = append(newstr, unicode.ToLower(chr))
	}
	return string(newstr)
}

// Defaults returns a ready-to-run configuration. Every field can be
// overridden by the ini file or command line flags.
func Defaults() *Config {
	return &Config{
		Generation: GenerationConfig{
			Seed:             1,
			Roots:            3,
			TargetLeaves:     0,
			NodeBudget:       100,
			MaxThreadLength:  9,
			BurstCap:         4,
			ReplyWeight:      40,
			ReplyAllWeight:   40,
			ForwardWeight:    10,
			EndWeight:        10,
			ReattachProb:     0.1,
			ForwardNewThread: true,
			ForwardRefsName:  "full",
			BrokenFraction:   0,
			Workers:          1,
		},
		Dates: DatesConfig{
			// fixed reference date so that identical seeds yield
			// byte-identical corpora across runs
			StartDate: "2024-01-08T09:00:00Z",
			MinStep:   time.Minute,
			MaxStep:   2 * time.Hour,
		},
		Roster: RosterConfig{
			Path: "roster.json",
			Size: 25,
		},
		Attachments: AttachmentsConfig{
			RootRate:       0.3,
			ForwardNewRate: 0.3,
		},
		Output: OutputConfig{
			Dir:     "output",
			Formats: []string{"eml", "mbox"},
			Verify:  true,
		},
		Log: LogConfig{
			Level: "info",
			File:  "generator.log",
		},
	}
}

// Load reads the ini file at path on top of the defaults, then validates.
// A missing file is not an error; the defaults are validated and returned.
func Load(path string) (*Config, error) {
	conf := Defaults()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err := ini.LoadSources(ini.LoadOptions{
				KeyValueDelimiters: "=",
			}, path)
			if err != nil {
				return nil, errors.Wrap(err, "ini.LoadSources")
			}
			file.NameMapper = mapName
			if err := conf.parse(file); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (conf *Config) parse(file *ini.File) error {
	sections := map[string]any{
		"generation":  &conf.Generation,
		"dates":       &conf.Dates,
		"roster":      &conf.Roster,
		"attachments": &conf.Attachments,
		"output":      &conf.Output,
		"log":         &conf.Log,
	}
	for name, target := range sections {
		sec, err := file.GetSection(name)
		if err != nil {
			continue
		}
		if err := sec.MapTo(target); err != nil {
			return errors.Wrapf(err, "[%s]", name)
		}
	}
	return nil
}

// Validate resolves derived fields and rejects configurations that could
// stall or corrupt a run. Called once before generation; any error here is
// fatal.
func (conf *Config) Validate() error {
	gen := &conf.Generation
	weights := []float64{
		gen.ReplyWeight, gen.ReplyAllWeight, gen.ForwardWeight, gen.EndWeight,
	}
	for _, w := range weights {
		if w <= 0 {
			return errors.Wrapf(models.ErrInvalidWeights,
				"reply=%v reply-all=%v forward=%v end=%v",
				gen.ReplyWeight, gen.ReplyAllWeight,
				gen.ForwardWeight, gen.EndWeight)
		}
	}
	switch strings.ToLower(gen.ForwardRefsName) {
	case "", "full":
		gen.ForwardRefs = ForwardRefsFull
	case "truncate", "truncated":
		gen.ForwardRefs = ForwardRefsTruncate
	default:
		return fmt.Errorf("%s: invalid forward-references (want full or truncate)",
			gen.ForwardRefsName)
	}
	if gen.Roots < 1 && gen.TargetLeaves < 1 {
		return fmt.Errorf("either roots or target-leaves must be at least 1")
	}
	if gen.Roots < 0 {
		return fmt.Errorf("roots must not be negative")
	}
	if gen.NodeBudget < 1 {
		return fmt.Errorf("node-budget must be at least 1")
	}
	if gen.MaxThreadLength < 1 {
		return fmt.Errorf("max-thread-length must be at least 1")
	}
	if gen.BurstCap < 1 {
		return fmt.Errorf("burst-cap must be at least 1")
	}
	if gen.BrokenFraction < 0 || gen.BrokenFraction >= 1 {
		return fmt.Errorf("broken-fraction must be in [0, 1)")
	}
	if gen.ReattachProb < 0 || gen.ReattachProb > 1 {
		return fmt.Errorf("reattach-probability must be in [0, 1]")
	}
	if gen.Workers < 1 {
		gen.Workers = 1
	}

	dates := &conf.Dates
	if dates.StartDate != "" {
		start, err := time.Parse(time.RFC3339, dates.StartDate)
		if err != nil {
			return errors.Wrap(err, "start-date")
		}
		dates.Start = start
	}
	if dates.Start.IsZero() {
		dates.Start = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	}
	if dates.MinStep <= 0 || dates.MaxStep < dates.MinStep {
		return fmt.Errorf("date steps: want 0 < min-step <= max-step, got %s..%s",
			dates.MinStep, dates.MaxStep)
	}

	if conf.Roster.Size < 2 {
		return fmt.Errorf("roster size must be at least 2")
	}

	for _, f := range conf.Output.Formats {
		switch strings.TrimSpace(strings.ToLower(f)) {
		case "eml", "mbox", "maildir", "markdown", "json":
		default:
			return fmt.Errorf("%s: unknown output format", f)
		}
	}

	att := &conf.Attachments
	if att.RootRate < 0 || att.RootRate > 1 ||
		att.ForwardNewRate < 0 || att.ForwardNewRate > 1 {
		return fmt.Errorf("attachment rates must be in [0, 1]")
	}

	return nil
}

// Probabilities returns the normalized action distribution in the order
// reply, reply-all, forward, end.
func (gen *GenerationConfig) Probabilities() [4]float64 {
	total := gen.ReplyWeight + gen.ReplyAllWeight + gen.ForwardWeight + gen.EndWeight
	return [4]float64{
		gen.ReplyWeight / total,
		gen.ReplyAllWeight / total,
		gen.ForwardWeight / total,
		gen.EndWeight / total,
	}
}

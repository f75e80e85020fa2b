// Package questions provides the static question banks used by timed tests.
package questions

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed banks/*.yaml
var bankFS embed.FS

// Question is a single multiple-choice question.
type Question struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
	Answer  int      `yaml:"answer"`
}

// Bank is a named set of questions with a time limit.
type Bank struct {
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Duration     string     `yaml:"duration"`
	Instructions string     `yaml:"instructions"`
	Questions    []Question `yaml:"questions"`
}

// Seconds returns the bank's time limit in whole seconds.
func (b *Bank) Seconds() (int, error) {
	d, err := time.ParseDuration(b.Duration)
	if err != nil {
		return 0, fmt.Errorf("bank %s: duration: %w", b.ID, err)
	}
	return int(d / time.Second), nil
}

// Validate checks the bank is usable for a timed test.
func (b *Bank) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("bank has no id")
	}
	secs, err := b.Seconds()
	if err != nil {
		return err
	}
	if secs <= 0 {
		return fmt.Errorf("bank %s: duration must be positive", b.ID)
	}
	if len(b.Questions) == 0 {
		return fmt.Errorf("bank %s: no questions", b.ID)
	}
	for i, q := range b.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("bank %s: question %d has no prompt", b.ID, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("bank %s: question %d needs at least 2 options", b.ID, i+1)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("bank %s: question %d answer %d out of range", b.ID, i+1, q.Answer)
		}
	}
	return nil
}

// Score counts correct answers. answers maps question index to option index.
func (b *Bank) Score(answers map[int]int) int {
	score := 0
	for i, q := range b.Questions {
		if a, ok := answers[i]; ok && a == q.Answer {
			score++
		}
	}
	return score
}

// Catalog holds banks by ID.
type Catalog struct {
	banks map[string]*Bank
}

// Load parses and validates the embedded banks.
func Load() (*Catalog, error) {
	entries, err := bankFS.ReadDir("banks")
	if err != nil {
		return nil, fmt.Errorf("read banks: %w", err)
	}

	c := &Catalog{banks: make(map[string]*Bank, len(entries))}
	for _, e := range entries {
		data, err := bankFS.ReadFile(path.Join("banks", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		b, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if _, dup := c.banks[b.ID]; dup {
			return nil, fmt.Errorf("duplicate bank id %q", b.ID)
		}
		c.banks[b.ID] = b
	}
	return c, nil
}

// Parse decodes and validates a single YAML bank.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get returns the bank with the given ID.
func (c *Catalog) Get(id string) (*Bank, error) {
	b, ok := c.banks[id]
	if !ok {
		return nil, fmt.Errorf("unknown bank %q (available: %v)", id, c.IDs())
	}
	return b, nil
}

// IDs returns all bank IDs in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.banks))
	for id := range c.banks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package questions

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_EmbeddedBanks(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"logical", "quantitative", "verbal"}
	if diff := cmp.Diff(want, c.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}

	b, err := c.Get("quantitative")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	secs, err := b.Seconds()
	if err != nil {
		t.Fatalf("Seconds() error = %v", err)
	}
	if secs != 600 {
		t.Errorf("Seconds() = %d, want 600", secs)
	}
	if b.Instructions == "" {
		t.Error("Instructions is empty")
	}
}

func TestCatalog_GetUnknown(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	_, err = c.Get("astrology")
	if err == nil {
		t.Fatal("Get() should error for unknown bank")
	}
	if !strings.Contains(err.Error(), "quantitative") {
		t.Errorf("error %q should list available banks", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "id: [x"},
		{"no id", "duration: 1m\nquestions:\n  - prompt: a\n    options: [x, y]\n"},
		{"bad duration", "id: x\nduration: later\nquestions:\n  - prompt: a\n    options: [x, y]\n"},
		{"zero duration", "id: x\nduration: 0s\nquestions:\n  - prompt: a\n    options: [x, y]\n"},
		{"no questions", "id: x\nduration: 1m\n"},
		{"one option", "id: x\nduration: 1m\nquestions:\n  - prompt: a\n    options: [x]\n"},
		{"answer out of range", "id: x\nduration: 1m\nquestions:\n  - prompt: a\n    options: [x, y]\n    answer: 2\n"},
		{"empty prompt", "id: x\nduration: 1m\nquestions:\n  - options: [x, y]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() should error")
			}
		})
	}
}

func TestBank_Score(t *testing.T) {
	b := &Bank{
		ID:       "t",
		Duration: "1m",
		Questions: []Question{
			{Prompt: "a", Options: []string{"x", "y"}, Answer: 0},
			{Prompt: "b", Options: []string{"x", "y"}, Answer: 1},
			{Prompt: "c", Options: []string{"x", "y", "z"}, Answer: 2},
		},
	}

	tests := []struct {
		name    string
		answers map[int]int
		want    int
	}{
		{"none", nil, 0},
		{"all correct", map[int]int{0: 0, 1: 1, 2: 2}, 3},
		{"partial", map[int]int{0: 0, 1: 0}, 1},
		{"out of range index ignored", map[int]int{7: 0, 2: 2}, 1},
	}

	for _, tt := range tests {
		if got := b.Score(tt.answers); got != tt.want {
			t.Errorf("%s: Score() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

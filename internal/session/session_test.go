package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pengelbrecht/aptitude/internal/questions"
)

func testBank() *questions.Bank {
	return &questions.Bank{
		ID:       "sample",
		Title:    "Sample",
		Duration: "1m",
		Questions: []questions.Question{
			{Prompt: "1+1", Options: []string{"1", "2"}, Answer: 1},
			{Prompt: "2+2", Options: []string{"4", "5", "6"}, Answer: 0},
		},
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(testBank(), now)

	if s.ID == "" {
		t.Error("ID is empty")
	}
	if !s.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", s.StartedAt, now)
	}
	if s.Ended() {
		t.Error("new session reports Ended()")
	}

	other := New(testBank(), now)
	if other.ID == s.ID {
		t.Error("two sessions share an ID")
	}
}

func TestSession_Answer(t *testing.T) {
	s := New(testBank(), time.Now())

	tests := []struct {
		name   string
		q, opt int
		want   bool
	}{
		{"valid", 0, 1, true},
		{"change answer", 0, 0, true},
		{"question out of range", 5, 0, false},
		{"negative question", -1, 0, false},
		{"option out of range", 1, 3, false},
	}

	for _, tt := range tests {
		if got := s.Answer(tt.q, tt.opt); got != tt.want {
			t.Errorf("%s: Answer(%d, %d) = %v, want %v", tt.name, tt.q, tt.opt, got, tt.want)
		}
	}

	if got, ok := s.Selected(0); !ok || got != 0 {
		t.Errorf("Selected(0) = %d, %v, want 0, true", got, ok)
	}
	if s.Answered() != 1 {
		t.Errorf("Answered() = %d, want 1", s.Answered())
	}
}

func TestSession_FinishOnce(t *testing.T) {
	s := New(testBank(), time.Now())
	end := time.Date(2026, 1, 2, 3, 10, 0, 0, time.UTC)

	if !s.Finish(end, EndExpired, 0) {
		t.Fatal("first Finish() returned false")
	}
	if s.Finish(end.Add(time.Minute), EndSubmitted, 30) {
		t.Error("second Finish() returned true")
	}
	if s.EndReason != EndExpired {
		t.Errorf("EndReason = %q, want %q", s.EndReason, EndExpired)
	}
	if !s.EndedAt.Equal(end) {
		t.Errorf("EndedAt = %v, want %v", s.EndedAt, end)
	}
	if s.Answer(0, 1) {
		t.Error("Answer() accepted after Finish()")
	}
}

func TestSession_Result(t *testing.T) {
	s := New(testBank(), time.Now())
	s.Answer(0, 1)
	s.Answer(1, 2)
	s.Finish(time.Now(), EndSubmitted, 12)

	r := s.Result()
	if r.Score != 1 || r.Total != 2 {
		t.Errorf("Score/Total = %d/%d, want 1/2", r.Score, r.Total)
	}
	if r.Percent() != 50 {
		t.Errorf("Percent() = %f, want 50", r.Percent())
	}
	if r.RemainingSeconds != 12 {
		t.Errorf("RemainingSeconds = %d, want 12", r.RemainingSeconds)
	}
	if r.Bank != "sample" {
		t.Errorf("Bank = %q, want %q", r.Bank, "sample")
	}
}

func TestManager_SaveLoadList(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerWithDir(filepath.Join(dir, "nested"))

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := &Result{ID: "older", Bank: "b", EndedAt: base, EndReason: EndExpired, Answers: map[int]int{0: 1}, Score: 1, Total: 2}
	newer := &Result{ID: "newer", Bank: "b", EndedAt: base.Add(time.Hour), EndReason: EndSubmitted, Answers: map[int]int{}, Total: 2}

	for _, r := range []*Result{older, newer} {
		if err := m.Save(r); err != nil {
			t.Fatalf("Save(%s) error = %v", r.ID, err)
		}
	}

	loaded, err := m.Load("older")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(older, loaded); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	// A corrupt file is skipped by List.
	if err := os.WriteFile(filepath.Join(m.Dir(), "bad.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d results, want 2", len(list))
	}
	if list[0].ID != "newer" || list[1].ID != "older" {
		t.Errorf("List() order = [%s %s], want [newer older]", list[0].ID, list[1].ID)
	}
}

func TestManager_Errors(t *testing.T) {
	m := NewManagerWithDir(t.TempDir())

	if err := m.Save(&Result{}); err == nil {
		t.Error("Save() should error on empty ID")
	}
	if _, err := m.Load("missing"); err == nil {
		t.Error("Load() should error for missing result")
	}

	empty := NewManagerWithDir(filepath.Join(t.TempDir(), "absent"))
	list, err := empty.List()
	if err != nil {
		t.Errorf("List() on missing dir error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() on missing dir = %d results, want 0", len(list))
	}
}

func TestNewManager(t *testing.T) {
	if got := NewManager().Dir(); got != DefaultDir {
		t.Errorf("Dir() = %q, want %q", got, DefaultDir)
	}
}

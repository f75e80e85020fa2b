// Package session tracks a single candidate attempt at a question bank.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/pengelbrecht/aptitude/internal/questions"
)

// EndReason describes why a session ended.
type EndReason string

const (
	EndNone      EndReason = ""
	EndSubmitted EndReason = "submitted"
	EndExpired   EndReason = "expired"
	EndCancelled EndReason = "cancelled"
)

// Session is one attempt at a bank.
type Session struct {
	ID        string
	Bank      *questions.Bank
	StartedAt time.Time
	EndedAt   time.Time
	EndReason EndReason

	// RemainingSeconds is the time left on the clock when the session ended.
	RemainingSeconds int

	answers map[int]int
}

// New starts a session for bank.
func New(bank *questions.Bank, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Bank:      bank,
		StartedAt: now,
		answers:   make(map[int]int),
	}
}

// Answer records the chosen option for question q. Answers after the session
// has ended, or out of range, are ignored.
func (s *Session) Answer(q, option int) bool {
	if s.Ended() {
		return false
	}
	if q < 0 || q >= len(s.Bank.Questions) {
		return false
	}
	if option < 0 || option >= len(s.Bank.Questions[q].Options) {
		return false
	}
	s.answers[q] = option
	return true
}

// Selected returns the chosen option for question q.
func (s *Session) Selected(q int) (int, bool) {
	a, ok := s.answers[q]
	return a, ok
}

// Answered returns the number of answered questions.
func (s *Session) Answered() int {
	return len(s.answers)
}

// Ended reports whether Finish has been called.
func (s *Session) Ended() bool {
	return s.EndReason != EndNone
}

// Finish ends the session. Only the first call has any effect.
func (s *Session) Finish(now time.Time, reason EndReason, remaining int) bool {
	if s.Ended() || reason == EndNone {
		return false
	}
	s.EndedAt = now
	s.EndReason = reason
	s.RemainingSeconds = remaining
	return true
}

// Result summarizes a finished session for persistence.
type Result struct {
	ID               string      `json:"id"`
	Bank             string      `json:"bank"`
	StartedAt        time.Time   `json:"started_at"`
	EndedAt          time.Time   `json:"ended_at"`
	EndReason        EndReason   `json:"end_reason"`
	RemainingSeconds int         `json:"remaining_seconds"`
	Answers          map[int]int `json:"answers"`
	Score            int         `json:"score"`
	Total            int         `json:"total"`
}

// Result scores the session against its bank.
func (s *Session) Result() *Result {
	answers := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return &Result{
		ID:               s.ID,
		Bank:             s.Bank.ID,
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		EndReason:        s.EndReason,
		RemainingSeconds: s.RemainingSeconds,
		Answers:          answers,
		Score:            s.Bank.Score(s.answers),
		Total:            len(s.Bank.Questions),
	}
}

// Percent returns the score as a percentage of the total.
func (r *Result) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Score) * 100 / float64(r.Total)
}

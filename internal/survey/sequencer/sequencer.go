// Package sequencer randomizes question order for a session and tracks the
// respondent's position in it.
package sequencer

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"rumble-survey/internal/models"
)

// Source draws a uniform int in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewRand returns a PCG-backed generator. A zero seed picks one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffle returns a uniformly random permutation of items (Fisher-Yates on a
// copy). items is left untouched.
func Shuffle[T any](items []T, rng Source) []T {
	out := slices.Clone(items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Session is one respondent's shuffled queue and 0-based position.
type Session struct {
	Queue    []models.QuestionSet
	Position int
}

// NewSession shuffles questions into a new queue starting at position 0.
func NewSession(questions []models.QuestionSet, rng Source) *Session {
	return &Session{Queue: Shuffle(questions, rng)}
}

// Current returns the question at the current position, false once the queue is exhausted.
func (s *Session) Current() (models.QuestionSet, bool) {
	if s.Done() {
		return models.QuestionSet{}, false
	}
	return s.Queue[s.Position], true
}

func (s *Session) Advance() {
	if !s.Done() {
		s.Position++
	}
}

func (s *Session) Done() bool {
	return s.Position >= len(s.Queue)
}

func (s *Session) Len() int {
	return len(s.Queue)
}

// Progress returns the 1-based question number being shown and the rounded
// percentage it represents.
func (s *Session) Progress() (number, percent int) {
	if len(s.Queue) == 0 {
		return 0, 100
	}
	number = min(s.Position+1, len(s.Queue))
	percent = int(math.Round(float64(number) / float64(len(s.Queue)) * 100))
	return number, percent
}

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
)

var (
	ErrEmptyPool       = errors.New("question pool is empty")
	ErrInvalidQuestion = errors.New("invalid question")
)

// Question is one multiple-choice item of the pool, never mutated once loaded
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctAnswer"`
}

// Validate checks that the question is answerable
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: %q needs at least two options", ErrInvalidQuestion, q.Prompt)
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return fmt.Errorf("%w: %q has correct option %d out of range", ErrInvalidQuestion, q.Prompt, q.CorrectOption)
	}
	return nil
}

// Pool is the static, read-only set of questions matches draw from
type Pool struct {
	questions []Question
}

// NewPool validates qs and builds a pool from a private copy
func NewPool(qs []Question) (*Pool, error) {
	if len(qs) == 0 {
		return nil, ErrEmptyPool
	}
	cp := make([]Question, len(qs))
	for i, q := range qs {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		q.Options = append([]string(nil), q.Options...)
		cp[i] = q
	}
	return &Pool{questions: cp}, nil
}

// LoadPool decodes a JSON array of questions
func LoadPool(r io.Reader) (*Pool, error) {
	var qs []Question
	if err := json.NewDecoder(r).Decode(&qs); err != nil {
		return nil, fmt.Errorf("decode question pool: %w", err)
	}
	return NewPool(qs)
}

// Len returns the number of questions in the pool
func (p *Pool) Len() int { return len(p.questions) }

// Select draws min(n, Len) distinct questions in shuffled order
func (p *Pool) Select(n int, rng *rand.Rand) []Question {
	if n <= 0 {
		return nil
	}
	if n > len(p.questions) {
		n = len(p.questions)
	}
	perm := rng.Perm(len(p.questions))
	out := make([]Question, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, p.questions[idx])
	}
	return out
}

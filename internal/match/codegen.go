package match

import (
	"errors"

	"quizduel/internal/util"
)

const (
	DefaultCodeLength  = 6
	defaultMaxAttempts = 64
)

var ErrCodeSpaceExhausted = errors.New("could not find a free room code")

// CodeGenerator produces short human-shareable room codes over util.CodeAlphabet
type CodeGenerator struct {
	Length      int
	MaxAttempts int
	rand        func(n int) (string, error)
}

// NewCodeGenerator returns a generator for codes of the given length
func NewCodeGenerator(length int) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeGenerator{
		Length:      length,
		MaxAttempts: defaultMaxAttempts,
		rand:        util.RandCode,
	}
}

// Generate samples candidates until exists reports one as free.
// The result is only free at the moment of the check; inserting it must re-check.
func (g *CodeGenerator) Generate(exists func(code string) bool) (string, error) {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	for i := 0; i < attempts; i++ {
		code, err := g.rand(g.Length)
		if err != nil {
			return "", err
		}
		if exists == nil || !exists(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

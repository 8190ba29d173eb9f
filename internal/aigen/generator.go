package aigen

import (
	"context"
	"errors"
	"strings"

	"github.com/alexdossss/study-hub/internal/llm"
)

// MinSourceLength is the minimum trimmed input accepted for flashcards.
const MinSourceLength = 20

var (
	ErrSourceTooShort = errors.New("no input text provided or text too short")
	ErrEmptyOutput    = errors.New("no content returned from AI")
)

// Completer is the subset of llm.Client the generator needs.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// OutputError carries the raw model output that failed to parse.
type OutputError struct {
	Err error
	Raw string
}

func (e *OutputError) Error() string { return e.Err.Error() }
func (e *OutputError) Unwrap() error { return e.Err }

type Generator struct {
	llm Completer
}

func NewGenerator(c Completer) *Generator {
	return &Generator{llm: c}
}

func (g *Generator) complete(ctx context.Context, req llm.Request) (string, error) {
	if g.llm == nil || !g.llm.Configured() {
		return "", llm.ErrNotConfigured
	}
	raw, err := g.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyOutput
	}
	return raw, nil
}

func (g *Generator) Flashcards(ctx context.Context, source string) (FlashcardResult, error) {
	if len(strings.TrimSpace(source)) < MinSourceLength {
		return FlashcardResult{}, ErrSourceTooShort
	}
	raw, err := g.complete(ctx, llm.Request{
		System:      flashcardSystemPrompt,
		User:        flashcardUserPrompt(source),
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return FlashcardResult{}, err
	}
	result, err := ParseFlashcards(raw)
	if err != nil {
		return FlashcardResult{}, &OutputError{Err: err, Raw: raw}
	}
	return result, nil
}

func (g *Generator) Quiz(ctx context.Context, contextText string, n int) (QuizResult, error) {
	n = ClampQuestionCount(n)
	raw, err := g.complete(ctx, llm.Request{
		System:      quizSystemPrompt(n),
		User:        quizUserPrompt(contextText, n),
		Temperature: 0.3,
		MaxTokens:   1600,
	})
	if err != nil {
		return QuizResult{}, err
	}
	result, err := ParseQuiz(raw, n)
	if err != nil {
		return QuizResult{}, &OutputError{Err: err, Raw: raw}
	}
	return result, nil
}

package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexdossss/study-hub/internal/store"
)

// converter turns rendered HTML into the final document.
type converter func(ctx context.Context, html string, sheet Sheet) (*Result, error)

// Service provides study sheet export.
type Service struct {
	converters map[Format]converter
	now        func() time.Time
	log        zerolog.Logger
}

func NewService(log zerolog.Logger) *Service {
	return &Service{
		converters: map[Format]converter{
			FormatPDF:  exportPDF,
			FormatDOCX: exportDOCX,
		},
		now: time.Now,
		log: log.With().Str("component", "export").Logger(),
	}
}

// DeckSheet lays out a deck with each answer under its question.
func DeckSheet(deck store.Deck, cards []store.Flashcard, author string) Sheet {
	sheet := Sheet{
		Kind:     "Flashcards",
		Title:    deck.Title,
		Subtitle: deck.Subject,
		Author:   author,
		Items:    make([]SheetItem, 0, len(cards)),
	}
	for _, card := range cards {
		sheet.Items = append(sheet.Items, SheetItem{Prompt: card.Question, Answer: card.Answer})
	}
	return sheet
}

// QuizSheet lays out a quiz with choices inline and an answer key at the end.
func QuizSheet(quiz store.Quiz, author string) Sheet {
	sheet := Sheet{
		Kind:      "Quiz",
		Title:     quiz.Title,
		Subtitle:  quiz.Description,
		Author:    author,
		AnswerKey: true,
		Items:     make([]SheetItem, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		sheet.Items = append(sheet.Items, SheetItem{Prompt: q.QuestionText, Choices: q.Choices, Answer: q.CorrectAnswer})
	}
	if sheet.Subtitle == "" {
		sheet.Subtitle = strconv.Itoa(len(quiz.Questions)) + " questions"
	}
	return sheet
}

// Export renders the sheet and converts it to the requested format.
func (s *Service) Export(ctx context.Context, sheet Sheet, format Format) (*Result, error) {
	convert, ok := s.converters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if sheet.GeneratedAt.IsZero() {
		sheet.GeneratedAt = s.now()
	}

	html, err := RenderSheetHTML(sheet)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := convert(ctx, html, sheet)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("format", string(format)).
		Int("items", len(sheet.Items)).
		Int("bytes", len(result.Data)).
		Dur("took", time.Since(started)).
		Msg("study sheet exported")
	return result, nil
}

package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexdossss/study-hub/internal/aigen"
	"github.com/alexdossss/study-hub/internal/llm"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

const generatedQuizDescription = "AI generated from user context"

type GenerateFlashcardsInput struct {
	Text    string `json:"text"`
	Content string `json:"content"`
	DeckID  string `json:"deckId"`
}

// SourceText prefers text over content.
func (in GenerateFlashcardsInput) SourceText() string {
	if strings.TrimSpace(in.Text) != "" {
		return in.Text
	}
	return in.Content
}

type GenerateQuizInput struct {
	ContextText  string `json:"contextText"`
	NumQuestions int    `json:"numQuestions"`
	Title        string `json:"title"`
}

// generationError converts generator failures into API errors.
func generationError(err error) error {
	var upstreamErr *llm.UpstreamError
	var output *aigen.OutputError
	switch {
	case errors.Is(err, aigen.ErrSourceTooShort):
		return badRequest("No input text provided or text too short")
	case errors.Is(err, llm.ErrNotConfigured):
		return domainError(http.StatusInternalServerError, "SERVER_ERROR", "OpenAI API key not configured", nil)
	case errors.As(err, &upstreamErr):
		return upstream("OpenAI request failed", upstreamErr.Detail())
	case errors.Is(err, aigen.ErrEmptyOutput):
		return domainError(http.StatusInternalServerError, "SERVER_ERROR", "No content returned from AI", nil)
	case errors.As(err, &output):
		return domainError(http.StatusInternalServerError, "SERVER_ERROR", "Failed to parse AI response", map[string]any{"raw": output.Raw})
	}
	return err
}

func (s *Service) generatorOrError() (Generator, error) {
	if s.generator == nil {
		return nil, domainError(http.StatusInternalServerError, "SERVER_ERROR", "OpenAI API key not configured", nil)
	}
	return s.generator, nil
}

// GenerateFlashcards asks the model for question/answer pairs. With a deck
// id the pairs are also added to that deck.
func (s *Service) GenerateFlashcards(ctx context.Context, session Session, input GenerateFlashcardsInput) (map[string]any, error) {
	generator, err := s.generatorOrError()
	if err != nil {
		return nil, err
	}

	var deck *store.Deck
	if deckID := strings.TrimSpace(input.DeckID); deckID != "" {
		owned, err := s.ownedDeck(ctx, deckID, session.UserID)
		if err != nil {
			return nil, err
		}
		deck = &owned
	}

	result, err := generator.Flashcards(ctx, input.SourceText())
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", session.UserID).Msg("flashcard generation failed")
		return nil, generationError(err)
	}

	payload := map[string]any{
		"flashcards": result.Cards,
		"degraded":   result.Degraded(),
		"parseMode":  result.ParseMode,
	}
	if deck != nil {
		cards := make([]store.Flashcard, 0, len(result.Cards))
		for _, card := range result.Cards {
			cards = append(cards, store.Flashcard{
				ID:       util.NewID("card"),
				DeckID:   deck.ID,
				Question: card.Question,
				Answer:   card.Answer,
			})
		}
		inserted, err := s.store.InsertFlashcards(ctx, cards)
		if err != nil {
			return nil, err
		}
		payload["inserted"] = flashcardPayloads(inserted)
	}
	return payload, nil
}

// GenerateQuiz builds a quiz from free text and saves it for the caller.
func (s *Service) GenerateQuiz(ctx context.Context, session Session, input GenerateQuizInput) (map[string]any, error) {
	if strings.TrimSpace(input.ContextText) == "" {
		return nil, badRequest("contextText (string) is required")
	}
	generator, err := s.generatorOrError()
	if err != nil {
		return nil, err
	}

	result, err := generator.Quiz(ctx, input.ContextText, aigen.ClampQuestionCount(input.NumQuestions))
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", session.UserID).Msg("quiz generation failed")
		return nil, generationError(err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = result.Title
	}
	quiz, err := s.store.CreateQuiz(ctx, store.Quiz{
		ID:          util.NewID("quiz"),
		UserID:      session.UserID,
		Title:       title,
		Description: generatedQuizDescription,
		Questions:   result.Questions,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"quiz":      quizPayload(quiz),
		"degraded":  result.Degraded(),
		"parseMode": result.ParseMode,
	}, nil
}

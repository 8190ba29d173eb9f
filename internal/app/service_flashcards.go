package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexdossss/study-hub/internal/export"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

type CreateDeckInput struct {
	Title    string `json:"title"`
	Subject  string `json:"subject" validate:"max=120"`
	IsPublic bool   `json:"isPublic"`
}

type UpdateDeckInput struct {
	Title    *string `json:"title"`
	Subject  *string `json:"subject" validate:"omitempty,max=120"`
	IsPublic *bool   `json:"isPublic"`
}

type CardInput struct {
	Question string `json:"question" validate:"required,notblank"`
	Answer   string `json:"answer" validate:"required,notblank"`
}

type AddCardsInput struct {
	Cards []CardInput `json:"cards" validate:"dive"`
}

type UpdateCardInput struct {
	Question        *string    `json:"question"`
	Answer          *string    `json:"answer"`
	RememberedCount *int       `json:"rememberedCount" validate:"omitempty,min=0"`
	ForgottenCount  *int       `json:"forgottenCount" validate:"omitempty,min=0"`
	LastReviewed    *time.Time `json:"lastReviewed"`
}

func (s *Service) loadDeck(ctx context.Context, deckID string) (store.Deck, error) {
	deck, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Deck{}, notFound("Deck not found")
		}
		return store.Deck{}, err
	}
	return deck, nil
}

func (s *Service) ownedDeck(ctx context.Context, deckID, userID string) (store.Deck, error) {
	deck, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return store.Deck{}, err
	}
	if deck.UserID != userID {
		return store.Deck{}, forbidden("Not authorized")
	}
	return deck, nil
}

func (s *Service) CreateDeck(ctx context.Context, session Session, input CreateDeckInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, badRequest("Title is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	deck, err := s.store.CreateDeck(ctx, store.Deck{
		ID:       util.NewID("deck"),
		UserID:   session.UserID,
		Title:    title,
		Subject:  strings.TrimSpace(input.Subject),
		IsPublic: input.IsPublic,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"deck": deckPayload(deck)}, nil
}

func (s *Service) ListDecks(ctx context.Context, session Session) (map[string]any, error) {
	decks, err := s.store.ListDecks(ctx, session.UserID, "")
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(decks))
	for _, deck := range decks {
		items = append(items, deckPayload(deck))
	}
	return map[string]any{"decks": items}, nil
}

func (s *Service) ListPublicDecks(ctx context.Context, subject string) (map[string]any, error) {
	decks, err := s.store.ListDecks(ctx, "", strings.TrimSpace(subject))
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(decks))
	for _, deck := range decks {
		items = append(items, deckPayload(deck))
	}
	return map[string]any{"decks": items}, nil
}

func (s *Service) GetDeck(ctx context.Context, session Session, deckID string) (map[string]any, error) {
	deck, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if !deck.IsPublic && deck.UserID != session.UserID {
		return nil, forbidden("Not authorized to view this deck")
	}
	cards, err := s.store.ListFlashcards(ctx, deck.ID)
	if err != nil {
		return nil, err
	}
	payload := deckPayload(deck)
	payload["cards"] = flashcardPayloads(cards)
	return map[string]any{"deck": payload}, nil
}

func (s *Service) UpdateDeck(ctx context.Context, session Session, deckID string, input UpdateDeckInput) (map[string]any, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	deck, err := s.ownedDeck(ctx, deckID, session.UserID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, badRequest("Title is required")
		}
		deck.Title = title
	}
	if input.Subject != nil {
		deck.Subject = strings.TrimSpace(*input.Subject)
	}
	if input.IsPublic != nil {
		deck.IsPublic = *input.IsPublic
	}
	updated, err := s.store.UpdateDeck(ctx, deck)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deck": deckPayload(updated)}, nil
}

func (s *Service) DeleteDeck(ctx context.Context, session Session, deckID string) (map[string]any, error) {
	deck, err := s.ownedDeck(ctx, deckID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteDeck(ctx, deck.ID); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Deck and associated cards deleted"}, nil
}

func (s *Service) AddCards(ctx context.Context, session Session, deckID string, input AddCardsInput) (map[string]any, error) {
	if len(input.Cards) == 0 {
		return nil, badRequest("cards array required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	deck, err := s.ownedDeck(ctx, deckID, session.UserID)
	if err != nil {
		return nil, err
	}
	cards := make([]store.Flashcard, 0, len(input.Cards))
	for _, card := range input.Cards {
		cards = append(cards, store.Flashcard{
			ID:       util.NewID("card"),
			DeckID:   deck.ID,
			Question: strings.TrimSpace(card.Question),
			Answer:   strings.TrimSpace(card.Answer),
		})
	}
	inserted, err := s.store.InsertFlashcards(ctx, cards)
	if err != nil {
		return nil, err
	}
	return map[string]any{"inserted": flashcardPayloads(inserted)}, nil
}

// cardWithDeck loads a card and checks the caller owns its deck.
func (s *Service) cardWithDeck(ctx context.Context, cardID, userID string) (store.Flashcard, error) {
	card, err := s.store.GetFlashcard(ctx, cardID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Flashcard{}, notFound("Card not found")
		}
		return store.Flashcard{}, err
	}
	deck, err := s.store.GetDeck(ctx, card.DeckID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Flashcard{}, notFound("Parent deck not found")
		}
		return store.Flashcard{}, err
	}
	if deck.UserID != userID {
		return store.Flashcard{}, forbidden("Not authorized")
	}
	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, session Session, cardID string, input UpdateCardInput) (map[string]any, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	card, err := s.cardWithDeck(ctx, cardID, session.UserID)
	if err != nil {
		return nil, err
	}
	if input.Question != nil {
		if q := strings.TrimSpace(*input.Question); q != "" {
			card.Question = q
		}
	}
	if input.Answer != nil {
		if a := strings.TrimSpace(*input.Answer); a != "" {
			card.Answer = a
		}
	}
	if input.RememberedCount != nil {
		card.RememberedCount = *input.RememberedCount
	}
	if input.ForgottenCount != nil {
		card.ForgottenCount = *input.ForgottenCount
	}
	if input.LastReviewed != nil {
		card.LastReviewed = input.LastReviewed
	}
	updated, err := s.store.UpdateFlashcard(ctx, card)
	if err != nil {
		return nil, err
	}
	return map[string]any{"card": flashcardPayload(updated)}, nil
}

func (s *Service) DeleteCard(ctx context.Context, session Session, cardID string) (map[string]any, error) {
	card, err := s.cardWithDeck(ctx, cardID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteFlashcard(ctx, card.ID); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Card deleted"}, nil
}

func (s *Service) ExportDeck(ctx context.Context, session Session, deckID, format string) (*export.Result, error) {
	deck, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if !deck.IsPublic && deck.UserID != session.UserID {
		return nil, forbidden("Not authorized to view this deck")
	}
	cards, err := s.store.ListFlashcards(ctx, deck.ID)
	if err != nil {
		return nil, err
	}
	author, err := s.authorName(ctx, deck.UserID)
	if err != nil {
		return nil, err
	}
	return s.exportSheet(ctx, export.DeckSheet(deck, cards, author), format)
}

func (s *Service) authorName(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return user.Username, nil
}

func (s *Service) exportSheet(ctx context.Context, sheet export.Sheet, rawFormat string) (*export.Result, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, badRequest("format must be pdf or docx")
	}
	if s.exporter == nil {
		return nil, unavailable("EXPORT_UNAVAILABLE", "Export not configured")
	}
	result, err := s.exporter.Export(ctx, sheet, format)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
			return nil, unavailable("EXPORT_UNAVAILABLE", err.Error())
		}
		return nil, err
	}
	return result, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
)

const deckQuery = `
	SELECT d.id, d.user_id, d.title, d.subject, d.is_public,
		(SELECT COUNT(*) FROM flashcards c WHERE c.deck_id = d.id),
		d.created_at, d.updated_at
	FROM flashcard_decks d
`

func scanDeck(row interface{ Scan(...any) error }) (Deck, error) {
	var item Deck
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Subject, &item.IsPublic, &item.CardsCount, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) CreateDeck(ctx context.Context, deck Deck) (Deck, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO flashcard_decks (id, user_id, title, subject, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, deck.ID, deck.UserID, deck.Title, deck.Subject, deck.IsPublic).Scan(&deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		return Deck{}, fmt.Errorf("insert deck: %w", err)
	}
	return deck, nil
}

func (s *PostgresStore) GetDeck(ctx context.Context, deckID string) (Deck, error) {
	item, err := scanDeck(s.db.QueryRowContext(ctx, deckQuery+` WHERE d.id=$1`, deckID))
	if err != nil {
		return Deck{}, fmt.Errorf("get deck: %w", err)
	}
	return item, nil
}

// ListDecks returns decks owned by userID, or public decks when userID is
// empty. subject filters public decks only.
func (s *PostgresStore) ListDecks(ctx context.Context, userID, subject string) ([]Deck, error) {
	rows, err := s.db.QueryContext(ctx, deckQuery+`
		WHERE ($1 <> '' AND d.user_id = $1)
		   OR ($1 = '' AND d.is_public AND ($2 = '' OR d.subject = $2))
		ORDER BY d.created_at DESC, d.id DESC
	`, userID, subject)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	items := make([]Deck, 0)
	for rows.Next() {
		item, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateDeck(ctx context.Context, deck Deck) (Deck, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE flashcard_decks
		SET title=$2, subject=$3, is_public=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, deck.ID, deck.Title, deck.Subject, deck.IsPublic).Scan(&deck.UpdatedAt)
	if err != nil {
		return Deck{}, fmt.Errorf("update deck: %w", err)
	}
	return deck, nil
}

func (s *PostgresStore) DeleteDeck(ctx context.Context, deckID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM flashcard_decks WHERE id=$1`, deckID); err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	return nil
}

// InsertFlashcards adds all cards in one transaction.
func (s *PostgresStore) InsertFlashcards(ctx context.Context, cards []Flashcard) ([]Flashcard, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert flashcards tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flashcards (id, deck_id, question, answer)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert flashcard: %w", err)
	}
	defer stmt.Close()

	inserted := make([]Flashcard, 0, len(cards))
	for _, card := range cards {
		if err := stmt.QueryRowContext(ctx, card.ID, card.DeckID, card.Question, card.Answer).Scan(&card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("insert flashcard: %w", err)
		}
		inserted = append(inserted, card)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE flashcard_decks SET updated_at=NOW() WHERE id=$1`, cards[0].DeckID); err != nil {
		return nil, fmt.Errorf("touch deck: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert flashcards: %w", err)
	}
	return inserted, nil
}

const flashcardColumns = `id, deck_id, question, answer, remembered_count, forgotten_count, last_reviewed, created_at, updated_at`

func scanFlashcard(row interface{ Scan(...any) error }) (Flashcard, error) {
	var item Flashcard
	err := row.Scan(&item.ID, &item.DeckID, &item.Question, &item.Answer, &item.RememberedCount, &item.ForgottenCount, &item.LastReviewed, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) ListFlashcards(ctx context.Context, deckID string) ([]Flashcard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+flashcardColumns+`
		FROM flashcards
		WHERE deck_id=$1
		ORDER BY created_at ASC, id ASC
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	defer rows.Close()

	items := make([]Flashcard, 0)
	for rows.Next() {
		item, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flashcards: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetFlashcard(ctx context.Context, cardID string) (Flashcard, error) {
	item, err := scanFlashcard(s.db.QueryRowContext(ctx, `SELECT `+flashcardColumns+` FROM flashcards WHERE id=$1`, cardID))
	if err != nil {
		return Flashcard{}, fmt.Errorf("get flashcard: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateFlashcard(ctx context.Context, card Flashcard) (Flashcard, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE flashcards
		SET question=$2, answer=$3, remembered_count=$4, forgotten_count=$5, last_reviewed=$6, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, card.ID, card.Question, card.Answer, card.RememberedCount, card.ForgottenCount, card.LastReviewed).Scan(&card.UpdatedAt)
	if err != nil {
		return Flashcard{}, fmt.Errorf("update flashcard: %w", err)
	}
	return card, nil
}

func (s *PostgresStore) DeleteFlashcard(ctx context.Context, cardID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id=$1`, cardID); err != nil {
		return fmt.Errorf("delete flashcard: %w", err)
	}
	return nil
}

const quizColumns = `id, user_id, title, description, questions, created_at, updated_at`

func scanQuiz(row interface{ Scan(...any) error }) (Quiz, error) {
	var item Quiz
	var questions []byte
	if err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &questions, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return Quiz{}, err
	}
	item.Questions = make([]QuizQuestion, 0)
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &item.Questions); err != nil {
			return Quiz{}, fmt.Errorf("decode quiz questions: %w", err)
		}
	}
	return item, nil
}

func (s *PostgresStore) CreateQuiz(ctx context.Context, quiz Quiz) (Quiz, error) {
	questions, err := encodeJSON(quiz.Questions, "[]")
	if err != nil {
		return Quiz{}, fmt.Errorf("encode quiz questions: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (id, user_id, title, description, questions)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING created_at, updated_at
	`, quiz.ID, quiz.UserID, quiz.Title, quiz.Description, questions).Scan(&quiz.CreatedAt, &quiz.UpdatedAt)
	if err != nil {
		return Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	if quiz.Questions == nil {
		quiz.Questions = make([]QuizQuestion, 0)
	}
	return quiz, nil
}

func (s *PostgresStore) GetQuiz(ctx context.Context, quizID string) (Quiz, error) {
	item, err := scanQuiz(s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, quizID))
	if err != nil {
		return Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListQuizzes(ctx context.Context, userID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quizColumns+`
		FROM quizzes
		WHERE user_id=$1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	items := make([]Quiz, 0)
	for rows.Next() {
		item, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateQuiz(ctx context.Context, quiz Quiz) (Quiz, error) {
	questions, err := encodeJSON(quiz.Questions, "[]")
	if err != nil {
		return Quiz{}, fmt.Errorf("encode quiz questions: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		UPDATE quizzes
		SET title=$2, description=$3, questions=$4::jsonb, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, quiz.ID, quiz.Title, quiz.Description, questions).Scan(&quiz.UpdatedAt)
	if err != nil {
		return Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

func (s *PostgresStore) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertQuizResult(ctx context.Context, result QuizResult) (QuizResult, error) {
	answers, err := encodeJSON(result.Answers, "[]")
	if err != nil {
		return QuizResult{}, fmt.Errorf("encode quiz answers: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO quiz_history (id, user_id, quiz_id, title, score, total, answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING taken_at
	`, result.ID, result.UserID, result.QuizID, result.Title, result.Score, result.Total, answers).Scan(&result.TakenAt)
	if err != nil {
		return QuizResult{}, fmt.Errorf("insert quiz result: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) ListQuizResults(ctx context.Context, userID string) ([]QuizResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, quiz_id, title, score, total, answers, taken_at
		FROM quiz_history
		WHERE user_id=$1
		ORDER BY taken_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quiz history: %w", err)
	}
	defer rows.Close()

	items := make([]QuizResult, 0)
	for rows.Next() {
		var item QuizResult
		var answers []byte
		if err := rows.Scan(&item.ID, &item.UserID, &item.QuizID, &item.Title, &item.Score, &item.Total, &answers, &item.TakenAt); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		item.Answers = make([]QuizAnswer, 0)
		_ = json.Unmarshal(answers, &item.Answers)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz history: %w", err)
	}
	return items, nil
}

package app

import (
	"context"
	"strings"

	"github.com/alexdossss/study-hub/internal/export"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

const defaultResultTitle = "Completed Quiz"

type QuizInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description" validate:"max=2000"`
	Questions   []store.QuizQuestion `json:"questions"`
}

type UpdateQuizInput struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Questions   *[]store.QuizQuestion `json:"questions"`
}

type QuizResultInput struct {
	QuizID  string             `json:"quizId"`
	Answers []store.QuizAnswer `json:"answers"`
	Title   string             `json:"title"`
}

func (s *Service) ownedQuiz(ctx context.Context, quizID, userID string) (store.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Quiz{}, notFound("Quiz not found")
		}
		return store.Quiz{}, err
	}
	if quiz.UserID != userID {
		return store.Quiz{}, notFound("Quiz not found")
	}
	return quiz, nil
}

func (s *Service) CreateQuiz(ctx context.Context, session Session, input QuizInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, badRequest("Title is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	questions := input.Questions
	if questions == nil {
		questions = []store.QuizQuestion{}
	}
	quiz, err := s.store.CreateQuiz(ctx, store.Quiz{
		ID:          util.NewID("quiz"),
		UserID:      session.UserID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Questions:   questions,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"quiz": quizPayload(quiz)}, nil
}

func (s *Service) ListQuizzes(ctx context.Context, session Session) (map[string]any, error) {
	quizzes, err := s.store.ListQuizzes(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(quizzes))
	for _, quiz := range quizzes {
		items = append(items, quizPayload(quiz))
	}
	return map[string]any{"quizzes": items}, nil
}

func (s *Service) GetQuiz(ctx context.Context, session Session, quizID string) (map[string]any, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"quiz": quizPayload(quiz)}, nil
}

func (s *Service) UpdateQuiz(ctx context.Context, session Session, quizID string, input UpdateQuizInput) (map[string]any, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, session.UserID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, badRequest("Title is required")
		}
		quiz.Title = title
	}
	if input.Description != nil {
		quiz.Description = strings.TrimSpace(*input.Description)
	}
	if input.Questions != nil {
		quiz.Questions = *input.Questions
		if quiz.Questions == nil {
			quiz.Questions = []store.QuizQuestion{}
		}
	}
	updated, err := s.store.UpdateQuiz(ctx, quiz)
	if err != nil {
		return nil, err
	}
	return map[string]any{"quiz": quizPayload(updated)}, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, session Session, quizID string) (map[string]any, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteQuiz(ctx, quiz.ID); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Deleted"}, nil
}

// RecordQuizResult scores the submitted answers and stores the attempt.
func (s *Service) RecordQuizResult(ctx context.Context, session Session, input QuizResultInput) (map[string]any, error) {
	quizID := strings.TrimSpace(input.QuizID)
	if quizID == "" || input.Answers == nil {
		return nil, badRequest("quizId and answers[] required")
	}
	score := 0
	for _, answer := range input.Answers {
		if answer.SelectedAnswer == answer.CorrectAnswer {
			score++
		}
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultResultTitle
	}

	result, err := s.store.InsertQuizResult(ctx, store.QuizResult{
		ID:      util.NewID("qres"),
		UserID:  session.UserID,
		QuizID:  quizID,
		Title:   title,
		Score:   score,
		Total:   len(input.Answers),
		Answers: input.Answers,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": quizResultPayload(result)}, nil
}

// QuizHistory lists the caller's attempts. userID comes from the path and
// must be the caller.
func (s *Service) QuizHistory(ctx context.Context, session Session, userID string) (map[string]any, error) {
	if userID != "" && userID != session.UserID {
		return nil, forbidden("Not authorized to view this history")
	}
	results, err := s.store.ListQuizResults(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(results))
	for _, result := range results {
		items = append(items, quizResultPayload(result))
	}
	return map[string]any{"history": items}, nil
}

func (s *Service) ExportQuiz(ctx context.Context, session Session, quizID, format string) (*export.Result, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, session.UserID)
	if err != nil {
		return nil, err
	}
	return s.exportSheet(ctx, export.QuizSheet(quiz, session.Username), format)
}

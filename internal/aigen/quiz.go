package aigen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexdossss/study-hub/internal/store"
)

const (
	DefaultQuizTitle     = "Generated Quiz"
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
	missingQuestionText  = "Question text missing"
	maxChoices           = 4
)

var defaultChoices = []string{"Option 1", "Option 2", "Option 3"}

type QuizResult struct {
	Title     string
	Questions []store.QuizQuestion
	ParseMode string
	// Filled is set when any default had to be substituted.
	Filled bool
}

func (r QuizResult) Degraded() bool {
	return r.ParseMode != ParseStrict || r.Filled
}

// ClampQuestionCount bounds n to [1, 20]. Zero means the default.
func ClampQuestionCount(n int) int {
	switch {
	case n == 0:
		return DefaultQuestionCount
	case n < 1:
		return 1
	case n > MaxQuestionCount:
		return MaxQuestionCount
	default:
		return n
	}
}

func quizSystemPrompt(n int) string {
	return fmt.Sprintf(`You are a helpful assistant that generates multiple-choice quizzes in strict JSON only.
Return a JSON object exactly like:
{
  "title": "Short quiz title",
  "questions": [
    {
      "questionText": "...",
      "choices": ["...", "...", "...", "..."],
      "correctAnswer": "..."
    }
  ]
}
Each question must have 3-4 choices. Ensure exactly n questions (n=%d). Use the provided context for question content. Do not include any extra commentary or backticks.`, n)
}

func quizUserPrompt(contextText string, n int) string {
	return fmt.Sprintf("Context:\n%s\n\nGenerate %d questions.", contextText, n)
}

type rawQuiz struct {
	Title     string            `json:"title"`
	Questions []json.RawMessage `json:"questions"`
}

// ParseQuiz decodes the model output as a JSON object, falling back to the
// outermost {...} substring, and normalizes at most n questions.
func ParseQuiz(raw string, n int) (QuizResult, error) {
	trimmed := strings.TrimSpace(raw)
	n = ClampQuestionCount(n)

	var envelope map[string]json.RawMessage
	mode := ParseStrict
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}")
		if start < 0 || end <= start {
			return QuizResult{}, ErrUnparseable
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &envelope); err != nil {
			return QuizResult{}, ErrUnparseable
		}
		mode = ParseExtracted
	}

	var questions []map[string]any
	if rawQuestions, ok := envelope["questions"]; !ok || json.Unmarshal(rawQuestions, &questions) != nil {
		return QuizResult{}, fmt.Errorf("%w: questions must be an array", ErrUnparseable)
	}

	result := QuizResult{ParseMode: mode}
	if rawTitle, ok := envelope["title"]; ok {
		_ = json.Unmarshal(rawTitle, &result.Title)
	}
	result.Title = strings.TrimSpace(result.Title)
	if result.Title == "" {
		result.Title = DefaultQuizTitle
		result.Filled = true
	}

	if len(questions) > n {
		questions = questions[:n]
	}
	result.Questions = make([]store.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		question, filled := normalizeQuestion(q)
		result.Filled = result.Filled || filled
		result.Questions = append(result.Questions, question)
	}
	return result, nil
}

func normalizeQuestion(q map[string]any) (store.QuizQuestion, bool) {
	filled := false

	text := firstField(q, "questionText", "question")
	if text == "" {
		text = missingQuestionText
		filled = true
	}

	choices := make([]string, 0, maxChoices)
	if list, ok := q["choices"].([]any); ok {
		for _, c := range list {
			if len(choices) == maxChoices {
				break
			}
			choices = append(choices, strings.TrimSpace(fmt.Sprint(c)))
		}
	}
	if len(choices) == 0 {
		choices = append(choices, defaultChoices...)
		filled = true
	}

	correct := firstField(q, "correctAnswer")
	if correct == "" {
		correct = choices[0]
		filled = true
	}

	return store.QuizQuestion{QuestionText: text, Choices: choices, CorrectAnswer: correct}, filled
}

// Package aigen turns model output into flashcards and quizzes.
package aigen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ParseStrict    = "strict"
	ParseExtracted = "extracted"
	ParseHeuristic = "heuristic"
)

var (
	ErrUnparseable  = errors.New("model output could not be parsed")
	ErrNoValidPairs = errors.New("parsed output contained no valid question/answer pairs")
)

type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FlashcardResult struct {
	Cards     []Card
	ParseMode string
}

// Degraded reports whether anything other than a strict parse was needed.
func (r FlashcardResult) Degraded() bool {
	return r.ParseMode != ParseStrict
}

const flashcardSystemPrompt = "You are a helpful study assistant."

func flashcardUserPrompt(text string) string {
	return `You are a study assistant. Generate up to 12 clear question-answer pairs from the following text.
- Output MUST be a single JSON array, nothing else.
- Each element must be an object with exactly two fields: "question" and "answer".
- Keep questions concise and focused on key ideas. Keep answers short (one or two sentences).
- Use plain text, no markdown, no explanations outside the JSON.
Text:
"""` + text + `"""
Return JSON only.`
}

var (
	questionLine = regexp.MustCompile(`(?i)^Q[:\-\s]+(.+)`)
	answerLine   = regexp.MustCompile(`(?i)^A[:\-\s]+(.+)`)
	inlinePair   = regexp.MustCompile(`(?i)Question[:\s]+(.+?)\s+Answer[:\s]+(.+)`)
)

// ParseFlashcards tries a strict JSON array, then the outermost [...]
// substring, then line heuristics.
func ParseFlashcards(raw string) (FlashcardResult, error) {
	trimmed := strings.TrimSpace(raw)

	var items []any
	mode := ""
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		mode = ParseStrict
	} else if start, end := strings.Index(trimmed, "["), strings.LastIndex(trimmed, "]"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &items); err == nil {
			mode = ParseExtracted
		}
	}

	if mode == "" {
		cards := heuristicPairs(trimmed)
		if len(cards) == 0 {
			return FlashcardResult{}, ErrUnparseable
		}
		return FlashcardResult{Cards: cards, ParseMode: ParseHeuristic}, nil
	}

	cards := make([]Card, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := firstField(obj, "question", "q")
		a := firstField(obj, "answer", "a")
		if q == "" || a == "" {
			continue
		}
		cards = append(cards, Card{Question: q, Answer: a})
	}
	if len(cards) == 0 {
		return FlashcardResult{}, ErrNoValidPairs
	}
	return FlashcardResult{Cards: cards, ParseMode: mode}, nil
}

func heuristicPairs(raw string) []Card {
	lines := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	cards := make([]Card, 0)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if q := questionLine.FindStringSubmatch(line); q != nil && i+1 < len(lines) {
			if a := answerLine.FindStringSubmatch(lines[i+1]); a != nil {
				cards = appendCard(cards, q[1], a[1])
				i++
				continue
			}
		}
		if parts := strings.Split(line, " - "); len(parts) == 2 {
			cards = appendCard(cards, parts[0], parts[1])
			continue
		}
		if m := inlinePair.FindStringSubmatch(line); m != nil {
			cards = appendCard(cards, m[1], m[2])
		}
	}
	return cards
}

func appendCard(cards []Card, q, a string) []Card {
	q, a = strings.TrimSpace(q), strings.TrimSpace(a)
	if q == "" || a == "" {
		return cards
	}
	return append(cards, Card{Question: q, Answer: a})
}

func firstField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := obj[key]
		if !ok || value == nil {
			continue
		}
		var s string
		switch v := value.(type) {
		case string:
			s = v
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Package export renders flashcard decks and quizzes as printable study sheets.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat validates a user-supplied format; empty means PDF.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Sheet is the renderable form of a deck or quiz.
type Sheet struct {
	Kind        string
	Title       string
	Subtitle    string
	Author      string
	GeneratedAt time.Time
	Items       []SheetItem
	// AnswerKey lists answers after the items instead of inline.
	AnswerKey bool
}

// SheetItem is one card or question.
type SheetItem struct {
	Prompt  string
	Answer  string
	Choices []string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)

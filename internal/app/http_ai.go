package app

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// maxSourceBytes caps the text read from an uploaded source file.
const maxSourceBytes = 1 << 20

var sourceExtensions = map[string]bool{".txt": true, ".md": true, ".csv": true}

func (s *HTTPServer) handleAI(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) != 1 || parts[0] != "generate-flashcards" {
		notFoundRoute(w)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	var input GenerateFlashcardsInput
	if isMultipart(r) {
		parsed, err := readSourceForm(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		input = parsed
	} else if err := decodeBody(r, &input); err != nil {
		invalidBody(w, err)
		return
	}

	payload, err := s.service.GenerateFlashcards(r.Context(), session, input)
	s.respond(w, r, http.StatusOK, payload, err)
}

// readSourceForm takes the generation text from an uploaded plain-text file,
// falling back to the text form field.
func readSourceForm(w http.ResponseWriter, r *http.Request) (GenerateFlashcardsInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSourceBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return GenerateFlashcardsInput{}, badRequest("Invalid multipart body")
	}
	input := GenerateFlashcardsInput{
		Text:   r.FormValue("text"),
		DeckID: r.FormValue("deckId"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return input, nil
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if !sourceExtensions[ext] && !strings.HasPrefix(contentType, "text/") {
		return GenerateFlashcardsInput{}, badRequest("Only plain text files (.txt, .md, .csv) are supported")
	}
	data, err := io.ReadAll(io.LimitReader(file, maxSourceBytes))
	if err != nil {
		return GenerateFlashcardsInput{}, badRequest("Could not read uploaded file")
	}
	input.Text = string(data)
	return input, nil
}

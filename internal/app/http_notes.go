package app

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexdossss/study-hub/internal/filestore"
)

const multipartMemory = 8 << 20

func (s *HTTPServer) handleNotes(w http.ResponseWriter, r *http.Request, parts []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListMyNotes(r.Context(), session)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPost:
			s.handleCreateNote(w, r, session)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch {
	case parts[0] == "public" && len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.ListPublicNotes(r.Context(), session)
		s.respond(w, r, http.StatusOK, payload, err)

	case parts[0] == "search" && len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		query := r.URL.Query()
		limit := queryInt(query.Get("limit"), 20)
		offset := queryInt(query.Get("offset"), 0)
		payload, err := s.service.SearchNotes(r.Context(), session, query.Get("q"), limit, offset)
		s.respond(w, r, http.StatusOK, payload, err)

	case len(parts) == 1:
		noteID := parts[0]
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetNote(r.Context(), session, noteID)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPut, http.MethodPatch:
			s.handleUpdateNote(w, r, session, noteID)
		case http.MethodDelete:
			payload, err := s.service.DeleteNote(r.Context(), session, noteID)
			s.respond(w, r, http.StatusOK, payload, err)
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 2 && parts[1] == "publish":
		if r.Method != http.MethodPut && r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.TogglePublish(r.Context(), session, parts[0])
		s.respond(w, r, http.StatusOK, payload, err)

	case len(parts) == 2 && parts[1] == "file":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleNoteFile(w, r, session, parts[0])

	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleCreateNote(w http.ResponseWriter, r *http.Request, session Session) {
	if !isMultipart(r) {
		var body NoteInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.CreateNote(r.Context(), session, body, nil)
		s.respond(w, r, http.StatusCreated, payload, err)
		return
	}

	form, upload, closeFile, err := readNoteForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer closeFile()

	input := NoteInput{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		Type:        form.Get("type"),
		DocsURL:     form.Get("docsUrl"),
	}
	payload, err := s.service.CreateNote(r.Context(), session, input, upload)
	s.respond(w, r, http.StatusCreated, payload, err)
}

func (s *HTTPServer) handleUpdateNote(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	if !isMultipart(r) {
		var body NoteUpdate
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.UpdateNote(r.Context(), session, noteID, body, nil)
		s.respond(w, r, http.StatusOK, payload, err)
		return
	}

	form, upload, closeFile, err := readNoteForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer closeFile()

	input := NoteUpdate{
		Type:    form.Get("type"),
		DocsURL: form.Get("docsUrl"),
	}
	if _, ok := form["title"]; ok {
		title := form.Get("title")
		input.Title = &title
	}
	if _, ok := form["description"]; ok {
		description := form.Get("description")
		input.Description = &description
	}
	payload, err := s.service.UpdateNote(r.Context(), session, noteID, input, upload)
	s.respond(w, r, http.StatusOK, payload, err)
}

func (s *HTTPServer) handleNoteFile(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	file, err := s.service.OpenNoteFile(r.Context(), session, noteID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer file.Body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+strings.ReplaceAll(file.Filename, "\"", "")+"\"")
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Body); err != nil {
		s.logError(r, err, "note file stream failed")
	}
}

// readNoteForm parses a multipart note body. The returned close func is
// always safe to call.
func readNoteForm(w http.ResponseWriter, r *http.Request) (formValues, *Upload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, filestore.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, noop, domainError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds upload limit", nil)
		}
		return nil, nil, noop, badRequest("Invalid multipart body")
	}
	values := formValues(r.MultipartForm.Value)

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return values, nil, noop, nil
		}
		return nil, nil, noop, badRequest("Invalid file upload")
	}
	if header.Size > filestore.MaxUploadBytes {
		_ = file.Close()
		return nil, nil, noop, domainError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds upload limit", nil)
	}
	return values, uploadFrom(file, header), func() { _ = file.Close() }, nil
}

type formValues map[string][]string

func (v formValues) Get(key string) string {
	if values := v[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func uploadFrom(file multipart.File, header *multipart.FileHeader) *Upload {
	return &Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func queryInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

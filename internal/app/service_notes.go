package app

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/alexdossss/study-hub/internal/filestore"
	"github.com/alexdossss/study-hub/internal/search"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

const googleDocsPrefix = "https://docs.google.com"

type NoteInput struct {
	Title       string `json:"title"`
	Description string `json:"description" validate:"max=5000"`
	Type        string `json:"type"`
	DocsURL     string `json:"docsUrl"`
}

// NoteUpdate carries optional fields; nil leaves the stored value alone.
type NoteUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        string  `json:"type"`
	DocsURL     string  `json:"docsUrl"`
}

// Upload is a file received with a note.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

var (
	spreadsheetIDPattern  = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	presentationIDPattern = regexp.MustCompile(`/presentation/d/([a-zA-Z0-9_-]+)`)
	documentIDPattern     = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)
	genericIDPattern      = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
)

// googlePreviewURL rewrites a Google Docs link to its read-only preview.
func googlePreviewURL(raw string) string {
	link := strings.TrimSpace(raw)
	if link == "" {
		return link
	}
	if m := spreadsheetIDPattern.FindStringSubmatch(link); m != nil {
		return googleDocsPrefix + "/spreadsheets/d/" + m[1] + "/preview"
	}
	if m := presentationIDPattern.FindStringSubmatch(link); m != nil {
		return googleDocsPrefix + "/presentation/d/" + m[1] + "/preview"
	}
	if m := documentIDPattern.FindStringSubmatch(link); m != nil {
		return googleDocsPrefix + "/document/d/" + m[1] + "/preview"
	}
	if m := genericIDPattern.FindStringSubmatch(link); m != nil {
		return googleDocsPrefix + "/document/d/" + m[1] + "/preview"
	}
	if strings.Contains(link, "docs.google.com") && strings.Contains(link, "/edit") {
		return strings.Replace(link, "/edit", "/preview", 1)
	}
	return link
}

func noteRecord(note store.Note) search.NoteRecord {
	return search.NoteRecord{
		ID:          note.ID,
		Title:       note.Title,
		Description: note.Description,
		UserID:      note.UserID,
		IsPublic:    note.IsPublic,
	}
}

func (s *Service) indexNote(note store.Note) {
	if s.search != nil {
		s.search.IndexNote(noteRecord(note))
	}
}

// visibleNote loads a note the caller owns or that has been published.
func (s *Service) visibleNote(ctx context.Context, noteID, userID string) (store.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Note{}, notFound("Note not found")
		}
		return store.Note{}, err
	}
	if note.UserID != userID && !note.IsPublic {
		return store.Note{}, forbidden("Not authorized to view this note")
	}
	return note, nil
}

// ownedNote hides notes owned by someone else behind a 404.
func (s *Service) ownedNote(ctx context.Context, noteID, userID string) (store.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Note{}, notFound("Note not found")
		}
		return store.Note{}, err
	}
	if note.UserID != userID {
		return store.Note{}, notFound("Note not found")
	}
	return note, nil
}

// storeUpload writes an uploaded file to object storage and returns its key.
func (s *Service) storeUpload(ctx context.Context, userID string, upload *Upload) (string, error) {
	if s.files == nil {
		return "", unavailable("STORAGE_UNAVAILABLE", "File storage not configured")
	}
	ext, err := filestore.CheckExtension(upload.Filename)
	if err != nil {
		return "", badRequest("Invalid file type")
	}
	key := filestore.ObjectKey(userID, ext)
	if err := s.files.Put(ctx, key, upload.Content, upload.Size, filestore.ContentType(ext)); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Service) removeObject(key string) {
	if key == "" || s.files == nil {
		return
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.files.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("delete note file failed")
		}
	})
}

func (s *Service) CreateNote(ctx context.Context, session Session, input NoteInput, upload *Upload) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	noteType := strings.TrimSpace(input.Type)
	if title == "" || noteType == "" {
		return nil, badRequest("Please provide all required fields")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	note := store.Note{
		ID:            util.NewID("note"),
		UserID:        session.UserID,
		OwnerUsername: session.Username,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Type:          noteType,
	}
	switch noteType {
	case store.NoteTypeGoogleDocs:
		docsURL := strings.TrimSpace(input.DocsURL)
		if !strings.HasPrefix(docsURL, googleDocsPrefix) {
			return nil, badRequest("Invalid Google Docs URL")
		}
		note.DocsURL = docsURL
	case store.NoteTypeFile:
		if upload == nil {
			return nil, badRequest("File upload required")
		}
		key, err := s.storeUpload(ctx, session.UserID, upload)
		if err != nil {
			return nil, err
		}
		note.FileKey = key
		note.FileName = upload.Filename
	default:
		return nil, badRequest("Invalid note type")
	}

	created, err := s.store.CreateNote(ctx, note)
	if err != nil {
		s.removeObject(note.FileKey)
		return nil, err
	}
	created.OwnerUsername = session.Username
	s.indexNote(created)
	return map[string]any{"note": notePayload(created, session.UserID)}, nil
}

func (s *Service) ListMyNotes(ctx context.Context, session Session) (map[string]any, error) {
	notes, err := s.store.ListNotesByUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"notes": notePayloads(notes, session.UserID)}, nil
}

func (s *Service) ListPublicNotes(ctx context.Context, session Session) (map[string]any, error) {
	notes, err := s.store.ListPublicNotes(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"notes": notePayloads(notes, session.UserID)}, nil
}

func (s *Service) GetNote(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	note, err := s.visibleNote(ctx, noteID, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"note": notePayload(note, session.UserID)}, nil
}

func (s *Service) UpdateNote(ctx context.Context, session Session, noteID string, input NoteUpdate, upload *Upload) (map[string]any, error) {
	note, err := s.ownedNote(ctx, noteID, session.UserID)
	if err != nil {
		return nil, err
	}

	staleKey := ""
	switch {
	case upload != nil:
		key, err := s.storeUpload(ctx, session.UserID, upload)
		if err != nil {
			return nil, err
		}
		staleKey = note.FileKey
		note.Type = store.NoteTypeFile
		note.FileKey = key
		note.FileName = upload.Filename
		note.DocsURL = ""
	case strings.TrimSpace(input.Type) == store.NoteTypeGoogleDocs:
		if docsURL := strings.TrimSpace(input.DocsURL); docsURL != "" {
			if !strings.HasPrefix(docsURL, googleDocsPrefix) {
				return nil, badRequest("Invalid Google Docs URL")
			}
			note.DocsURL = docsURL
		}
		if note.DocsURL == "" {
			return nil, badRequest("Invalid Google Docs URL")
		}
		staleKey = note.FileKey
		note.Type = store.NoteTypeGoogleDocs
		note.FileKey = ""
		note.FileName = ""
	}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			note.Title = title
		}
	}
	if input.Description != nil {
		note.Description = strings.TrimSpace(*input.Description)
	}

	updated, err := s.store.UpdateNote(ctx, note)
	if err != nil {
		return nil, err
	}
	s.removeObject(staleKey)
	s.indexNote(updated)
	return map[string]any{"note": notePayload(updated, session.UserID)}, nil
}

func (s *Service) DeleteNote(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	note, err := s.ownedNote(ctx, noteID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteNote(ctx, note.ID); err != nil {
		return nil, err
	}
	s.removeObject(note.FileKey)
	if s.search != nil {
		s.search.DeleteNote(note.ID)
	}
	return map[string]any{"message": "Note deleted successfully"}, nil
}

func (s *Service) TogglePublish(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	note, err := s.ownedNote(ctx, noteID, session.UserID)
	if err != nil {
		return nil, err
	}
	note.IsPublic = !note.IsPublic
	updated, err := s.store.UpdateNote(ctx, note)
	if err != nil {
		return nil, err
	}
	s.indexNote(updated)
	return map[string]any{"note": notePayload(updated, session.UserID)}, nil
}

// NoteFile is an open download stream for a note attachment.
type NoteFile struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

func (s *Service) OpenNoteFile(ctx context.Context, session Session, noteID string) (*NoteFile, error) {
	note, err := s.visibleNote(ctx, noteID, session.UserID)
	if err != nil {
		return nil, err
	}
	if note.Type != store.NoteTypeFile || note.FileKey == "" {
		return nil, notFound("Note has no file")
	}
	if s.files == nil {
		return nil, unavailable("STORAGE_UNAVAILABLE", "File storage not configured")
	}
	body, info, err := s.files.Get(ctx, note.FileKey)
	if err != nil {
		if errors.Is(err, filestore.ErrObjectNotFound) {
			return nil, notFound("File not found")
		}
		return nil, err
	}
	return &NoteFile{
		Body:        body,
		Filename:    note.FileName,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// SearchNotes searches the caller's notes plus every public note.
func (s *Service) SearchNotes(ctx context.Context, session Session, query string, limit, offset int) (map[string]any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, badRequest("q query parameter is required")
	}
	if s.search == nil {
		return map[string]any{"results": []search.Result{}, "total": 0, "query": query}, nil
	}
	response := s.search.Search(ctx, search.Query{
		Text:     query,
		Type:     search.ResultNote,
		ViewerID: session.UserID,
		Limit:    limit,
		Offset:   offset,
	})
	return map[string]any{"results": response.Results, "total": response.Total, "query": response.Query}, nil
}

package app

import (
	"context"
	"strings"

	"github.com/alexdossss/study-hub/internal/activity"
	"github.com/alexdossss/study-hub/internal/rbac"
	"github.com/alexdossss/study-hub/internal/realtime"
	"github.com/alexdossss/study-hub/internal/search"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

type ShareNoteInput struct {
	NoteRef string         `json:"noteRef"`
	Title   string         `json:"title" validate:"max=300"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta"`
}

type UnshareInput struct {
	Kind  string `json:"kind"`
	RefID string `json:"refId"`
}

// sharingSpace loads a space the caller may share into.
func (s *Service) sharingSpace(ctx context.Context, spaceID, userID string) (store.Space, rbac.Role, error) {
	space, role, err := s.spaceAccess(ctx, spaceID, userID)
	if err != nil {
		return store.Space{}, role, err
	}
	if !rbac.Can(role, rbac.ActionShare) {
		return store.Space{}, role, forbidden("Only members can share content")
	}
	return space, role, nil
}

func (s *Service) announceShare(ctx context.Context, space store.Space, item store.SharedItem) {
	s.emit(ctx, realtime.SpaceRoom(space.ID), "space:sharedItem", map[string]any{
		"spaceId": space.ID,
		"item":    sharedItemPayload(item),
	})
	s.publish(activity.NewEvent(activity.ItemShared, space.ID, item.SharedBy).WithItem(item.Kind, item.RefID))
}

// ShareNote copies a snapshot into the space. When noteRef names a note the
// caller can see, missing title and content are taken from it.
func (s *Service) ShareNote(ctx context.Context, session Session, spaceID string, input ShareNoteInput) (map[string]any, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	space, _, err := s.sharingSpace(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	content := input.Content
	meta := input.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	var noteRef *string
	if ref := strings.TrimSpace(input.NoteRef); ref != "" {
		note, err := s.store.GetNote(ctx, ref)
		if err != nil && !store.IsNotFound(err) {
			return nil, err
		}
		if err != nil || (note.UserID != session.UserID && !note.IsPublic) {
			return nil, notFound("Note not found")
		}
		if title == "" {
			title = note.Title
		}
		if strings.TrimSpace(content) == "" {
			content = note.Description
		}
		meta["noteType"] = note.Type
		noteRef = &ref
	}
	if title == "" {
		return nil, badRequest("Title required")
	}

	snapshotID := util.NewID("shn")
	snapshot, item, err := s.store.ShareNote(ctx,
		store.SharedNote{
			ID:       snapshotID,
			SpaceID:  space.ID,
			NoteRef:  noteRef,
			SharedBy: session.UserID,
			Title:    title,
			Content:  content,
			Meta:     meta,
		},
		store.SharedItem{
			ID:       util.NewID("shi"),
			SpaceID:  space.ID,
			Kind:     store.SharedKindNote,
			RefID:    snapshotID,
			SharedBy: session.UserID,
			Meta:     map[string]any{"title": title},
		},
	)
	if err != nil {
		return nil, err
	}

	s.announceShare(ctx, space, item)
	if s.search != nil {
		s.search.IndexSharedNote(search.SharedNoteRecord{
			ID:      snapshot.ID,
			Title:   snapshot.Title,
			Content: snapshot.Content,
			SpaceID: snapshot.SpaceID,
		})
	}
	return map[string]any{"shared": sharedNotePayload(snapshot)}, nil
}

func (s *Service) ShareFlashcard(ctx context.Context, session Session, spaceID, deckID string) (map[string]any, error) {
	deckID = strings.TrimSpace(deckID)
	if deckID == "" {
		return nil, badRequest("deckId required")
	}
	space, _, err := s.sharingSpace(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	deck, err := s.store.GetDeck(ctx, deckID)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, notFound("Flashcard deck not found")
	}

	item, err := s.store.InsertSharedItem(ctx, store.SharedItem{
		ID:       util.NewID("shi"),
		SpaceID:  space.ID,
		Kind:     store.SharedKindFlashcard,
		RefID:    deck.ID,
		SharedBy: session.UserID,
		Meta:     map[string]any{"title": deck.Title},
	})
	if err != nil {
		return nil, err
	}
	s.announceShare(ctx, space, item)
	return map[string]any{"shared": sharedItemPayload(item)}, nil
}

func (s *Service) ShareQuiz(ctx context.Context, session Session, spaceID, quizID string) (map[string]any, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return nil, badRequest("quizId required")
	}
	space, _, err := s.sharingSpace(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, notFound("Quiz not found")
	}

	item, err := s.store.InsertSharedItem(ctx, store.SharedItem{
		ID:       util.NewID("shi"),
		SpaceID:  space.ID,
		Kind:     store.SharedKindQuiz,
		RefID:    quiz.ID,
		SharedBy: session.UserID,
		Meta:     map[string]any{"title": quiz.Title},
	})
	if err != nil {
		return nil, err
	}
	s.announceShare(ctx, space, item)
	return map[string]any{"shared": sharedItemPayload(item)}, nil
}

// UnshareItem removes every pointer matching kind and refID. The caller must
// be the admin or have shared at least one of the matches.
func (s *Service) UnshareItem(ctx context.Context, session Session, spaceID string, input UnshareInput) (map[string]any, error) {
	kind := strings.TrimSpace(input.Kind)
	refID := strings.TrimSpace(input.RefID)
	if kind == "" || refID == "" {
		return nil, badRequest("kind and refId required")
	}
	space, role, err := s.spaceAccess(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.FindSharedItems(ctx, spaceID, kind, refID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, notFound("Shared item not found in space")
	}
	allowed := rbac.Can(role, rbac.ActionModerate)
	for _, match := range matches {
		if match.SharedBy == session.UserID {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, forbidden("Not allowed to unshare this item")
	}

	if _, err := s.store.DeleteSharedItems(ctx, spaceID, kind, refID); err != nil {
		return nil, err
	}
	if kind == store.SharedKindNote && s.search != nil {
		s.search.DeleteSharedNote(refID)
	}

	s.emit(ctx, realtime.SpaceRoom(space.ID), "space:unsharedItem", map[string]any{
		"spaceId": space.ID,
		"kind":    kind,
		"refId":   refID,
		"actorId": session.UserID,
	})
	s.publish(activity.NewEvent(activity.ItemUnshared, space.ID, session.UserID).WithItem(kind, refID))
	return map[string]any{"message": "Unshared"}, nil
}

// GetSharedItems hydrates every pointer. Targets deleted since sharing
// come back with a nil payload.
func (s *Service) GetSharedItems(ctx context.Context, session Session, spaceID string) (map[string]any, error) {
	if _, _, err := s.readableSpace(ctx, spaceID, session.UserID); err != nil {
		return nil, err
	}
	pointers, err := s.store.ListSharedItems(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	users := make(map[string]map[string]any)
	items := make([]map[string]any, 0, len(pointers))
	for _, pointer := range pointers {
		item := sharedItemPayload(pointer)

		payload, err := s.sharedPayload(ctx, pointer)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			item["payload"] = nil
		} else {
			item["payload"] = payload
		}

		sharer, ok := users[pointer.SharedBy]
		if !ok {
			sharer, err = s.userRef(ctx, pointer.SharedBy)
			if err != nil {
				return nil, err
			}
			users[pointer.SharedBy] = sharer
		}
		if sharer == nil {
			item["sharedByUser"] = nil
		} else {
			item["sharedByUser"] = sharer
		}
		items = append(items, item)
	}
	return map[string]any{"items": items}, nil
}

func (s *Service) sharedPayload(ctx context.Context, pointer store.SharedItem) (map[string]any, error) {
	switch pointer.Kind {
	case store.SharedKindNote:
		note, err := s.store.GetSharedNote(ctx, pointer.RefID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return map[string]any{
			"id":       note.ID,
			"title":    note.Title,
			"content":  note.Content,
			"sharedBy": note.SharedBy,
		}, nil
	case store.SharedKindFlashcard:
		deck, err := s.store.GetDeck(ctx, pointer.RefID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return map[string]any{
			"id":         deck.ID,
			"title":      deck.Title,
			"cardsCount": deck.CardsCount,
		}, nil
	case store.SharedKindQuiz:
		quiz, err := s.store.GetQuiz(ctx, pointer.RefID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return map[string]any{
			"id":             quiz.ID,
			"title":          quiz.Title,
			"questionsCount": len(quiz.Questions),
		}, nil
	}
	return nil, nil
}

func (s *Service) userRef(ctx context.Context, userID string) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return map[string]any{"id": user.ID, "username": user.Username}, nil
}

// GetSharedNotes lists snapshots newest first. A non-empty query narrows the
// list to full-text matches inside this space.
func (s *Service) GetSharedNotes(ctx context.Context, session Session, spaceID, query string) (map[string]any, error) {
	if _, _, err := s.readableSpace(ctx, spaceID, session.UserID); err != nil {
		return nil, err
	}
	notes, err := s.store.ListSharedNotes(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query != "" && s.search == nil {
		return nil, unavailable("SEARCH_UNAVAILABLE", "Search not configured")
	}
	if query != "" {
		byID := make(map[string]store.SharedNote, len(notes))
		for _, note := range notes {
			byID[note.ID] = note
		}
		response := s.search.Search(ctx, search.Query{
			Text:     query,
			Type:     search.ResultSharedNote,
			ViewerID: session.UserID,
			SpaceID:  spaceID,
			Limit:    50,
		})
		matched := make([]store.SharedNote, 0, len(response.Results))
		for _, result := range response.Results {
			if note, ok := byID[result.ID]; ok {
				matched = append(matched, note)
			}
		}
		notes = matched
	}

	items := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		items = append(items, sharedNotePayload(note))
	}
	return map[string]any{"notes": items}, nil
}

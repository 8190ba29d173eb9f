package app

import (
	"net/http"
	"strings"
)

func (s *HTTPServer) handleSpaces(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			s.handleListSpaces(w, r)
		case http.MethodPost:
			session, ok := s.requireSession(w, r)
			if !ok {
				return
			}
			var body CreateSpaceInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.CreateSpace(r.Context(), session, body)
			s.respond(w, r, http.StatusCreated, payload, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	spaceID := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.GetSpace(r.Context(), spaceID)
		s.respond(w, r, http.StatusOK, payload, err)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	s.handleSpaceAction(w, r, session, spaceID, parts[1:])
}

func (s *HTTPServer) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	mine := strings.EqualFold(r.URL.Query().Get("mine"), "true")
	session, authenticated := s.optionalSession(r)
	if mine && !authenticated {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	payload, err := s.service.ListSpaces(r.Context(), session.UserID, mine)
	s.respond(w, r, http.StatusOK, payload, err)
}

func (s *HTTPServer) handleSpaceAction(w http.ResponseWriter, r *http.Request, session Session, spaceID string, parts []string) {
	action := parts[0]

	switch {
	case action == "join" && len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.RequestJoin(r.Context(), session, spaceID)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "join" && len(parts) == 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body struct {
			Action string `json:"action"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.HandleJoinRequest(r.Context(), session, spaceID, parts[1], body.Action)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "leave" && len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.LeaveSpace(r.Context(), session, spaceID)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "remove" && len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body struct {
			UserID string `json:"userId"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.RemoveMember(r.Context(), session, spaceID, body.UserID)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "share" && len(parts) == 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleShare(w, r, session, spaceID, parts[1])

	case action == "unshare" && len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body UnshareInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.UnshareItem(r.Context(), session, spaceID, body)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "shared" && len(parts) == 2 && parts[1] == "items":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.GetSharedItems(r.Context(), session, spaceID)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "shared" && len(parts) == 2 && parts[1] == "notes":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.GetSharedNotes(r.Context(), session, spaceID, r.URL.Query().Get("q"))
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "members" && len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.ListMembers(r.Context(), session, spaceID)
		s.respond(w, r, http.StatusOK, payload, err)

	case action == "messages" && len(parts) == 1:
		s.handleMessages(w, r, session, spaceID)

	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleShare(w http.ResponseWriter, r *http.Request, session Session, spaceID, kind string) {
	switch kind {
	case "note":
		var body ShareNoteInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.ShareNote(r.Context(), session, spaceID, body)
		s.respond(w, r, http.StatusCreated, payload, err)
	case "flashcard":
		var body struct {
			DeckID string `json:"deckId"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.ShareFlashcard(r.Context(), session, spaceID, body.DeckID)
		s.respond(w, r, http.StatusCreated, payload, err)
	case "quiz":
		var body struct {
			QuizID string `json:"quizId"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.ShareQuiz(r.Context(), session, spaceID, body.QuizID)
		s.respond(w, r, http.StatusCreated, payload, err)
	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleMessages(w http.ResponseWriter, r *http.Request, session Session, spaceID string) {
	switch r.Method {
	case http.MethodGet:
		limit, err := ParseMessageLimit(r.URL.Query().Get("limit"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		payload, err := s.service.GetMessages(r.Context(), session, spaceID, limit)
		s.respond(w, r, http.StatusOK, payload, err)
	case http.MethodPost:
		var body struct {
			Text string `json:"text"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.PostMessage(r.Context(), session, spaceID, body.Text)
		s.respond(w, r, http.StatusCreated, payload, err)
	default:
		methodNotAllowed(w)
	}
}

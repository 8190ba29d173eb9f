package app

import (
	"net/http"
)

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		notFoundRoute(w)
		return
	}

	switch parts[0] {
	case "register":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body RegisterInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.Register(r.Context(), body)
		s.respond(w, r, http.StatusCreated, payload, err)
		return
	case "login":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body LoginInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.Login(r.Context(), body)
		s.respond(w, r, http.StatusOK, payload, err)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case parts[0] == "profile" && len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.Profile(r.Context(), session)
		s.respond(w, r, http.StatusOK, payload, err)
	case parts[0] == "logout" && len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		err := s.service.Logout(r.Context(), session)
		s.respond(w, r, http.StatusOK, map[string]any{"message": "Logged out"}, err)
	case parts[0] == "bookmarks" && len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListBookmarks(r.Context(), session)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPost:
			var body struct {
				NoteID string `json:"noteId"`
			}
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.AddBookmark(r.Context(), session, body.NoteID)
			s.respond(w, r, http.StatusCreated, payload, err)
		default:
			methodNotAllowed(w)
		}
	case parts[0] == "bookmarks" && len(parts) == 2:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.RemoveBookmark(r.Context(), session, parts[1])
		s.respond(w, r, http.StatusOK, payload, err)
	default:
		notFoundRoute(w)
	}
}

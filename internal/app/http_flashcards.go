package app

import (
	"net/http"
)

func (s *HTTPServer) handleFlashcards(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 1 && parts[0] == "public" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.ListPublicDecks(r.Context(), r.URL.Query().Get("subject"))
		s.respond(w, r, http.StatusOK, payload, err)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if len(parts) == 0 {
		notFoundRoute(w)
		return
	}

	switch parts[0] {
	case "decks":
		s.handleDecks(w, r, session, parts[1:])
	case "cards":
		if len(parts) != 2 {
			notFoundRoute(w)
			return
		}
		s.handleCard(w, r, session, parts[1])
	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleDecks(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListDecks(r.Context(), session)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPost:
			var body CreateDeckInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.CreateDeck(r.Context(), session, body)
			s.respond(w, r, http.StatusCreated, payload, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	deckID := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetDeck(r.Context(), session, deckID)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPatch, http.MethodPut:
			var body UpdateDeckInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.UpdateDeck(r.Context(), session, deckID, body)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodDelete:
			payload, err := s.service.DeleteDeck(r.Context(), session, deckID)
			s.respond(w, r, http.StatusOK, payload, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPost {
		notFoundRoute(w)
		return
	}
	switch parts[1] {
	case "cards":
		var body AddCardsInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.AddCards(r.Context(), session, deckID, body)
		s.respond(w, r, http.StatusCreated, payload, err)
	case "export":
		var body struct {
			Format string `json:"format"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		result, err := s.service.ExportDeck(r.Context(), session, deckID, body.Format)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeExport(w, result)
	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleCard(w http.ResponseWriter, r *http.Request, session Session, cardID string) {
	switch r.Method {
	case http.MethodPatch, http.MethodPut:
		var body UpdateCardInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.UpdateCard(r.Context(), session, cardID, body)
		s.respond(w, r, http.StatusOK, payload, err)
	case http.MethodDelete:
		payload, err := s.service.DeleteCard(r.Context(), session, cardID)
		s.respond(w, r, http.StatusOK, payload, err)
	default:
		methodNotAllowed(w)
	}
}

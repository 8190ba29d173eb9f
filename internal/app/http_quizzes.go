package app

import (
	"net/http"
)

func (s *HTTPServer) handleQuizzes(w http.ResponseWriter, r *http.Request, parts []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListQuizzes(r.Context(), session)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPost:
			var body QuizInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.CreateQuiz(r.Context(), session, body)
			s.respond(w, r, http.StatusCreated, payload, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch {
	case parts[0] == "ai-generate" && len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body GenerateQuizInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.GenerateQuiz(r.Context(), session, body)
		s.respond(w, r, http.StatusCreated, payload, err)

	case parts[0] == "history" && len(parts) == 2 && parts[1] == "record":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body QuizResultInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.RecordQuizResult(r.Context(), session, body)
		s.respond(w, r, http.StatusCreated, payload, err)

	case parts[0] == "history" && len(parts) == 2:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.QuizHistory(r.Context(), session, parts[1])
		s.respond(w, r, http.StatusOK, payload, err)

	case len(parts) == 1:
		quizID := parts[0]
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetQuiz(r.Context(), session, quizID)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPut, http.MethodPatch:
			var body UpdateQuizInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.UpdateQuiz(r.Context(), session, quizID, body)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodDelete:
			payload, err := s.service.DeleteQuiz(r.Context(), session, quizID)
			s.respond(w, r, http.StatusOK, payload, err)
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 2 && parts[1] == "export":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body struct {
			Format string `json:"format"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		result, err := s.service.ExportQuiz(r.Context(), session, parts[0], body.Format)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeExport(w, result)

	default:
		notFoundRoute(w)
	}
}

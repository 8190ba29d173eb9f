package app

import (
	"net/http"
)

func (s *HTTPServer) handlePomodoro(w http.ResponseWriter, r *http.Request, parts []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if len(parts) != 1 {
		notFoundRoute(w)
		return
	}

	switch parts[0] {
	case "start":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body StartPomodoroInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.StartPomodoro(r.Context(), session, body)
		s.respond(w, r, http.StatusCreated, payload, err)
	case "end":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var body EndPomodoroInput
		if err := decodeBody(r, &body); err != nil {
			invalidBody(w, err)
			return
		}
		payload, err := s.service.EndPomodoro(r.Context(), session, body)
		s.respond(w, r, http.StatusOK, payload, err)
	case "history":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.PomodoroHistory(r.Context(), session)
		s.respond(w, r, http.StatusOK, payload, err)
	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleStudy(w http.ResponseWriter, r *http.Request, parts []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if len(parts) == 0 {
		notFoundRoute(w)
		return
	}

	switch parts[0] {
	case "events":
		s.handleStudyEvents(w, r, session, parts[1:])
	case "tasks":
		s.handleStudyTasks(w, r, session, parts[1:])
	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleStudyEvents(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListStudyEvents(r.Context(), session, r.URL.Query().Get("date"))
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPost:
			var body StudyEventInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.CreateStudyEvent(r.Context(), session, body)
			s.respond(w, r, http.StatusCreated, payload, err)
		default:
			methodNotAllowed(w)
		}
	case 1:
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			var body UpdateStudyEventInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.UpdateStudyEvent(r.Context(), session, parts[0], body)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodDelete:
			payload, err := s.service.DeleteStudyEvent(r.Context(), session, parts[0])
			s.respond(w, r, http.StatusOK, payload, err)
		default:
			methodNotAllowed(w)
		}
	default:
		notFoundRoute(w)
	}
}

func (s *HTTPServer) handleStudyTasks(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0:
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.TasksByDate(r.Context(), session, r.URL.Query().Get("date"))
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodPost:
			var body StudyTaskInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.CreateStudyTask(r.Context(), session, body)
			s.respond(w, r, http.StatusCreated, payload, err)
		default:
			methodNotAllowed(w)
		}
	case len(parts) == 1 && parts[0] == "all":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		payload, err := s.service.ListStudyTasks(r.Context(), session)
		s.respond(w, r, http.StatusOK, payload, err)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			var body UpdateStudyTaskInput
			if err := decodeBody(r, &body); err != nil {
				invalidBody(w, err)
				return
			}
			payload, err := s.service.UpdateStudyTask(r.Context(), session, parts[0], body)
			s.respond(w, r, http.StatusOK, payload, err)
		case http.MethodDelete:
			payload, err := s.service.DeleteStudyTask(r.Context(), session, parts[0])
			s.respond(w, r, http.StatusOK, payload, err)
		default:
			methodNotAllowed(w)
		}
	default:
		notFoundRoute(w)
	}
}

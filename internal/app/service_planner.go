package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

const dayLayout = "2006-01-02"

// breakMinutes maps an allowed focus duration to its break length.
var breakMinutes = map[int]int{10: 2, 20: 5, 60: 10}

var pomodoroStatuses = map[string]struct{}{
	store.PomodoroRunning:   {},
	store.PomodoroPaused:    {},
	store.PomodoroOnBreak:   {},
	store.PomodoroCompleted: {},
}

type StartPomodoroInput struct {
	Duration int `json:"duration"`
}

type EndPomodoroInput struct {
	SessionID    string  `json:"sessionId"`
	Status       *string `json:"status"`
	EndTime      *string `json:"endTime"`
	FocusSeconds *int    `json:"focusSeconds" validate:"omitempty,min=0"`
	BreakSeconds *int    `json:"breakSeconds" validate:"omitempty,min=0"`
}

type StudyEventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type UpdateStudyEventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	IsCompleted *bool   `json:"isCompleted"`
}

type StudyTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

type UpdateStudyTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	IsCompleted *bool   `json:"isCompleted"`
}

// parseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates (UTC).
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dayLayout, raw)
}

// dayWindow returns [start of day, start of next day) for a YYYY-MM-DD value.
func dayWindow(raw string) (time.Time, time.Time, error) {
	day, err := time.Parse(dayLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.Add(24 * time.Hour), nil
}

func (s *Service) StartPomodoro(ctx context.Context, session Session, input StartPomodoroInput) (map[string]any, error) {
	breakLength, ok := breakMinutes[input.Duration]
	if !ok {
		return nil, badRequest("Invalid duration. Allowed: 10,20,60")
	}
	created, err := s.store.CreatePomodoroSession(ctx, store.PomodoroSession{
		ID:          util.NewID("pom"),
		UserID:      session.UserID,
		Duration:    input.Duration,
		BreakLength: breakLength,
		Status:      store.PomodoroRunning,
		StartTime:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"session": pomodoroPayload(created)}, nil
}

func (s *Service) EndPomodoro(ctx context.Context, session Session, input EndPomodoroInput) (map[string]any, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, badRequest("sessionId required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	pomodoro, err := s.store.GetPomodoroSession(ctx, sessionID)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if err != nil || pomodoro.UserID != session.UserID {
		return nil, notFound("Session not found")
	}

	if input.Status != nil {
		if _, ok := pomodoroStatuses[*input.Status]; !ok {
			return nil, badRequest("Invalid status")
		}
		pomodoro.Status = *input.Status
	}
	if input.EndTime != nil && strings.TrimSpace(*input.EndTime) != "" {
		end, err := parseDate(*input.EndTime)
		if err != nil {
			return nil, badRequest("Invalid endTime")
		}
		pomodoro.EndTime = &end
	}
	if input.FocusSeconds != nil {
		pomodoro.FocusSeconds = *input.FocusSeconds
	}
	if input.BreakSeconds != nil {
		pomodoro.BreakSeconds = *input.BreakSeconds
	}
	if pomodoro.Status == store.PomodoroCompleted && pomodoro.EndTime == nil {
		now := s.now().UTC()
		pomodoro.EndTime = &now
	}

	updated, err := s.store.UpdatePomodoroSession(ctx, pomodoro)
	if err != nil {
		return nil, err
	}
	return map[string]any{"session": pomodoroPayload(updated)}, nil
}

func (s *Service) PomodoroHistory(ctx context.Context, session Session) (map[string]any, error) {
	sessions, err := s.store.ListPomodoroSessions(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(sessions))
	for _, item := range sessions {
		items = append(items, pomodoroPayload(item))
	}
	return map[string]any{"sessions": items}, nil
}

func (s *Service) CreateStudyEvent(ctx context.Context, session Session, input StudyEventInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.StartDate) == "" || strings.TrimSpace(input.EndDate) == "" {
		return nil, badRequest("title, startDate and endDate are required")
	}
	start, err := parseDate(input.StartDate)
	if err != nil {
		return nil, badRequest("Invalid startDate")
	}
	end, err := parseDate(input.EndDate)
	if err != nil {
		return nil, badRequest("Invalid endDate")
	}
	if end.Before(start) {
		return nil, badRequest("endDate must not be before startDate")
	}
	event, err := s.store.CreateStudyEvent(ctx, store.StudyEvent{
		ID:          util.NewID("evt"),
		UserID:      session.UserID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"event": studyEventPayload(event)}, nil
}

// ListStudyEvents returns every event, or with date only those overlapping
// that day.
func (s *Service) ListStudyEvents(ctx context.Context, session Session, date string) (map[string]any, error) {
	var from, to *time.Time
	if strings.TrimSpace(date) != "" {
		start, end, err := dayWindow(date)
		if err != nil {
			return nil, badRequest("date must be YYYY-MM-DD")
		}
		from, to = &start, &end
	}
	events, err := s.store.ListStudyEvents(ctx, session.UserID, from, to)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(events))
	for _, event := range events {
		items = append(items, studyEventPayload(event))
	}
	return map[string]any{"events": items}, nil
}

func (s *Service) ownedStudyEvent(ctx context.Context, eventID, userID string) (store.StudyEvent, error) {
	event, err := s.store.GetStudyEvent(ctx, eventID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.StudyEvent{}, notFound("Event not found")
		}
		return store.StudyEvent{}, err
	}
	if event.UserID != userID {
		return store.StudyEvent{}, forbidden("Not authorized to modify this event")
	}
	return event, nil
}

func (s *Service) UpdateStudyEvent(ctx context.Context, session Session, eventID string, input UpdateStudyEventInput) (map[string]any, error) {
	event, err := s.ownedStudyEvent(ctx, eventID, session.UserID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			event.Title = title
		}
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.StartDate != nil {
		start, err := parseDate(*input.StartDate)
		if err != nil {
			return nil, badRequest("Invalid startDate")
		}
		event.StartDate = start
	}
	if input.EndDate != nil {
		end, err := parseDate(*input.EndDate)
		if err != nil {
			return nil, badRequest("Invalid endDate")
		}
		event.EndDate = end
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, badRequest("endDate must not be before startDate")
	}
	if input.IsCompleted != nil {
		event.IsCompleted = *input.IsCompleted
	}
	updated, err := s.store.UpdateStudyEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	return map[string]any{"event": studyEventPayload(updated)}, nil
}

func (s *Service) DeleteStudyEvent(ctx context.Context, session Session, eventID string) (map[string]any, error) {
	event, err := s.ownedStudyEvent(ctx, eventID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteStudyEvent(ctx, event.ID); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Event removed"}, nil
}

func (s *Service) CreateStudyTask(ctx context.Context, session Session, input StudyTaskInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.DueDate) == "" {
		return nil, badRequest("title and dueDate are required")
	}
	due, err := parseDate(input.DueDate)
	if err != nil {
		return nil, badRequest("Invalid dueDate")
	}
	task, err := s.store.CreateStudyTask(ctx, store.StudyTask{
		ID:          util.NewID("task"),
		UserID:      session.UserID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     due,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": studyTaskPayload(task)}, nil
}

// TasksByDate lists the tasks due on one day, open tasks first.
func (s *Service) TasksByDate(ctx context.Context, session Session, date string) (map[string]any, error) {
	if strings.TrimSpace(date) == "" {
		return nil, badRequest("date query parameter is required (YYYY-MM-DD)")
	}
	start, end, err := dayWindow(date)
	if err != nil {
		return nil, badRequest("date query parameter is required (YYYY-MM-DD)")
	}
	tasks, err := s.store.ListStudyTasks(ctx, session.UserID, &start, &end)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].IsCompleted != tasks[j].IsCompleted {
			return !tasks[i].IsCompleted
		}
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
	items := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, studyTaskPayload(task))
	}
	return map[string]any{"tasks": items}, nil
}

func (s *Service) ListStudyTasks(ctx context.Context, session Session) (map[string]any, error) {
	tasks, err := s.store.ListStudyTasks(ctx, session.UserID, nil, nil)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, studyTaskPayload(task))
	}
	return map[string]any{"tasks": items}, nil
}

func (s *Service) ownedStudyTask(ctx context.Context, taskID, userID string) (store.StudyTask, error) {
	task, err := s.store.GetStudyTask(ctx, taskID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.StudyTask{}, notFound("Task not found")
		}
		return store.StudyTask{}, err
	}
	if task.UserID != userID {
		return store.StudyTask{}, forbidden("Not authorized to modify this task")
	}
	return task, nil
}

func (s *Service) UpdateStudyTask(ctx context.Context, session Session, taskID string, input UpdateStudyTaskInput) (map[string]any, error) {
	task, err := s.ownedStudyTask(ctx, taskID, session.UserID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			task.Title = title
		}
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.DueDate != nil {
		due, err := parseDate(*input.DueDate)
		if err != nil {
			return nil, badRequest("Invalid dueDate")
		}
		task.DueDate = due
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
	}
	updated, err := s.store.UpdateStudyTask(ctx, task)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": studyTaskPayload(updated)}, nil
}

func (s *Service) DeleteStudyTask(ctx context.Context, session Session, taskID string) (map[string]any, error) {
	task, err := s.ownedStudyTask(ctx, taskID, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteStudyTask(ctx, task.ID); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Task removed"}, nil
}

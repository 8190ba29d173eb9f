package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const pomodoroColumns = `id, user_id, duration, break_length, status, start_time, end_time, focus_seconds, break_seconds, created_at, updated_at`

func scanPomodoro(row interface{ Scan(...any) error }) (PomodoroSession, error) {
	var item PomodoroSession
	err := row.Scan(&item.ID, &item.UserID, &item.Duration, &item.BreakLength, &item.Status, &item.StartTime, &item.EndTime, &item.FocusSeconds, &item.BreakSeconds, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) CreatePomodoroSession(ctx context.Context, session PomodoroSession) (PomodoroSession, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pomodoro_sessions (id, user_id, duration, break_length, status, start_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, session.ID, session.UserID, session.Duration, session.BreakLength, session.Status, session.StartTime).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return PomodoroSession{}, fmt.Errorf("insert pomodoro session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) GetPomodoroSession(ctx context.Context, sessionID string) (PomodoroSession, error) {
	item, err := scanPomodoro(s.db.QueryRowContext(ctx, `SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE id=$1`, sessionID))
	if err != nil {
		return PomodoroSession{}, fmt.Errorf("get pomodoro session: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdatePomodoroSession(ctx context.Context, session PomodoroSession) (PomodoroSession, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE pomodoro_sessions
		SET status=$2, end_time=$3, focus_seconds=$4, break_seconds=$5, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, session.ID, session.Status, session.EndTime, session.FocusSeconds, session.BreakSeconds).Scan(&session.UpdatedAt)
	if err != nil {
		return PomodoroSession{}, fmt.Errorf("update pomodoro session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ListPomodoroSessions(ctx context.Context, userID string) ([]PomodoroSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pomodoroColumns+`
		FROM pomodoro_sessions
		WHERE user_id=$1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pomodoro sessions: %w", err)
	}
	defer rows.Close()

	items := make([]PomodoroSession, 0)
	for rows.Next() {
		item, err := scanPomodoro(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pomodoro session: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pomodoro sessions: %w", err)
	}
	return items, nil
}

const studyEventColumns = `id, user_id, title, description, start_date, end_date, is_completed, created_at, updated_at`

func scanStudyEvent(row interface{ Scan(...any) error }) (StudyEvent, error) {
	var item StudyEvent
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.StartDate, &item.EndDate, &item.IsCompleted, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) CreateStudyEvent(ctx context.Context, event StudyEvent) (StudyEvent, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO study_events (id, user_id, title, description, start_date, end_date, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, event.ID, event.UserID, event.Title, event.Description, event.StartDate, event.EndDate, event.IsCompleted).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return StudyEvent{}, fmt.Errorf("insert study event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) GetStudyEvent(ctx context.Context, eventID string) (StudyEvent, error) {
	item, err := scanStudyEvent(s.db.QueryRowContext(ctx, `SELECT `+studyEventColumns+` FROM study_events WHERE id=$1`, eventID))
	if err != nil {
		return StudyEvent{}, fmt.Errorf("get study event: %w", err)
	}
	return item, nil
}

// ListStudyEvents returns the user's events ordered by start. With a non-nil
// window only events overlapping [from, to) are returned.
func (s *PostgresStore) ListStudyEvents(ctx context.Context, userID string, from, to *time.Time) ([]StudyEvent, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if from != nil && to != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+studyEventColumns+`
			FROM study_events
			WHERE user_id=$1 AND start_date < $3 AND end_date >= $2
			ORDER BY start_date ASC, id ASC
		`, userID, *from, *to)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+studyEventColumns+`
			FROM study_events
			WHERE user_id=$1
			ORDER BY start_date ASC, id ASC
		`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list study events: %w", err)
	}
	defer rows.Close()

	items := make([]StudyEvent, 0)
	for rows.Next() {
		item, err := scanStudyEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study event: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study events: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateStudyEvent(ctx context.Context, event StudyEvent) (StudyEvent, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE study_events
		SET title=$2, description=$3, start_date=$4, end_date=$5, is_completed=$6, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, event.ID, event.Title, event.Description, event.StartDate, event.EndDate, event.IsCompleted).Scan(&event.UpdatedAt)
	if err != nil {
		return StudyEvent{}, fmt.Errorf("update study event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) DeleteStudyEvent(ctx context.Context, eventID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM study_events WHERE id=$1`, eventID); err != nil {
		return fmt.Errorf("delete study event: %w", err)
	}
	return nil
}

const studyTaskColumns = `id, user_id, title, description, due_date, is_completed, created_at, updated_at`

func scanStudyTask(row interface{ Scan(...any) error }) (StudyTask, error) {
	var item StudyTask
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.DueDate, &item.IsCompleted, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) CreateStudyTask(ctx context.Context, task StudyTask) (StudyTask, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO study_tasks (id, user_id, title, description, due_date, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, task.ID, task.UserID, task.Title, task.Description, task.DueDate, task.IsCompleted).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return StudyTask{}, fmt.Errorf("insert study task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) GetStudyTask(ctx context.Context, taskID string) (StudyTask, error) {
	item, err := scanStudyTask(s.db.QueryRowContext(ctx, `SELECT `+studyTaskColumns+` FROM study_tasks WHERE id=$1`, taskID))
	if err != nil {
		return StudyTask{}, fmt.Errorf("get study task: %w", err)
	}
	return item, nil
}

// ListStudyTasks returns the user's tasks by due date, optionally limited to
// those due in [from, to).
func (s *PostgresStore) ListStudyTasks(ctx context.Context, userID string, from, to *time.Time) ([]StudyTask, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if from != nil && to != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+studyTaskColumns+`
			FROM study_tasks
			WHERE user_id=$1 AND due_date >= $2 AND due_date < $3
			ORDER BY due_date ASC, id ASC
		`, userID, *from, *to)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+studyTaskColumns+`
			FROM study_tasks
			WHERE user_id=$1
			ORDER BY due_date ASC, id ASC
		`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list study tasks: %w", err)
	}
	defer rows.Close()

	items := make([]StudyTask, 0)
	for rows.Next() {
		item, err := scanStudyTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study task: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study tasks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateStudyTask(ctx context.Context, task StudyTask) (StudyTask, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE study_tasks
		SET title=$2, description=$3, due_date=$4, is_completed=$5, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, task.ID, task.Title, task.Description, task.DueDate, task.IsCompleted).Scan(&task.UpdatedAt)
	if err != nil {
		return StudyTask{}, fmt.Errorf("update study task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) DeleteStudyTask(ctx context.Context, taskID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM study_tasks WHERE id=$1`, taskID); err != nil {
		return fmt.Errorf("delete study task: %w", err)
	}
	return nil
}

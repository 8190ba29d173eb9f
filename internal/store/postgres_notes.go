package store

import (
	"context"
	"database/sql"
	"fmt"
)

const noteColumns = `n.id, n.user_id, COALESCE(u.username, ''), n.title, n.description, n.type, n.file_key, n.file_name, n.docs_url, n.is_public, n.created_at, n.updated_at`

func scanNote(row interface{ Scan(...any) error }) (Note, error) {
	var item Note
	err := row.Scan(&item.ID, &item.UserID, &item.OwnerUsername, &item.Title, &item.Description, &item.Type, &item.FileKey, &item.FileName, &item.DocsURL, &item.IsPublic, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func collectNotes(rows *sql.Rows) ([]Note, error) {
	defer rows.Close()
	items := make([]Note, 0)
	for rows.Next() {
		item, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) CreateNote(ctx context.Context, note Note) (Note, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (id, user_id, title, description, type, file_key, file_name, docs_url, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, note.ID, note.UserID, note.Title, note.Description, note.Type, note.FileKey, note.FileName, note.DocsURL, note.IsPublic).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, noteID string) (Note, error) {
	item, err := scanNote(s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		LEFT JOIN users u ON u.id = n.user_id
		WHERE n.id=$1
	`, noteID))
	if err != nil {
		return Note{}, fmt.Errorf("get note: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListNotesByUser(ctx context.Context, userID string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		LEFT JOIN users u ON u.id = n.user_id
		WHERE n.user_id=$1
		ORDER BY n.created_at DESC, n.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return collectNotes(rows)
}

func (s *PostgresStore) ListPublicNotes(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		LEFT JOIN users u ON u.id = n.user_id
		WHERE n.is_public
		ORDER BY n.created_at DESC, n.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list public notes: %w", err)
	}
	return collectNotes(rows)
}

func (s *PostgresStore) UpdateNote(ctx context.Context, note Note) (Note, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE notes
		SET title=$2, description=$3, type=$4, file_key=$5, file_name=$6, docs_url=$7, is_public=$8, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, note.ID, note.Title, note.Description, note.Type, note.FileKey, note.FileName, note.DocsURL, note.IsPublic).Scan(&note.UpdatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, noteID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1`, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

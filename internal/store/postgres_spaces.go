package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const spaceSummaryQuery = `
	SELECT s.id, s.title, s.description, s.is_public, s.admin_user_id, s.created_at, s.updated_at,
		COALESCE(u.username, ''),
		(SELECT COUNT(*) FROM space_members m WHERE m.space_id = s.id AND m.status = 'approved')
	FROM spaces s
	LEFT JOIN users u ON u.id = s.admin_user_id
`

func scanSpaceSummary(row interface{ Scan(...any) error }) (SpaceSummary, error) {
	var item SpaceSummary
	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.IsPublic, &item.AdminUserID, &item.CreatedAt, &item.UpdatedAt, &item.AdminUsername, &item.MemberCount)
	return item, err
}

// CreateSpace inserts the space and its admin membership row together.
func (s *PostgresStore) CreateSpace(ctx context.Context, space Space, adminMemberID string) (Space, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Space{}, fmt.Errorf("begin create space tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO spaces (id, title, description, is_public, admin_user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, space.ID, space.Title, space.Description, space.IsPublic, space.AdminUserID).Scan(&space.CreatedAt, &space.UpdatedAt)
	if err != nil {
		return Space{}, fmt.Errorf("insert space: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO space_members (id, space_id, user_id, role, status, approved_at)
		VALUES ($1, $2, $3, 'admin', 'approved', NOW())
	`, adminMemberID, space.ID, space.AdminUserID); err != nil {
		return Space{}, fmt.Errorf("insert admin member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Space{}, fmt.Errorf("commit create space: %w", err)
	}
	return space, nil
}

func (s *PostgresStore) GetSpace(ctx context.Context, spaceID string) (Space, error) {
	var item Space
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, is_public, admin_user_id, created_at, updated_at
		FROM spaces
		WHERE id=$1
	`, spaceID).Scan(&item.ID, &item.Title, &item.Description, &item.IsPublic, &item.AdminUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Space{}, fmt.Errorf("get space: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) GetSpaceSummary(ctx context.Context, spaceID string) (SpaceSummary, error) {
	item, err := scanSpaceSummary(s.db.QueryRowContext(ctx, spaceSummaryQuery+` WHERE s.id=$1`, spaceID))
	if err != nil {
		return SpaceSummary{}, fmt.Errorf("get space summary: %w", err)
	}
	return item, nil
}

// ListSpaces returns every space, or only those where memberUserID has an
// approved row when memberUserID is non-empty.
func (s *PostgresStore) ListSpaces(ctx context.Context, memberUserID string) ([]SpaceSummary, error) {
	rows, err := s.db.QueryContext(ctx, spaceSummaryQuery+`
		WHERE $1 = '' OR EXISTS (
			SELECT 1 FROM space_members m
			WHERE m.space_id = s.id AND m.user_id = $1 AND m.status = 'approved'
		)
		ORDER BY s.created_at DESC, s.id DESC
	`, memberUserID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	items := make([]SpaceSummary, 0)
	for rows.Next() {
		item, err := scanSpaceSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spaces: %w", err)
	}
	return items, nil
}

const memberColumns = `m.id, m.space_id, m.user_id, m.role, m.status, m.requested_at, m.approved_at, m.rejected_at, m.left_at, m.updated_at`

func scanMember(row interface{ Scan(...any) error }, extra ...any) (Member, error) {
	var item Member
	dest := []any{&item.ID, &item.SpaceID, &item.UserID, &item.Role, &item.Status, &item.RequestedAt, &item.ApprovedAt, &item.RejectedAt, &item.LeftAt, &item.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return item, err
}

func (s *PostgresStore) GetMembership(ctx context.Context, spaceID, userID string) (Member, error) {
	item, err := scanMember(s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM space_members m
		WHERE m.space_id=$1 AND m.user_id=$2
	`, spaceID, userID))
	if err != nil {
		return Member{}, fmt.Errorf("get membership: %w", err)
	}
	return item, nil
}

// ListMembers returns rows in the given status joined with their users.
// Rows whose user no longer exists are skipped.
func (s *PostgresStore) ListMembers(ctx context.Context, spaceID, status string) ([]MemberWithUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memberColumns+`, u.username, u.email
		FROM space_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.space_id=$1 AND m.status=$2
		ORDER BY m.approved_at ASC NULLS LAST, m.requested_at ASC, m.id ASC
	`, spaceID, status)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	items := make([]MemberWithUser, 0)
	for rows.Next() {
		var item MemberWithUser
		member, err := scanMember(rows, &item.Username, &item.Email)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		item.Member = member
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return items, nil
}

// RequestJoin creates a requested row or reopens a rejected/left one in a
// single statement. It reports false when the existing row was already
// requested or approved and so was left untouched.
func (s *PostgresStore) RequestJoin(ctx context.Context, memberID, spaceID, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO space_members (id, space_id, user_id, role, status, requested_at)
		VALUES ($1, $2, $3, 'member', 'requested', NOW())
		ON CONFLICT (space_id, user_id) DO UPDATE
		SET status='requested', role='member', requested_at=NOW(),
			approved_at=NULL, rejected_at=NULL, left_at=NULL, updated_at=NOW()
		WHERE space_members.status IN ('rejected', 'left')
	`, memberID, spaceID, userID)
	return affected(result, err, "request join")
}

// DecideJoinRequest moves a requested row to approved or rejected. memberKey
// matches either the row id or the requesting user's id. sql.ErrNoRows is
// returned when no requested row matches.
func (s *PostgresStore) DecideJoinRequest(ctx context.Context, spaceID, memberKey string, approve bool) (Member, error) {
	query := `
		UPDATE space_members m
		SET status='approved', role='member', approved_at=NOW(), updated_at=NOW()
		WHERE m.space_id=$1 AND (m.id=$2 OR m.user_id=$2) AND m.status='requested'
		RETURNING ` + memberColumns
	if !approve {
		query = `
		UPDATE space_members m
		SET status='rejected', rejected_at=NOW(), updated_at=NOW()
		WHERE m.space_id=$1 AND (m.id=$2 OR m.user_id=$2) AND m.status='requested'
		RETURNING ` + memberColumns
	}
	item, err := scanMember(s.db.QueryRowContext(ctx, query, spaceID, memberKey))
	if err != nil {
		return Member{}, fmt.Errorf("decide join request: %w", err)
	}
	return item, nil
}

// LeaveSpace marks an approved non-admin row as left.
func (s *PostgresStore) LeaveSpace(ctx context.Context, spaceID, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE space_members
		SET status='left', left_at=NOW(), updated_at=NOW()
		WHERE space_id=$1 AND user_id=$2 AND status='approved' AND role <> 'admin'
	`, spaceID, userID)
	return affected(result, err, "leave space")
}

// RemoveMember marks an approved non-admin row as rejected.
func (s *PostgresStore) RemoveMember(ctx context.Context, spaceID, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE space_members
		SET status='rejected', rejected_at=NOW(), updated_at=NOW()
		WHERE space_id=$1 AND user_id=$2 AND status='approved' AND role <> 'admin'
	`, spaceID, userID)
	return affected(result, err, "remove member")
}

// ShareNote stores the snapshot and its pointer in one transaction.
func (s *PostgresStore) ShareNote(ctx context.Context, note SharedNote, item SharedItem) (SharedNote, SharedItem, error) {
	noteMeta, err := encodeJSON(note.Meta, "{}")
	if err != nil {
		return SharedNote{}, SharedItem{}, fmt.Errorf("encode shared note meta: %w", err)
	}
	itemMeta, err := encodeJSON(item.Meta, "{}")
	if err != nil {
		return SharedNote{}, SharedItem{}, fmt.Errorf("encode shared item meta: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SharedNote{}, SharedItem{}, fmt.Errorf("begin share note tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO shared_notes (id, space_id, note_ref, shared_by, title, content, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING created_at, updated_at
	`, note.ID, note.SpaceID, note.NoteRef, note.SharedBy, note.Title, note.Content, noteMeta).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return SharedNote{}, SharedItem{}, fmt.Errorf("insert shared note: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO space_shared_items (id, space_id, kind, ref_id, shared_by, meta)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING shared_at
	`, item.ID, item.SpaceID, item.Kind, item.RefID, item.SharedBy, itemMeta).Scan(&item.SharedAt)
	if err != nil {
		return SharedNote{}, SharedItem{}, fmt.Errorf("insert shared item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SharedNote{}, SharedItem{}, fmt.Errorf("commit share note: %w", err)
	}
	return note, item, nil
}

func (s *PostgresStore) InsertSharedItem(ctx context.Context, item SharedItem) (SharedItem, error) {
	meta, err := encodeJSON(item.Meta, "{}")
	if err != nil {
		return SharedItem{}, fmt.Errorf("encode shared item meta: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO space_shared_items (id, space_id, kind, ref_id, shared_by, meta)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING shared_at
	`, item.ID, item.SpaceID, item.Kind, item.RefID, item.SharedBy, meta).Scan(&item.SharedAt)
	if err != nil {
		return SharedItem{}, fmt.Errorf("insert shared item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) listSharedItems(ctx context.Context, query string, args ...any) ([]SharedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shared items: %w", err)
	}
	defer rows.Close()

	items := make([]SharedItem, 0)
	for rows.Next() {
		var item SharedItem
		var meta []byte
		if err := rows.Scan(&item.ID, &item.SpaceID, &item.Kind, &item.RefID, &item.SharedBy, &item.SharedAt, &meta); err != nil {
			return nil, fmt.Errorf("scan shared item: %w", err)
		}
		item.Meta = decodeMeta(meta)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListSharedItems(ctx context.Context, spaceID string) ([]SharedItem, error) {
	return s.listSharedItems(ctx, `
		SELECT id, space_id, kind, ref_id, shared_by, shared_at, meta
		FROM space_shared_items
		WHERE space_id=$1
		ORDER BY shared_at ASC, id ASC
	`, spaceID)
}

func (s *PostgresStore) FindSharedItems(ctx context.Context, spaceID, kind, refID string) ([]SharedItem, error) {
	return s.listSharedItems(ctx, `
		SELECT id, space_id, kind, ref_id, shared_by, shared_at, meta
		FROM space_shared_items
		WHERE space_id=$1 AND kind=$2 AND ref_id=$3
		ORDER BY shared_at ASC, id ASC
	`, spaceID, kind, refID)
}

// DeleteSharedItems removes every matching pointer. For notes the snapshot
// named by refID is removed in the same transaction.
func (s *PostgresStore) DeleteSharedItems(ctx context.Context, spaceID, kind, refID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin unshare tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM space_shared_items
		WHERE space_id=$1 AND kind=$2 AND ref_id=$3
	`, spaceID, kind, refID)
	if err != nil {
		return 0, fmt.Errorf("delete shared items: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete shared items rows: %w", err)
	}

	if kind == SharedKindNote {
		if _, err := tx.ExecContext(ctx, `DELETE FROM shared_notes WHERE space_id=$1 AND id=$2`, spaceID, refID); err != nil {
			return 0, fmt.Errorf("delete shared note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit unshare: %w", err)
	}
	return int(removed), nil
}

const sharedNoteColumns = `id, space_id, note_ref, shared_by, title, content, meta, created_at, updated_at`

func scanSharedNote(row interface{ Scan(...any) error }) (SharedNote, error) {
	var item SharedNote
	var meta []byte
	err := row.Scan(&item.ID, &item.SpaceID, &item.NoteRef, &item.SharedBy, &item.Title, &item.Content, &meta, &item.CreatedAt, &item.UpdatedAt)
	item.Meta = decodeMeta(meta)
	return item, err
}

func (s *PostgresStore) GetSharedNote(ctx context.Context, id string) (SharedNote, error) {
	item, err := scanSharedNote(s.db.QueryRowContext(ctx, `SELECT `+sharedNoteColumns+` FROM shared_notes WHERE id=$1`, id))
	if err != nil {
		return SharedNote{}, fmt.Errorf("get shared note: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListSharedNotes(ctx context.Context, spaceID string) ([]SharedNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sharedNoteColumns+`
		FROM shared_notes
		WHERE space_id=$1
		ORDER BY created_at DESC, id DESC
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list shared notes: %w", err)
	}
	defer rows.Close()

	items := make([]SharedNote, 0)
	for rows.Next() {
		item, err := scanSharedNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shared note: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared notes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, message Message) error {
	meta, err := encodeJSON(message.Meta, "{}")
	if err != nil {
		return fmt.Errorf("encode message meta: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, space_id, user_id, text, meta)
		VALUES ($1, $2, $3, $4, $5::jsonb)
	`, message.ID, message.SpaceID, message.UserID, message.Text, meta)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

const messageQuery = `
	SELECT m.id, m.space_id, m.user_id, COALESCE(u.username, ''), m.text, m.meta, m.edited, m.created_at, m.updated_at
	FROM messages m
	LEFT JOIN users u ON u.id = m.user_id
`

func scanMessage(row interface{ Scan(...any) error }) (Message, error) {
	var item Message
	var meta []byte
	err := row.Scan(&item.ID, &item.SpaceID, &item.UserID, &item.Username, &item.Text, &meta, &item.Edited, &item.CreatedAt, &item.UpdatedAt)
	item.Meta = decodeMeta(meta)
	return item, err
}

func (s *PostgresStore) GetMessage(ctx context.Context, id string) (Message, error) {
	item, err := scanMessage(s.db.QueryRowContext(ctx, messageQuery+` WHERE m.id=$1`, id))
	if err != nil {
		return Message{}, fmt.Errorf("get message: %w", err)
	}
	return item, nil
}

// ListRecentMessages returns at most limit messages, newest first.
func (s *PostgresStore) ListRecentMessages(ctx context.Context, spaceID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, messageQuery+`
		WHERE m.space_id=$1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2
	`, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0, limit)
	for rows.Next() {
		item, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

// IsNotFound reports whether err wraps sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

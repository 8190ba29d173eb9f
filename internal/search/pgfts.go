package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; without Postgres nothing else works either.
func (p *PgFTS) Healthy() bool {
	return true
}

// buildQuery assembles the UNION ALL over notes and shared_notes. It returns
// empty SQL when no sub-query applies.
func buildQuery(q Query) (countSQL, dataSQL string, args []any) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args = []any{q.Text}
	argN := 2

	var subQueries []string
	if q.Type == "" || q.Type == ResultNote {
		where := "n.fts @@ " + tsQuery + " AND (n.is_public"
		if q.ViewerID != "" {
			where += fmt.Sprintf(" OR n.user_id = $%d", argN)
			args = append(args, q.ViewerID)
			argN++
		}
		where += ")"
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'note'::text AS type, n.id, n.title,
				ts_headline('english', coalesce(n.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				n.user_id AS owner_id, ''::text AS space_id, n.is_public,
				ts_rank(n.fts, %s) AS rank
			FROM notes n
			WHERE %s`, tsQuery, tsQuery, where))
	}
	if (q.Type == "" || q.Type == ResultSharedNote) && q.SpaceID != "" {
		where := fmt.Sprintf("sn.fts @@ %s AND sn.space_id = $%d", tsQuery, argN)
		args = append(args, q.SpaceID)
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'sharedNote'::text AS type, sn.id, sn.title,
				ts_headline('english', coalesce(sn.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS owner_id, sn.space_id, false AS is_public,
				ts_rank(sn.fts, %s) AS rank
			FROM shared_notes sn
			WHERE %s`, tsQuery, tsQuery, where))
	}
	if len(subQueries) == 0 {
		return "", "", nil
	}

	union := strings.Join(subQueries, " UNION ALL ")
	countSQL = fmt.Sprintf("SELECT count(*) FROM (%s) sub", union)
	dataSQL = fmt.Sprintf(`SELECT type, id, title, snippet, owner_id, space_id, is_public
		FROM (%s) sub
		ORDER BY rank DESC, id ASC
		LIMIT %d OFFSET %d`, union, limit, offset)
	return countSQL, dataSQL, args
}

// Search ranks matches with ts_rank and builds snippets with ts_headline.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	countSQL, dataSQL, args := buildQuery(q)
	if dataSQL == "" {
		return nil, 0, nil
	}

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.OwnerID, &r.SpaceID, &r.IsPublic); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable rows for a full reindex.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]NoteRecord, []SharedNoteRecord, error) {
	noteRows, err := p.db.QueryContext(ctx, `SELECT id, title, description, user_id, is_public FROM notes`)
	if err != nil {
		return nil, nil, fmt.Errorf("load notes: %w", err)
	}
	defer noteRows.Close()

	notes := make([]NoteRecord, 0)
	for noteRows.Next() {
		var n NoteRecord
		if err := noteRows.Scan(&n.ID, &n.Title, &n.Description, &n.UserID, &n.IsPublic); err != nil {
			return nil, nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate notes: %w", err)
	}

	sharedRows, err := p.db.QueryContext(ctx, `SELECT id, title, content, space_id FROM shared_notes`)
	if err != nil {
		return nil, nil, fmt.Errorf("load shared notes: %w", err)
	}
	defer sharedRows.Close()

	shared := make([]SharedNoteRecord, 0)
	for sharedRows.Next() {
		var n SharedNoteRecord
		if err := sharedRows.Scan(&n.ID, &n.Title, &n.Content, &n.SpaceID); err != nil {
			return nil, nil, fmt.Errorf("scan shared note: %w", err)
		}
		shared = append(shared, n)
	}
	if err := sharedRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate shared notes: %w", err)
	}
	return notes, shared, nil
}

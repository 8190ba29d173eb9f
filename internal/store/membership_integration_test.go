package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alexdossss/study-hub/internal/util"
)

func openMigratedStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dsn := testDatabaseURL(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if _, err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func mustCreateUser(t *testing.T, s *PostgresStore, name string) User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), User{
		ID:           util.NewID("usr"),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func TestMembershipRowIsUniquePerSpaceAndUser(t *testing.T) {
	s := openMigratedStore(t)
	ctx := context.Background()

	admin := mustCreateUser(t, s, "admin")
	member := mustCreateUser(t, s, "member")

	space, err := s.CreateSpace(ctx, Space{ID: util.NewID("spc"), Title: "Algebra", IsPublic: true, AdminUserID: admin.ID}, util.NewID("mem"))
	if err != nil {
		t.Fatalf("create space: %v", err)
	}

	_, err = s.DB().ExecContext(ctx, `
		INSERT INTO space_members (id, space_id, user_id, role, status)
		VALUES ($1, $2, $3, 'member', 'requested')
	`, util.NewID("mem"), space.ID, admin.ID)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		t.Fatalf("expected unique violation for second admin row, got %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RequestJoin(ctx, util.NewID("mem"), space.ID, member.ID); err != nil {
				t.Errorf("request join: %v", err)
			}
		}()
	}
	wg.Wait()

	var rowCount int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM space_members WHERE space_id=$1 AND user_id=$2`, space.ID, member.ID).Scan(&rowCount); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rowCount != 1 {
		t.Fatalf("expected exactly one membership row, got %d", rowCount)
	}
}

func TestMembershipTransitionsOnlyFromExpectedStates(t *testing.T) {
	s := openMigratedStore(t)
	ctx := context.Background()

	admin := mustCreateUser(t, s, "owner")
	member := mustCreateUser(t, s, "student")

	space, err := s.CreateSpace(ctx, Space{ID: util.NewID("spc"), Title: "Biology", AdminUserID: admin.ID}, util.NewID("mem"))
	if err != nil {
		t.Fatalf("create space: %v", err)
	}

	if _, err := s.DecideJoinRequest(ctx, space.ID, member.ID, true); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no requested row, got %v", err)
	}

	created, err := s.RequestJoin(ctx, util.NewID("mem"), space.ID, member.ID)
	if err != nil || !created {
		t.Fatalf("expected request to be created, created=%v err=%v", created, err)
	}
	again, err := s.RequestJoin(ctx, util.NewID("mem"), space.ID, member.ID)
	if err != nil || again {
		t.Fatalf("expected repeated request to be a no-op, changed=%v err=%v", again, err)
	}

	approved, err := s.DecideJoinRequest(ctx, space.ID, member.ID, true)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != MemberStatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("expected approved row, got %+v", approved)
	}
	if _, err := s.DecideJoinRequest(ctx, space.ID, approved.ID, false); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected reject after approve to match nothing, got %v", err)
	}

	if left, err := s.LeaveSpace(ctx, space.ID, admin.ID); err != nil || left {
		t.Fatalf("expected admin leave to match nothing, left=%v err=%v", left, err)
	}
	if left, err := s.LeaveSpace(ctx, space.ID, member.ID); err != nil || !left {
		t.Fatalf("expected member to leave, left=%v err=%v", left, err)
	}

	reopened, err := s.RequestJoin(ctx, util.NewID("mem"), space.ID, member.ID)
	if err != nil || !reopened {
		t.Fatalf("expected left row to reopen, reopened=%v err=%v", reopened, err)
	}
	row, err := s.GetMembership(ctx, space.ID, member.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if row.Status != MemberStatusRequested || row.LeftAt != nil {
		t.Fatalf("expected clean requested row, got %+v", row)
	}

	summary, err := s.GetSpaceSummary(ctx, space.ID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.MemberCount != 1 || summary.AdminUsername != "owner" {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestUnshareNoteRemovesOnlyItsSnapshot(t *testing.T) {
	s := openMigratedStore(t)
	ctx := context.Background()

	admin := mustCreateUser(t, s, "sharer")
	space, err := s.CreateSpace(ctx, Space{ID: util.NewID("spc"), Title: "Chemistry", IsPublic: true, AdminUserID: admin.ID}, util.NewID("mem"))
	if err != nil {
		t.Fatalf("create space: %v", err)
	}

	share := func(title string) SharedNote {
		snapshotID := util.NewID("shn")
		note, _, err := s.ShareNote(ctx,
			SharedNote{ID: snapshotID, SpaceID: space.ID, SharedBy: admin.ID, Title: title, Content: "body"},
			SharedItem{ID: util.NewID("shi"), SpaceID: space.ID, Kind: SharedKindNote, RefID: snapshotID, SharedBy: admin.ID, Meta: map[string]any{"title": title}},
		)
		if err != nil {
			t.Fatalf("share note: %v", err)
		}
		return note
	}
	first := share("first")
	second := share("second")

	removed, err := s.DeleteSharedItems(ctx, space.ID, SharedKindNote, first.ID)
	if err != nil {
		t.Fatalf("unshare: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pointer removed, got %d", removed)
	}

	if _, err := s.GetSharedNote(ctx, first.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected first snapshot removed, got %v", err)
	}
	if _, err := s.GetSharedNote(ctx, second.ID); err != nil {
		t.Fatalf("expected second snapshot to survive: %v", err)
	}
	items, err := s.ListSharedItems(ctx, space.ID)
	if err != nil {
		t.Fatalf("list shared items: %v", err)
	}
	if len(items) != 1 || items[0].RefID != second.ID {
		t.Fatalf("unexpected remaining items %+v", items)
	}
}

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationsDir = filepath.Join("..", "..", "db", "migrations")

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	ups, err := ListMigrations(migrationsDir, "up")
	require.NoError(t, err)
	downs, err := ListMigrations(migrationsDir, "down")
	require.NoError(t, err)
	require.NotEmpty(t, ups, "no migrations discovered")

	upVersions := map[string]bool{}
	for _, m := range ups {
		require.False(t, upVersions[m.Version], "duplicate up migration for version %s", m.Version)
		upVersions[m.Version] = true
	}
	downVersions := map[string]bool{}
	for _, m := range downs {
		downVersions[m.Version] = true
	}
	assert.Equal(t, upVersions, downVersions)
}

func TestListMigrationsOrdering(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_notes.up.sql", "0001_users.up.sql", "0002_notes.down.sql",
		"0001_users.down.sql", "README.md", "0003_Bad-Name.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}

	ups, err := ListMigrations(dir, "up")
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, "0001_users.up.sql", ups[0].Name)
	assert.Equal(t, "0002_notes.up.sql", ups[1].Name)

	downs, err := ListMigrations(dir, "down")
	require.NoError(t, err)
	require.Len(t, downs, 2)
	assert.Equal(t, "0002", downs[0].Version)
	assert.Equal(t, "0001", downs[1].Version)
}

func TestSpaceMembersAreUniquePerUser(t *testing.T) {
	ups, err := ListMigrations(migrationsDir, "up")
	require.NoError(t, err)

	var found bool
	for _, m := range ups {
		contents, err := os.ReadFile(m.Path)
		require.NoError(t, err)
		if strings.Contains(string(contents), "UNIQUE (space_id, user_id)") {
			found = true
		}
	}
	assert.True(t, found, "space_members must be keyed on (space_id, user_id)")
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) PingContext(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingWithRetry(t *testing.T) {
	p := &flakyPinger{failures: 2}
	require.NoError(t, pingWithRetry(context.Background(), p, 3, time.Millisecond))
	assert.Equal(t, 3, p.calls)

	p = &flakyPinger{failures: 5}
	err := pingWithRetry(context.Background(), p, 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, p.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = &flakyPinger{failures: 5}
	err = pingWithRetry(ctx, p, 3, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

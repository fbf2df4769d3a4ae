package columns

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/dbx"
	"github.com/taurisky/taurisky/internal/models"
	"github.com/taurisky/taurisky/internal/server/migrations"

	_ "modernc.org/sqlite"
)

var (
	created = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	saved   = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
)

func fixedNow() time.Time { return saved }

func sampleColumns() []models.DeckColumnConfig {
	show := true
	return []models.DeckColumnConfig{
		{ID: "c2", DID: "did:plc:alice", Type: models.ColumnNotifications, Position: 1, Width: models.WidthLarge, CreatedAt: created, UpdatedAt: created},
		{
			ID: "c1", DID: "did:plc:alice", Type: models.ColumnTimeline, Title: "Home", Position: 0, Width: models.WidthMedium,
			Settings: &models.ColumnSettings{
				Filters:     &models.TimelineFilters{RepostDisplay: models.RepostMany, ReplyDisplay: models.ReplyFollowing},
				AutoRefresh: &models.AutoRefreshSettings{Interval: models.RefreshOneMinute, ScrollToTop: true},
				Display:     &models.DisplaySettings{ShowIcons: &show},
			},
			CreatedAt: created, UpdatedAt: created,
		},
	}
}

// repositories under test, each backed by fresh storage.
func repos(t *testing.T) map[string]Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db, dbx.DialectSQLite))

	sqlRepo := NewSQLRepository(db, dbx.DialectSQLite)
	sqlRepo.now = fixedNow
	fileRepo := NewFileRepository(t.TempDir())
	fileRepo.now = fixedNow

	return map[string]Repository{"sqlite": sqlRepo, "file": fileRepo}
}

func TestRepositories_LoadEmpty(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			cols, err := r.Load(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, cols)
			assert.Empty(t, cols)
		})
	}
}

func TestRepositories_SaveLoadSortedAndStamped(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := sampleColumns()
			require.NoError(t, r.Save(ctx, in))

			got, err := r.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, "c1", got[0].ID)
			assert.Equal(t, "c2", got[1].ID)
			for _, c := range got {
				assert.True(t, c.UpdatedAt.Equal(saved), "updatedAt stamped on save")
				assert.True(t, c.CreatedAt.Equal(created))
			}

			require.NotNil(t, got[0].Settings)
			require.NotNil(t, got[0].Settings.AutoRefresh)
			assert.Equal(t, models.RefreshOneMinute, got[0].Settings.AutoRefresh.Interval)
			require.NotNil(t, got[0].Settings.Filters)
			assert.Equal(t, models.RepostMany, got[0].Settings.Filters.RepostDisplay)
			require.NotNil(t, got[0].Settings.Display)
			require.NotNil(t, got[0].Settings.Display.ShowIcons)
			assert.True(t, *got[0].Settings.Display.ShowIcons)
			assert.Nil(t, got[1].Settings)

			// the caller's slice is not modified
			assert.True(t, in[0].UpdatedAt.Equal(created))
		})
	}
}

func TestRepositories_SaveReplacesWholeList(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Save(ctx, sampleColumns()))

			one := sampleColumns()[1:]
			one[0].Position = 0
			require.NoError(t, r.Save(ctx, one))

			got, err := r.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "c1", got[0].ID)
		})
	}
}

func TestRepositories_RejectEmptyAndInvalid(t *testing.T) {
	for name, r := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Save(ctx, sampleColumns()))

			err := r.Save(ctx, nil)
			require.ErrorIs(t, err, common.ErrNoColumns)
			assert.Equal(t, "at least one column is required", err.Error())

			bad := sampleColumns()
			bad[0].Width = "huge"
			require.Error(t, r.Save(ctx, bad))

			got, err := r.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 2, "rejected saves leave storage untouched")
		})
	}
}

func TestFileRepository_AtomicWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRepository(dir)
	require.NoError(t, r.Save(context.Background(), sampleColumns()))

	_, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, FileName+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o600))

	_, err := NewFileRepository(dir).Load(context.Background())
	require.ErrorContains(t, err, "failed to parse columns JSON")
}

func TestSQLRepository_PostgresRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE FROM deck_columns$`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`(?s)^INSERT INTO deck_columns .*VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9\)$`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	r := NewSQLRepository(db, dbx.DialectPostgres)
	err = r.Save(context.Background(), sampleColumns())
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_PostgresCommit(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE FROM deck_columns$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO deck_columns`).
		WithArgs("c2", "did:plc:alice", "notifications", "", 1, "large", sql.NullString{}, created.UnixMilli(), saved.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO deck_columns`).
		WithArgs("c1", "did:plc:alice", "timeline", "Home", 0, "medium", sqlmock.AnyArg(), created.UnixMilli(), saved.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewSQLRepository(db, dbx.DialectPostgres)
	r.now = fixedNow
	require.NoError(t, r.Save(context.Background(), sampleColumns()))
	require.NoError(t, mock.ExpectationsWereMet())
}

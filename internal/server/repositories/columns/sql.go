package columns

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taurisky/taurisky/internal/dbx"
	"github.com/taurisky/taurisky/internal/models"
)

type SQLRepository struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

func NewSQLRepository(db *sql.DB, dialect string) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLRepository) Load(ctx context.Context) ([]models.DeckColumnConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, did, type, title, position, width, settings, created_at, updated_at FROM deck_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.DeckColumnConfig{}
	for rows.Next() {
		var c models.DeckColumnConfig
		var settings sql.NullString
		var created, updated int64
		if err := rows.Scan(&c.ID, &c.DID, &c.Type, &c.Title, &c.Position, &c.Width, &settings, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		if settings.Valid && settings.String != "" {
			c.Settings = &models.ColumnSettings{}
			if err := json.Unmarshal([]byte(settings.String), c.Settings); err != nil {
				return nil, fmt.Errorf("column %s: failed to parse settings: %w", c.ID, err)
			}
		}
		c.CreatedAt = time.UnixMilli(created).UTC()
		c.UpdatedAt = time.UnixMilli(updated).UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate column rows: %w", err)
	}

	sortByPosition(result)
	return result, nil
}

func (r *SQLRepository) Save(ctx context.Context, cols []models.DeckColumnConfig) error {
	stamped, err := prepare(cols, r.now())
	if err != nil {
		return err
	}

	insert := dbx.Rebind(r.dialect, `INSERT INTO deck_columns (id, did, type, title, position, width, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM deck_columns`); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		for _, c := range stamped {
			var settings sql.NullString
			if c.Settings != nil {
				b, err := json.Marshal(c.Settings)
				if err != nil {
					return fmt.Errorf("column %s: encode settings: %w", c.ID, err)
				}
				settings = sql.NullString{String: string(b), Valid: true}
			}

			if _, err := tx.ExecContext(ctx, insert,
				c.ID, c.DID, string(c.Type), c.Title, c.Position, string(c.Width), settings,
				c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli()); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

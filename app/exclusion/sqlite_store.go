package exclusion

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lysyi3m/quickwatch/app/database"
	"github.com/lysyi3m/quickwatch/app/domain"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps exclusions in the exclusions table. exclusion_meta holds
// a counter that is bumped in the same transaction as every write.
type SQLiteStore struct {
	db *database.DB
}

func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := s.version(ctx, tx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT link, video_id, title, channel_name, publish_date
		FROM exclusions
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.VideoRecord, 0)
	for rows.Next() {
		var record domain.VideoRecord
		var published sql.NullString
		if err := rows.Scan(&record.Link, &record.ID, &record.Title, &record.ChannelName, &published); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}
		if published.Valid {
			if t, err := time.Parse(time.RFC3339, published.String); err == nil {
				record.PublishedAt = &t
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exclusions: %w", err)
	}

	return NewSnapshot(records, strconv.FormatInt(version, 10)), nil
}

func (s *SQLiteStore) Save(ctx context.Context, snapshot *Snapshot) error {
	expected, err := strconv.ParseInt(snapshot.Version(), 10, 64)
	if err != nil {
		return fmt.Errorf("snapshot version %q: %w", snapshot.Version(), domain.ErrConflict)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE exclusion_meta SET version = version + 1 WHERE id = 1 AND version = ?`, expected)
	if err != nil {
		return fmt.Errorf("failed to bump exclusion version: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check exclusion version: %w", err)
	} else if n == 0 {
		return fmt.Errorf("exclusions at version %d: %w", expected, domain.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM exclusions`); err != nil {
		return fmt.Errorf("failed to clear exclusions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exclusions (link, video_id, title, channel_name, publish_date, position)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range snapshot.Records() {
		var published sql.NullString
		if record.PublishedAt != nil {
			published = sql.NullString{String: record.PublishedAt.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, record.Link, record.ID, record.Title, record.ChannelName, published, i); err != nil {
			return fmt.Errorf("failed to insert exclusion %s: %w", record.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exclusions: %w", err)
	}

	return nil
}

func (s *SQLiteStore) version(ctx context.Context, tx *sql.Tx) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM exclusion_meta WHERE id = 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read exclusion version: %w", err)
	}
	return version, nil
}

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/quickwatch/app/database"
	"github.com/lysyi3m/quickwatch/app/domain"
)

var _ Ledger = (*SQLiteLedger)(nil)

// SQLiteLedger keeps movie ids in ledger_entries, which has a UNIQUE
// constraint on movie_id.
type SQLiteLedger struct {
	db *database.DB
}

func NewSQLiteLedger(db *database.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

func (l *SQLiteLedger) Append(ctx context.Context, movieID string) error {
	result, err := l.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (movie_id) VALUES (?) ON CONFLICT (movie_id) DO NOTHING`, movieID)
	if err != nil {
		return domain.Collaborator("ledger", "append", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return domain.Collaborator("ledger", "append", err)
	}
	if n == 0 {
		return fmt.Errorf("movie id %s: %w", movieID, domain.ErrAlreadyRecorded)
	}

	slog.Info("Movie id recorded", "ledger", "sqlite", "movie_id", movieID)
	return nil
}

func (l *SQLiteLedger) Contains(ctx context.Context, movieID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE movie_id = ?)`, movieID).Scan(&exists)
	if err != nil {
		return false, domain.Collaborator("ledger", "read", err)
	}
	return exists, nil
}

package ledger

import (
	"context"
)

// Header is the single column of a ledger table.
const Header = "movie_id"

// Ledger is the external append-only record of downloaded movie ids.
// Append returns domain.ErrAlreadyRecorded when the backend itself can
// tell the id is present; callers still check Contains first because not
// every backend can.
type Ledger interface {
	Append(ctx context.Context, movieID string) error
	Contains(ctx context.Context, movieID string) (bool, error)
}

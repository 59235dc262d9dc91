package feed

import (
	"context"

	"github.com/lysyi3m/quickwatch/app/domain"
)

// Source is the live feed collaborator: a finite sequence of records in
// the collaborator's own order.
type Source interface {
	Records(ctx context.Context) ([]domain.VideoRecord, error)
}

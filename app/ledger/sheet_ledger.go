package ledger

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/sheets"
)

var _ Ledger = (*SheetLedger)(nil)

// SheetLedger appends movie ids to a worksheet. The worksheet and its
// header row are created on first use. Sheets has no conditional append,
// so two processes recording the same id at once can both succeed.
type SheetLedger struct {
	table sheets.Table
	tab   string

	mu    sync.Mutex
	ready bool
}

func NewSheetLedger(table sheets.Table, tab string) *SheetLedger {
	return &SheetLedger{table: table, tab: tab}
}

func (l *SheetLedger) Append(ctx context.Context, movieID string) error {
	if err := l.ensure(ctx); err != nil {
		return err
	}

	if err := l.table.Append(ctx, l.tab, []string{movieID}); err != nil {
		return domain.Collaborator("ledger", "append", err)
	}

	slog.Info("Movie id recorded", "ledger", "sheet", "tab", l.tab, "movie_id", movieID)
	return nil
}

func (l *SheetLedger) Contains(ctx context.Context, movieID string) (bool, error) {
	if err := l.ensure(ctx); err != nil {
		return false, err
	}

	rows, err := l.table.Values(ctx, l.tab)
	if err != nil {
		return false, domain.Collaborator("ledger", "read", err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(cell, Header) {
			continue
		}
		if cell == movieID {
			return true, nil
		}
	}

	return false, nil
}

// ensure retries on the next call when tab creation failed.
func (l *SheetLedger) ensure(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return nil
	}
	if err := l.table.EnsureTab(ctx, l.tab, []string{Header}); err != nil {
		return domain.Collaborator("ledger", "ensure "+l.tab, err)
	}
	l.ready = true
	return nil
}

package feed

import (
	"context"

	"github.com/lysyi3m/quickwatch/app/catalog"
	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/sheets"
)

// SheetSource reads the live feed from a worksheet whose first row is the
// header.
type SheetSource struct {
	table      sheets.Table
	tab        string
	normalizer *catalog.Normalizer
}

func NewSheetSource(table sheets.Table, tab string, normalizer *catalog.Normalizer) *SheetSource {
	return &SheetSource{table: table, tab: tab, normalizer: normalizer}
}

func (s *SheetSource) Records(ctx context.Context) ([]domain.VideoRecord, error) {
	rows, err := s.table.Values(ctx, s.tab)
	if err != nil {
		return nil, domain.Collaborator("live feed", "read "+s.tab, err)
	}
	if len(rows) == 0 {
		return []domain.VideoRecord{}, nil
	}

	records, _, err := s.normalizer.Rows("sheet:"+s.tab, rows[0], rows[1:])
	if err != nil {
		return nil, domain.Collaborator("live feed", "normalize "+s.tab, err)
	}

	return records, nil
}

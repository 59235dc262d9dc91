package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/lysyi3m/quickwatch/app/ledger"
	"github.com/lysyi3m/quickwatch/app/media"
)

// Coordinator downloads media and records the operator's movie id in the
// ledger. Each movie id is recorded at most once: Record checks the ledger
// before appending, and a backend that can also enforce uniqueness does.
// Two operators recording the same id at the same instant against a sheet
// ledger can still both pass the check.
type Coordinator struct {
	fetcher media.Fetcher
	ledger  ledger.Ledger
}

func NewCoordinator(fetcher media.Fetcher, ledger ledger.Ledger) *Coordinator {
	return &Coordinator{fetcher: fetcher, ledger: ledger}
}

// Result of DownloadAndRecord. LedgerError is set when the media was
// downloaded but the movie id could not be recorded.
type Result struct {
	File        *media.File `json:"file"`
	MovieID     string      `json:"movie_id"`
	Recorded    bool        `json:"recorded"`
	LedgerError error       `json:"-"`
}

// ValidateMovieID accepts non-empty ASCII digit strings only.
func ValidateMovieID(movieID string) error {
	if movieID == "" {
		return &domain.ValidationError{Field: "movie_id", Value: movieID, Reason: "required"}
	}
	for _, r := range movieID {
		if r < '0' || r > '9' {
			return &domain.ValidationError{Field: "movie_id", Value: movieID, Reason: "only numbers are allowed"}
		}
	}
	return nil
}

// Download fetches the media behind link. Repeated downloads of the same
// link overwrite the same file.
func (c *Coordinator) Download(ctx context.Context, link string) (*media.File, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, &domain.ValidationError{Field: "link", Value: link, Reason: "required"}
	}

	file, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, domain.Collaborator("media fetcher", "fetch", err)
	}
	return file, nil
}

// Record validates movieID and appends it to the ledger. An invalid id
// never reaches the ledger; an id already present is refused with
// domain.ErrAlreadyRecorded.
func (c *Coordinator) Record(ctx context.Context, movieID string) error {
	movieID = strings.TrimSpace(movieID)
	if err := ValidateMovieID(movieID); err != nil {
		return err
	}

	exists, err := c.ledger.Contains(ctx, movieID)
	if err != nil {
		return domain.Collaborator("ledger", "read", err)
	}
	if exists {
		return fmt.Errorf("movie id %s: %w", movieID, domain.ErrAlreadyRecorded)
	}

	if err := c.ledger.Append(ctx, movieID); err != nil {
		if errors.Is(err, domain.ErrAlreadyRecorded) {
			return err
		}
		return domain.Collaborator("ledger", "append", err)
	}

	return nil
}

// DownloadAndRecord is the operator's download action. The movie id is
// validated before anything else happens. A ledger failure after a
// successful download is reported in the result and does not undo the
// download.
func (c *Coordinator) DownloadAndRecord(ctx context.Context, link, movieID string) (*Result, error) {
	movieID = strings.TrimSpace(movieID)
	if err := ValidateMovieID(movieID); err != nil {
		return nil, err
	}

	file, err := c.Download(ctx, link)
	if err != nil {
		slog.Error("Download failed", "link", link, "movie_id", movieID, "error", err)
		return nil, err
	}

	result := &Result{File: file, MovieID: movieID}

	if err := c.Record(ctx, movieID); err != nil {
		result.LedgerError = err
		if errors.Is(err, domain.ErrAlreadyRecorded) {
			slog.Warn("Movie id already in ledger", "movie_id", movieID, "file", file.Name)
		} else {
			slog.Error("Failed to record movie id", "movie_id", movieID, "file", file.Name, "error", err)
		}
		return result, nil
	}

	result.Recorded = true
	return result, nil
}

package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lysyi3m/quickwatch/app/domain"
	"google.golang.org/api/googleapi"
)

var (
	ErrUnauthorized = errors.New("sheets: unauthorised (invalid credentials)")
	ErrForbidden    = errors.New("sheets: forbidden (spreadsheet not shared with the service account)")
	ErrRateLimited  = errors.New("sheets: rate limit exceeded")
)

func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return errors.Is(err, ErrRateLimited)
}

// wrapError maps Google API failures onto package errors and marks the
// result as a collaborator failure.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			err = fmt.Errorf("%w: %s", ErrUnauthorized, gerr.Message)
		case http.StatusForbidden:
			err = fmt.Errorf("%w: %s", ErrForbidden, gerr.Message)
		case http.StatusTooManyRequests:
			err = fmt.Errorf("%w: %s", ErrRateLimited, gerr.Message)
		}
	}

	return domain.Collaborator("sheets", op, err)
}

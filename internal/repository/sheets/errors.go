package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrUnauthorized indicates the credentials were rejected or lack access.
	ErrUnauthorized = errors.New("sheet store: unauthorized")
	// ErrNotFound indicates the spreadsheet or worksheet does not exist.
	ErrNotFound = errors.New("sheet store: not found")
	// ErrTransient indicates a network or server-side fault that may clear on its own.
	ErrTransient = errors.New("sheet store: transient failure")
)

// classify tags a Google API error with one of the package sentinels so
// callers can branch with errors.Is. Nothing is retried here.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case apiErr.Code == http.StatusBadRequest:
			// The API answers 400 "Unable to parse range" for a missing worksheet.
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		default:
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrTransient, err)
}

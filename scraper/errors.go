package scraper

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by Get and Post when the session is not open.
var ErrSessionClosed = errors.New("sisgap session is not open")

// AuthenticationError means the login sequence did not yield a usable session.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sisgap login failed: %s: %v", e.Reason, e.Err)
	}
	return "sisgap login failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ExtractionError means the page no longer has the expected shape.
type ExtractionError struct {
	What string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("extract %s: not found in page", e.What)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ScrapeError is a transport failure during a multi-request fetch.
type ScrapeError struct {
	Resource string
	Err      error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.Resource, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

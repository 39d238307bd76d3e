package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("operation not allowed in the current state")
	ErrNoSelfie          = errors.New("no selfie uploaded")
	ErrNoAnalysis        = errors.New("analysis has not completed")
	ErrInvalidPreference = errors.New("unknown cut preference")
	ErrEmptyAnalysis     = errors.New("analysis service returned an empty response")
	ErrMalformedAnalysis = errors.New("analysis service returned an unexpected response")
	ErrAnalysisFailed    = errors.New("face analysis failed, please try again")
	ErrNoImageProduced   = errors.New("no image was produced for this hairstyle")
)

// BlockedError reports a rendering request the image service refused on
// safety grounds, carrying the reason it gave.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return "request blocked by the image service"
	}
	return fmt.Sprintf("request blocked by the image service: %s", e.Reason)
}

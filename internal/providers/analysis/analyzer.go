// Package analysis turns a selfie into a structured face analysis with
// hairstyle suggestions, using an AI vision model.
package analysis

import (
	"context"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
)

// Every analyzer asks the model for this many distinct suggestions.
const suggestionCount = 3

// Analyzer produces a face analysis for a selfie. The locale only steers the
// language of the description strings; the structure is locale independent.
type Analyzer interface {
	Analyze(ctx context.Context, selfie imaging.EncodedImage, locale string) (*domain.FaceAnalysis, error)
}

// Package hairstyle turns a selfie plus one suggested style into a
// photorealistic preview of the person wearing that haircut.
package hairstyle

import (
	"context"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
)

// RenderRequest carries everything a provider needs for one preview.
type RenderRequest struct {
	Selfie             imaging.EncodedImage
	Hairstyle          string
	OriginalHairLength string
	Preference         domain.CutPreference
	Locale             string
}

// RenderResult is the edited photo plus a one-sentence caption for display.
type RenderResult struct {
	Image   imaging.EncodedImage
	Caption string
}

// Renderer produces a hairstyle preview from a selfie.
//
// Implementations return *domain.BlockedError when the image service refuses
// the request on content-safety grounds and domain.ErrNoImageProduced when a
// call succeeds without yielding a picture. Anything else is a transport or
// service failure and is passed through untouched.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}

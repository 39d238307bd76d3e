package domain

import (
	"strings"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
)

// GenerationOutcome tracks one hairstyle rendering within a generation run.
// While Pending is set nothing else is; once it clears the slot carries
// either an image with its caption or an error message, never both.
type GenerationOutcome struct {
	Hairstyle    string
	Pending      bool
	Image        *imaging.EncodedImage
	Caption      string
	ErrorMessage string
	// Blocked marks a failure the image service refused on safety grounds,
	// as opposed to one that went wrong.
	Blocked    bool
	StorageKey string
}

// Clone returns an independent copy of the outcome.
func (o GenerationOutcome) Clone() GenerationOutcome {
	copied := o
	if o.Image != nil {
		img := *o.Image
		copied.Image = &img
	}
	return copied
}

// Slug converts a hairstyle name into a URL and filename safe token.
func Slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

package hairstyle

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
)

// BuildDirective assembles the editing instruction for one preview. The cut
// severity is stated before the style name and explicitly overrides it, so a
// "buzz cut" suggestion under a light trim still only trims.
func BuildDirective(req RenderRequest) string {
	severity, ok := domain.SeverityDirectives[req.Preference]
	if !ok {
		severity = domain.SeverityDirectives[domain.CutMedium]
	}
	lines := []string{
		"Edit this photo to give the person a new haircut.",
		"How much to cut: " + severity,
		fmt.Sprintf("Style inspiration: %q.", req.Hairstyle),
	}
	if req.OriginalHairLength != "" {
		lines = append(lines, "Their current hair length is: "+req.OriginalHairLength+".")
	}
	lines = append(lines,
		"If the named style implies a different length than the cutting instruction, the cutting instruction wins; adapt the style to that length.",
		"Change nothing except the hair: keep the same face, skin tone, expression, clothing, background and lighting.",
		"The result must look like a real photograph of the same person, not an illustration.",
		captionRequest(req.Locale),
	)
	return strings.Join(lines, "\n")
}

func captionRequest(locale string) string {
	if locale == "id" {
		return "Alongside the image, reply with one short sentence in Indonesian describing the new look."
	}
	return "Alongside the image, reply with one short sentence describing the new look."
}

// DefaultCaption stands in when the service returns a picture without any
// text. Casers are stateful, so each call builds its own.
func DefaultCaption(hairstyle, locale string) string {
	if locale == "id" {
		name := cases.Title(language.Indonesian).String(hairstyle)
		return fmt.Sprintf("Tampilan baru dengan gaya %s.", name)
	}
	name := cases.Title(language.English).String(hairstyle)
	return fmt.Sprintf("Your new look with a %s.", name)
}

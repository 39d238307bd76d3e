package domain

import (
	"fmt"
	"strings"
)

// CutPreference enumerates how much hair a rendering may remove.
type CutPreference string

const (
	CutLightTrim CutPreference = "light_trim"
	CutMedium    CutPreference = "medium"
	CutShort     CutPreference = "short"
	CutVeryShort CutPreference = "very_short"
)

// Preferences lists every supported cut severity in display order.
var Preferences = []CutPreference{CutLightTrim, CutMedium, CutShort, CutVeryShort}

// SeverityDirectives spells out, per preference, exactly how much hair a
// rendering is allowed to remove. The wording is sent to the image service
// verbatim and overrides whatever length the inspiration style implies.
var SeverityDirectives = map[CutPreference]string{
	CutLightTrim: "Trim no more than two to three centimeters overall: tidy the ends and clean up the edges while keeping the current length and silhouette clearly recognizable.",
	CutMedium:    "Cut a noticeable but moderate amount: remove roughly a third of the current length so the shape changes visibly while plenty of length remains.",
	CutShort:     "Cut the hair short, to around ear level or above, removing most of the current length.",
	CutVeryShort: "Cut the hair very short: a close-cropped cut only a few centimeters long all around, removing nearly all of the current length.",
}

// ParseCutPreference validates a user supplied preference value.
func ParseCutPreference(raw string) (CutPreference, error) {
	pref := CutPreference(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := SeverityDirectives[pref]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPreference, raw)
	}
	return pref, nil
}

// Label returns a short human readable name for the preference.
func (p CutPreference) Label() string {
	switch p {
	case CutLightTrim:
		return "Light trim"
	case CutMedium:
		return "Medium cut"
	case CutShort:
		return "Short cut"
	case CutVeryShort:
		return "Very short cut"
	default:
		return string(p)
	}
}

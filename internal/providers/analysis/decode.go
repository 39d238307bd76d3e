package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
)

// modelAnalysisPayload mirrors the JSON contract every analyzer instructs
// its model to return.
type modelAnalysisPayload struct {
	FaceShape          string `json:"faceShape"`
	OriginalHairLength string `json:"originalHairLength"`
	Hairstyles         []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"hairstyles"`
}

// decodeAnalysis validates raw model output and converts it to the domain
// result. An empty reply and a structurally unusable reply are distinguished
// so callers can report them separately; everything here is structural, the
// face shape vocabulary itself is not policed.
func decodeAnalysis(raw string) (*domain.FaceAnalysis, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, domain.ErrEmptyAnalysis
	}

	fragment := extractJSONFragment(trimmed)
	if fragment == "" {
		return nil, domain.ErrEmptyAnalysis
	}

	var decoded modelAnalysisPayload
	if err := json.Unmarshal([]byte(fragment), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAnalysis, err)
	}
	if strings.TrimSpace(decoded.FaceShape) == "" {
		return nil, fmt.Errorf("%w: missing face shape", domain.ErrMalformedAnalysis)
	}
	if len(decoded.Hairstyles) == 0 {
		return nil, fmt.Errorf("%w: no hairstyle suggestions", domain.ErrMalformedAnalysis)
	}

	result := &domain.FaceAnalysis{
		FaceShape:          strings.TrimSpace(decoded.FaceShape),
		OriginalHairLength: strings.TrimSpace(decoded.OriginalHairLength),
	}
	seen := make(map[string]bool, len(decoded.Hairstyles))
	for _, style := range decoded.Hairstyles {
		name := strings.TrimSpace(style.Name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		result.Hairstyles = append(result.Hairstyles, domain.HairstyleSuggestion{
			Name:        name,
			Description: strings.TrimSpace(style.Description),
		})
	}
	if len(result.Hairstyles) == 0 {
		return nil, fmt.Errorf("%w: no usable hairstyle suggestions", domain.ErrMalformedAnalysis)
	}
	return result, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

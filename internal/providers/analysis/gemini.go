package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/genai"
)

// GeminiAnalyzer asks a Gemini vision model to classify the face in a selfie
// and suggest hairstyles, constrained to a fixed JSON schema.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func NewGeminiAnalyzer(client *genai.Client, model string, logger zerolog.Logger) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "analysis_gemini").Logger(),
	}
}

var analysisSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"faceShape": {
			Type:        "STRING",
			Description: "Overall face shape, for example oval, round, square, heart or long.",
		},
		"originalHairLength": {
			Type:        "STRING",
			Description: "Current hair length visible in the photo.",
		},
		"hairstyles": {
			Type: "ARRAY",
			Items: &genai.Schema{
				Type: "OBJECT",
				Properties: map[string]*genai.Schema{
					"name":        {Type: "STRING"},
					"description": {Type: "STRING"},
				},
				Required: []string{"name", "description"},
			},
		},
	},
	Required: []string{"faceShape", "originalHairLength", "hairstyles"},
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, selfie imaging.EncodedImage, locale string) (*domain.FaceAnalysis, error) {
	temperature := 0.4
	request := genai.GenerateContentRequest{
		Contents: []genai.Content{{
			Role: "user",
			Parts: []genai.Part{
				{InlineData: &genai.InlineData{MIMEType: selfie.MIME, Data: selfie.Payload}},
				{Text: analysisInstruction(locale)},
			},
		}},
		GenerationConfig: &genai.GenerationConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
			ResponseSchema:   analysisSchema,
		},
	}

	response, err := a.client.GenerateContent(ctx, a.model, request)
	if err != nil {
		a.logger.Error().Err(err).Str("model", a.model).Msg("analysis call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}

	result, err := decodeAnalysis(response.Text())
	if err != nil {
		a.logger.Warn().Err(err).Str("model", a.model).Msg("analysis response unusable")
		return nil, err
	}
	a.logger.Debug().
		Str("face_shape", result.FaceShape).
		Int("suggestions", len(result.Hairstyles)).
		Msg("analysis complete")
	return result, nil
}

func analysisInstruction(locale string) string {
	lines := []string{
		"You are a professional hairstylist. Study the person in this photo.",
		"Classify their face shape and estimate their current hair length.",
		fmt.Sprintf("Then suggest exactly %d distinct hairstyles that would flatter this face shape.", suggestionCount),
		"For each hairstyle give its common name and one sentence explaining why it suits this person.",
	}
	if locale == "id" {
		lines = append(lines, "Write originalHairLength and every description in Indonesian.")
	}
	return strings.Join(lines, "\n")
}

package hairstyle

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/genai"
)

// safetyFinishReasons are candidate finish reasons that mean the service
// refused to draw, as opposed to the call failing.
var safetyFinishReasons = map[string]bool{
	"SAFETY":             true,
	"IMAGE_SAFETY":       true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
}

// GeminiRenderer edits the selfie through a Gemini image model.
type GeminiRenderer struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func NewGeminiRenderer(client *genai.Client, model string, logger zerolog.Logger) *GeminiRenderer {
	return &GeminiRenderer{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "render_gemini").Logger(),
	}
}

func (r *GeminiRenderer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	request := genai.GenerateContentRequest{
		Contents: []genai.Content{{
			Role: "user",
			Parts: []genai.Part{
				{InlineData: &genai.InlineData{MIMEType: req.Selfie.MIME, Data: req.Selfie.Payload}},
				{Text: BuildDirective(req)},
			},
		}},
		GenerationConfig: &genai.GenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	response, err := r.client.GenerateContent(ctx, r.model, request)
	if err != nil {
		return nil, err
	}
	if reason := response.BlockReason(); reason != "" {
		r.logger.Warn().Str("reason", reason).Str("hairstyle", req.Hairstyle).Msg("render rejected before generation")
		return nil, &domain.BlockedError{Reason: reason}
	}

	var (
		image   imaging.EncodedImage
		caption string
	)
	for _, candidate := range response.Candidates {
		if safetyFinishReasons[candidate.FinishReason] {
			r.logger.Warn().Str("reason", candidate.FinishReason).Str("hairstyle", req.Hairstyle).Msg("render blocked")
			return nil, &domain.BlockedError{Reason: candidate.FinishReason}
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && image.IsZero() {
				image = imaging.FromBase64(part.InlineData.Data, part.InlineData.MIMEType)
			}
			if caption == "" {
				caption = strings.TrimSpace(part.Text)
			}
		}
	}
	if image.IsZero() {
		return nil, domain.ErrNoImageProduced
	}
	if caption == "" {
		caption = DefaultCaption(req.Hairstyle, req.Locale)
	}
	r.logger.Debug().
		Str("hairstyle", req.Hairstyle).
		Str("preference", string(req.Preference)).
		Str("mime", image.MIME).
		Msg("render complete")
	return &RenderResult{Image: image, Caption: caption}, nil
}

var _ Renderer = (*GeminiRenderer)(nil)

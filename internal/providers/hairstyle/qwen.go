package hairstyle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/qwen"
)

// blockedCodes are DashScope error codes that mean the content filter refused
// the request rather than the call failing.
var blockedCodes = map[string]bool{
	"DataInspectionFailed": true,
}

// QwenRenderer edits the selfie through DashScope's multimodal generation
// endpoint.
type QwenRenderer struct {
	client *qwen.Client
	logger zerolog.Logger
}

func NewQwenRenderer(client *qwen.Client, logger zerolog.Logger) *QwenRenderer {
	return &QwenRenderer{
		client: client,
		logger: logger.With().Str("component", "render_qwen").Logger(),
	}
}

func (r *QwenRenderer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	result, err := r.client.EditImage(ctx, qwen.EditRequest{
		ImageDataURL: req.Selfie.DataURL(),
		Instruction:  BuildDirective(req),
	})
	if err != nil {
		var apiErr *qwen.APIError
		if errors.As(err, &apiErr) && blockedCodes[apiErr.Code] {
			r.logger.Warn().Str("code", apiErr.Code).Str("hairstyle", req.Hairstyle).Msg("render blocked")
			return nil, &domain.BlockedError{Reason: apiErr.Code}
		}
		if errors.Is(err, qwen.ErrNoImage) {
			return nil, domain.ErrNoImageProduced
		}
		return nil, err
	}

	image, err := imaging.Encode(result.Data, result.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("image service returned unusable %s data: %w", result.MIMEType, err)
	}
	caption := strings.TrimSpace(result.Caption)
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

var _ Renderer = (*QwenRenderer)(nil)

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o-mini"
	openAIDefaultTimeout = 60 * time.Second
)

// OpenAIOptions configures the OpenAI analyzer.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// OpenAIAnalyzer runs the face analysis through the chat completions API
// with vision input. The model cannot be schema-constrained the way Gemini
// can, so the JSON contract is spelled out in the prompt and enforced by the
// shared decoder.
type OpenAIAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewOpenAIAnalyzer(opts OpenAIOptions) (*OpenAIAnalyzer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openAIDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIAnalyzer{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
		logger:  opts.Logger.With().Str("component", "analysis_openai").Logger(),
	}, nil
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (o *OpenAIAnalyzer) Analyze(ctx context.Context, selfie imaging.EncodedImage, locale string) (*domain.FaceAnalysis, error) {
	payload := openAIChatRequest{
		Model:          o.model,
		Temperature:    0.4,
		ResponseFormat: &openAIFormat{Type: "json_object"},
		Messages: []openAIMessage{{
			Role: "user",
			Content: []openAIContentPart{
				{Type: "text", Text: openAIAnalysisInstruction(locale)},
				{Type: "image_url", ImageURL: &openAIImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", selfie.MIME, selfie.Payload),
				}},
			},
		}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		o.logger.Error().Err(err).Str("model", o.model).Msg("analysis call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr openAIErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: openai status %d: %s", domain.ErrAnalysisFailed, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: openai status %d", domain.ErrAnalysisFailed, resp.StatusCode)
	}

	var out openAIChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	if len(out.Choices) == 0 {
		return nil, domain.ErrEmptyAnalysis
	}
	return decodeAnalysis(out.Choices[0].Message.Content)
}

func openAIAnalysisInstruction(locale string) string {
	lines := []string{
		"You are a professional hairstylist. Study the person in this photo.",
		"Classify their face shape and estimate their current hair length.",
		fmt.Sprintf("Then suggest exactly %d distinct hairstyles that would flatter this face shape.", suggestionCount),
		`Respond with a single JSON object shaped as {"faceShape":string,"originalHairLength":string,"hairstyles":[{"name":string,"description":string}]}.`,
		"Each description is one sentence explaining why the style suits this person.",
	}
	if locale == "id" {
		lines = append(lines, "Write originalHairLength and every description in Indonesian.")
	}
	return strings.Join(lines, "\n")
}

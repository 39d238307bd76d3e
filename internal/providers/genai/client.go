// Package genai is a thin REST client for the Gemini generateContent API.
// The wire types are declared here directly so callers can request features
// the SDKs lag behind on, such as image response modalities and structured
// output schemas.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Generated images arrive inline, so responses can be large.
const maxResponseBytes = 32 << 20

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client invokes Gemini models over REST. It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a Gemini client. Callers may provide a nil HTTP
// client; a reusable one with a generous timeout is created, since image
// generation calls routinely run for tens of seconds.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Content is one conversational turn sent to or returned by the model.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part carries either text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData is a base64 payload embedded directly in a request or response.
type InlineData struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// Schema constrains structured JSON output. It mirrors the OpenAPI subset
// the API accepts; Type values are the API's upper-case names.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// GenerationConfig tunes a generateContent call.
type GenerationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	CandidateCount     int      `json:"candidateCount,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseSchema     *Schema  `json:"responseSchema,omitempty"`
}

// GenerateContentRequest is the generateContent request body.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one model answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback reports why a prompt was rejected before any generation ran.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the generateContent response body.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Text returns the first non-empty text part across all candidates, trimmed.
func (r *GenerateContentResponse) Text() string {
	if r == nil {
		return ""
	}
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// BlockReason returns the prompt-feedback block reason, if the service set one.
func (r *GenerateContentResponse) BlockReason() string {
	if r == nil || r.PromptFeedback == nil {
		return ""
	}
	if r.PromptFeedback.BlockReason == "BLOCK_REASON_UNSPECIFIED" {
		return ""
	}
	return r.PromptFeedback.BlockReason
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// GenerateContent calls models/<model>:generateContent and decodes the reply.
func (c *Client) GenerateContent(ctx context.Context, model string, payload GenerateContentRequest) (*GenerateContentResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("genai: model is required")
	}

	var response GenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
	if err := c.invoke(ctx, model, path, payload, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) invoke(ctx context.Context, model, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read gemini response: %w", err)
	}

	c.logger.Debug().
		Str("model", model).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Int("bytes", len(data)).
		Msg("genai: generateContent finished")

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, trimmed)
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

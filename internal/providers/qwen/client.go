// Package qwen is a DashScope client for the qwen image-edit models.
package qwen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("qwen: api key is required")

// ErrNoImage indicates a successful call whose response carried no image.
var ErrNoImage = errors.New("qwen: response contained no image")

// APIError is a DashScope error payload. The Code field carries values such
// as DataInspectionFailed when the input or output tripped content checks.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qwen: %s (%s)", e.Message, e.Code)
}

// Options configures the DashScope client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the DashScope multimodal generation API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// EditRequest captures the inputs for one image edit.
type EditRequest struct {
	// ImageDataURL is the source photo as a data: URL.
	ImageDataURL string
	Instruction  string
}

// EditResult is the normalized result of an edit call.
type EditResult struct {
	Data     []byte
	MIMEType string
	Caption  string
}

type generationRequest struct {
	Model      string           `json:"model"`
	Input      generationInput  `json:"input"`
	Parameters generationParams `json:"parameters"`
}

type generationInput struct {
	Messages []generationMessage `json:"messages"`
}

type generationMessage struct {
	Role    string              `json:"role"`
	Content []generationContent `json:"content"`
}

type generationContent struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

type generationParams struct {
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Watermark      *bool  `json:"watermark,omitempty"`
}

type generationResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content []generationContent `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://dashscope-intl.aliyuncs.com/api/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "qwen-image-edit"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// EditImage submits the source photo with an editing instruction and returns
// the edited image bytes. Result URLs the service hands back are downloaded
// before returning.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (*EditResult, error) {
	if strings.TrimSpace(req.ImageDataURL) == "" {
		return nil, errors.New("qwen: source image is required")
	}
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		return nil, errors.New("qwen: instruction is required")
	}

	watermark := false
	payload := generationRequest{
		Model: c.model,
		Input: generationInput{
			Messages: []generationMessage{{
				Role: "user",
				Content: []generationContent{
					{Image: req.ImageDataURL},
					{Text: instruction},
				},
			}},
		},
		Parameters: generationParams{Watermark: &watermark},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("qwen: encode request: %w", err)
	}
	endpoint := c.baseURL + "/services/aigc/multimodal-generation/generation"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("qwen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("qwen: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("qwen: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Code != "" {
			return nil, &APIError{Code: detail.Code, Message: detail.Message}
		}
		return nil, fmt.Errorf("qwen: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("qwen: decode response: %w", err)
	}
	if decoded.Code != "" {
		return nil, &APIError{Code: decoded.Code, Message: decoded.Message}
	}

	imageRef, caption := firstImageAndText(decoded)
	if imageRef == "" {
		return nil, ErrNoImage
	}

	result := &EditResult{Caption: caption}
	if strings.HasPrefix(imageRef, "data:") {
		data, mime, err := decodeDataURL(imageRef)
		if err != nil {
			return nil, err
		}
		result.Data, result.MIMEType = data, mime
	} else {
		data, mime, err := c.download(ctx, imageRef)
		if err != nil {
			return nil, err
		}
		result.Data, result.MIMEType = data, mime
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("request_id", decoded.RequestID).
		Int("bytes", len(result.Data)).
		Msg("qwen: edited image")
	return result, nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("qwen: invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("qwen: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: read image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}

func decodeDataURL(ref string) ([]byte, string, error) {
	rest := strings.TrimPrefix(ref, "data:")
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("qwen: invalid data url")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: decode data url: %w", err)
	}
	return data, mime, nil
}

func firstImageAndText(resp generationResponse) (string, string) {
	var imageRef, caption string
	for _, choice := range resp.Output.Choices {
		for _, content := range choice.Message.Content {
			if imageRef == "" && strings.TrimSpace(content.Image) != "" {
				imageRef = strings.TrimSpace(content.Image)
			}
			if caption == "" && strings.TrimSpace(content.Text) != "" {
				caption = strings.TrimSpace(content.Text)
			}
		}
	}
	return imageRef, caption
}

package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		cloned := make([]string, len(values))
		copy(cloned, values)
		header[k] = cloned
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	lastAuth  string
}

func newCaptureTransport() *captureTransport {
	return &captureTransport{responses: map[string]responseStub{}}
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		c.lastAuth = req.Header.Get("Authorization")
		if stub, ok := c.responses[req.URL.Path]; ok {
			return stub.toResponse(), nil
		}
	}
	if req.Method == http.MethodGet {
		if stub, ok := c.responses[req.URL.String()]; ok {
			return stub.toResponse(), nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, status int, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{
		status: status,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (c *captureTransport) setBinaryResponse(url, mime string, data []byte) {
	c.responses[url] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{mime}},
		body:   data,
	}
}

const generationPath = "/api/v1/services/aigc/multimodal-generation/generation"

func newTestClient(t *testing.T, transport *captureTransport) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test",
		BaseURL:    "https://dashscope-intl.aliyuncs.com/api/v1",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestEditImagePayloadAndDownload(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse(generationPath, http.StatusOK, map[string]any{
		"output": map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": []any{
							map[string]any{"image": "https://example.com/generated/out.png"},
							map[string]any{"text": "A fresh short cut."},
						},
					},
				},
			},
		},
		"request_id": "req-123",
	})
	edited := []byte{0x89, 'P', 'N', 'G'}
	transport.setBinaryResponse("https://example.com/generated/out.png", "image/png", edited)

	client := newTestClient(t, transport)
	result, err := client.EditImage(context.Background(), EditRequest{
		ImageDataURL: "data:image/jpeg;base64,c2VsZmll",
		Instruction:  "give them a bob cut",
	})
	if err != nil {
		t.Fatalf("EditImage returned error: %v", err)
	}
	if !bytes.Equal(result.Data, edited) {
		t.Fatalf("downloaded bytes mismatch")
	}
	if result.MIMEType != "image/png" {
		t.Fatalf("mime = %q, want image/png", result.MIMEType)
	}
	if result.Caption != "A fresh short cut." {
		t.Fatalf("caption = %q", result.Caption)
	}

	if transport.lastAuth != "Bearer test" {
		t.Fatalf("auth header = %q", transport.lastAuth)
	}
	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	content := payload["input"].(map[string]any)["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content len = %d, want 2", len(content))
	}
	if image := content[0].(map[string]any)["image"]; image != "data:image/jpeg;base64,c2VsZmll" {
		t.Fatalf("image content = %v", image)
	}
	if text := content[1].(map[string]any)["text"]; text != "give them a bob cut" {
		t.Fatalf("text content = %v", text)
	}
	params := payload["parameters"].(map[string]any)
	if watermark, ok := params["watermark"].(bool); !ok || watermark {
		t.Fatalf("watermark should be explicitly false, got %v", params["watermark"])
	}
}

func TestEditImageInlineDataURLResult(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse(generationPath, http.StatusOK, map[string]any{
		"output": map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": []any{
							map[string]any{"image": "data:image/png;base64,aW1n"},
						},
					},
				},
			},
		},
	})

	client := newTestClient(t, transport)
	result, err := client.EditImage(context.Background(), EditRequest{
		ImageDataURL: "data:image/jpeg;base64,c2VsZmll",
		Instruction:  "trim the ends",
	})
	if err != nil {
		t.Fatalf("EditImage returned error: %v", err)
	}
	if string(result.Data) != "img" {
		t.Fatalf("decoded data = %q", result.Data)
	}
	if result.MIMEType != "image/png" {
		t.Fatalf("mime = %q", result.MIMEType)
	}
}

func TestEditImageSurfacesAPIError(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse(generationPath, http.StatusBadRequest, map[string]any{
		"code":       "DataInspectionFailed",
		"message":    "Output data may contain inappropriate content.",
		"request_id": "req-456",
	})

	client := newTestClient(t, transport)
	_, err := client.EditImage(context.Background(), EditRequest{
		ImageDataURL: "data:image/jpeg;base64,c2VsZmll",
		Instruction:  "x",
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "DataInspectionFailed" {
		t.Fatalf("code = %q", apiErr.Code)
	}
}

func TestEditImageNoImageInResponse(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse(generationPath, http.StatusOK, map[string]any{
		"output": map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": []any{
							map[string]any{"text": "cannot edit this photo"},
						},
					},
				},
			},
		},
	})

	client := newTestClient(t, transport)
	_, err := client.EditImage(context.Background(), EditRequest{
		ImageDataURL: "data:image/jpeg;base64,c2VsZmll",
		Instruction:  "x",
	})
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

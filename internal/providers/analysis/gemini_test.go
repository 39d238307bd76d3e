package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/genai"
)

func testSelfie() imaging.EncodedImage {
	return imaging.FromBase64("c2VsZmllLWJ5dGVz", "image/jpeg")
}

func geminiTextResponse(text string) genai.GenerateContentResponse {
	return genai.GenerateContentResponse{
		Candidates: []genai.Candidate{{Content: genai.Content{Parts: []genai.Part{{Text: text}}}}},
	}
}

func newGeminiAnalyzer(t *testing.T, handler http.HandlerFunc) (*GeminiAnalyzer, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	client, err := genai.NewClient(genai.Options{APIKey: "k", BaseURL: server.URL, Logger: zerolog.Nop()})
	if err != nil {
		server.Close()
		t.Fatalf("NewClient returned error: %v", err)
	}
	return NewGeminiAnalyzer(client, "gemini-2.5-flash", zerolog.Nop()), server
}

func TestGeminiAnalyzerRequestShape(t *testing.T) {
	analysisJSON := `{"faceShape":"oval","originalHairLength":"short","hairstyles":[{"name":"Crop","description":"Sharp and tidy."}]}`
	var body map[string]any
	analyzer, server := newGeminiAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(geminiTextResponse(analysisJSON))
	})
	defer server.Close()

	result, err := analyzer.Analyze(context.Background(), testSelfie(), "id")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.FaceShape != "oval" || len(result.Hairstyles) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	config := body["generationConfig"].(map[string]any)
	if config["responseMimeType"] != "application/json" {
		t.Fatalf("expected json response mime type, got %v", config["responseMimeType"])
	}
	schema, ok := config["responseSchema"].(map[string]any)
	if !ok {
		t.Fatal("responseSchema missing from request")
	}
	props := schema["properties"].(map[string]any)
	for _, field := range []string{"faceShape", "originalHairLength", "hairstyles"} {
		if _, ok := props[field]; !ok {
			t.Fatalf("schema missing field %q", field)
		}
	}

	parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected image and text parts, got %d", len(parts))
	}
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/jpeg" || inline["data"] != "c2VsZmllLWJ5dGVz" {
		t.Fatalf("selfie not forwarded inline: %v", inline)
	}
	instruction := parts[1].(map[string]any)["text"].(string)
	if !strings.Contains(instruction, "exactly 3 distinct hairstyles") {
		t.Fatalf("instruction does not pin the suggestion count: %q", instruction)
	}
	if !strings.Contains(instruction, "Indonesian") {
		t.Fatalf("instruction ignores the id locale: %q", instruction)
	}
}

func TestGeminiAnalyzerErrorContract(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(geminiTextResponse("   "))
			},
			wantErr: domain.ErrEmptyAnalysis,
		},
		{
			name: "literal null",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(geminiTextResponse("null"))
			},
			wantErr: domain.ErrEmptyAnalysis,
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(genai.GenerateContentResponse{})
			},
			wantErr: domain.ErrEmptyAnalysis,
		},
		{
			name: "missing face shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(geminiTextResponse(`{"hairstyles":[{"name":"Crop","description":"x"}]}`))
			},
			wantErr: domain.ErrMalformedAnalysis,
		},
		{
			name: "service failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend overloaded"}}`))
			},
			wantErr: domain.ErrAnalysisFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analyzer, server := newGeminiAnalyzer(t, tc.handler)
			defer server.Close()
			_, err := analyzer.Analyze(context.Background(), testSelfie(), "en")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGeminiAnalyzerAcceptsFencedPayload(t *testing.T) {
	fenced := "```json\n{\"faceShape\":\"heart\",\"originalHairLength\":\"long\",\"hairstyles\":[{\"name\":\"Curtain Bangs\",\"description\":\"Softens the forehead.\"}]}\n```"
	analyzer, server := newGeminiAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiTextResponse(fenced))
	})
	defer server.Close()

	result, err := analyzer.Analyze(context.Background(), testSelfie(), "en")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.FaceShape != "heart" || result.Hairstyles[0].Name != "Curtain Bangs" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// Command tryon runs the whole try-on flow against a selfie on disk: face
// analysis, three hairstyle renders at the chosen cut severity, and the
// results written to an output directory. It talks to the same providers as
// the API and reads the same environment.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/infra"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/analysis"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/genai"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/hairstyle"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/qwen"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/studio"
)

func main() {
	var (
		selfieFlag     string
		preferenceFlag string
		localeFlag     string
		outFlag        string
		timeoutFlag    time.Duration
	)
	flag.StringVar(&selfieFlag, "selfie", "", "path to the selfie (jpeg, png, webp or gif)")
	flag.StringVar(&preferenceFlag, "preference", "medium", "cut severity (light_trim, medium, short, very_short)")
	flag.StringVar(&localeFlag, "locale", "en", "caption language, e.g. en or id")
	flag.StringVar(&outFlag, "out", "tryon-out", "directory the renders and captions are written to")
	flag.DurationVar(&timeoutFlag, "timeout", 5*time.Minute, "overall time limit for analysis plus rendering")
	flag.Parse()

	selfiePath := strings.TrimSpace(selfieFlag)
	if selfiePath == "" {
		exitWithError(errors.New("-selfie is required"))
	}
	pref, err := domain.ParseCutPreference(strings.TrimSpace(preferenceFlag))
	if err != nil {
		exitWithError(err)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "tryon").Logger()

	data, err := os.ReadFile(selfiePath)
	if err != nil {
		exitWithError(fmt.Errorf("read selfie: %w", err))
	}
	selfie, err := imaging.Encode(data, "")
	if err != nil {
		exitWithError(err)
	}

	genaiClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  logger,
	})
	if err != nil {
		exitWithError(err)
	}
	analyzer, err := newAnalyzer(cfg, genaiClient, logger)
	if err != nil {
		exitWithError(err)
	}
	renderer, err := newRenderer(cfg, genaiClient, logger)
	if err != nil {
		exitWithError(err)
	}

	manager := studio.NewManager(studio.Options{
		Analyzer: analyzer,
		Renderer: renderer,
		Logger:   logger,
	})
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	sess := manager.Create()
	sess.AttachSelfie(selfie, strings.TrimSpace(localeFlag))

	snap, err := sess.Analyze(ctx)
	if err != nil {
		exitWithError(fmt.Errorf("analyze selfie: %w", err))
	}
	fmt.Printf("face shape: %s\n", snap.Analysis.FaceShape)
	if snap.Analysis.OriginalHairLength != "" {
		fmt.Printf("hair length: %s\n", snap.Analysis.OriginalHairLength)
	}
	fmt.Printf("suggested styles (%s):\n", pref.Label())
	for _, style := range snap.Analysis.Hairstyles {
		fmt.Printf("  - %s\n", style.Name)
	}

	if _, err := sess.Generate(pref); err != nil {
		exitWithError(fmt.Errorf("start generation: %w", err))
	}
	if err := sess.WaitSettled(ctx); err != nil {
		exitWithError(fmt.Errorf("wait for renders: %w", err))
	}

	if err := os.MkdirAll(outFlag, 0o755); err != nil {
		exitWithError(fmt.Errorf("create output directory: %w", err))
	}

	report, err := json.MarshalIndent(snap.Analysis, "", "  ")
	if err == nil {
		_ = os.WriteFile(filepath.Join(outFlag, "analysis.json"), report, 0o644)
	}

	snap = sess.Snapshot()
	written := 0
	for _, outcome := range snap.Outcomes {
		switch {
		case outcome.Blocked:
			fmt.Printf("%s: blocked by the image service: %s\n", outcome.Hairstyle, outcome.ErrorMessage)
			continue
		case outcome.Image == nil:
			fmt.Printf("%s: failed: %s\n", outcome.Hairstyle, outcome.ErrorMessage)
			continue
		}

		raw, err := outcome.Image.Decode()
		if err != nil {
			fmt.Printf("%s: corrupt image payload: %v\n", outcome.Hairstyle, err)
			continue
		}
		name := domain.Slug(outcome.Hairstyle) + outcome.Image.Ext()
		if err := os.WriteFile(filepath.Join(outFlag, name), raw, 0o644); err != nil {
			exitWithError(fmt.Errorf("write %s: %w", name, err))
		}
		if outcome.Caption != "" {
			captionName := domain.Slug(outcome.Hairstyle) + ".txt"
			_ = os.WriteFile(filepath.Join(outFlag, captionName), []byte(outcome.Caption+"\n"), 0o644)
		}
		fmt.Printf("%s -> %s\n", outcome.Hairstyle, filepath.Join(outFlag, name))
		written++
	}

	if written == 0 {
		exitWithError(errors.New("no renders succeeded"))
	}
	fmt.Printf("%d of %d renders written to %s\n", written, len(snap.Outcomes), outFlag)
}

func newAnalyzer(cfg *infra.Config, genaiClient *genai.Client, logger zerolog.Logger) (analysis.Analyzer, error) {
	if cfg.AnalysisProvider == "openai" {
		return analysis.NewOpenAIAnalyzer(analysis.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  logger,
		})
	}
	return analysis.NewGeminiAnalyzer(genaiClient, cfg.GeminiAnalysisModel, logger), nil
}

func newRenderer(cfg *infra.Config, genaiClient *genai.Client, logger zerolog.Logger) (hairstyle.Renderer, error) {
	if cfg.ImageProvider == "qwen" {
		client, err := qwen.NewClient(qwen.Options{
			APIKey:         cfg.QwenAPIKey,
			BaseURL:        cfg.QwenBaseURL,
			Model:          cfg.QwenImageModel,
			Logger:         logger,
			RequestTimeout: cfg.GenAITimeout,
		})
		if err != nil {
			return nil, err
		}
		return hairstyle.NewQwenRenderer(client, logger), nil
	}
	return hairstyle.NewGeminiRenderer(genaiClient, cfg.GeminiImageModel, logger), nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

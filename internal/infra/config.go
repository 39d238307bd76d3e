package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, loaded from environment variables.
// Everything under "optional backends" degrades gracefully when unset: no
// database means no history routes, no redis means no analysis cache, no
// storage path means images live only in memory.
type Config struct {
	AppEnv string
	Port   string

	AnalysisProvider string
	ImageProvider    string

	GeminiAPIKey        string
	GeminiBaseURL       string
	GeminiAnalysisModel string
	GeminiImageModel    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	QwenAPIKey     string
	QwenBaseURL    string
	QwenImageModel string

	// optional backends
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	AnalysisCacheTTL time.Duration
	StoragePath      string
	GeoIPDBPath      string

	SessionTTL         time.Duration
	GenAITimeout       time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig reads the environment, applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		AnalysisProvider:    getEnv("ANALYSIS_PROVIDER", "gemini"),
		ImageProvider:       getEnv("IMAGE_PROVIDER", "gemini"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiAnalysisModel: getEnv("GEMINI_ANALYSIS_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:    getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		QwenAPIKey:          os.Getenv("QWEN_API_KEY"),
		QwenBaseURL:         getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
		QwenImageModel:      getEnv("QWEN_IMAGE_MODEL", "qwen-image-edit"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		AnalysisCacheTTL:    time.Minute * time.Duration(getEnvInt("ANALYSIS_CACHE_TTL_MINUTES", 24*60)),
		StoragePath:         os.Getenv("STORAGE_PATH"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		SessionTTL:          time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)),
		GenAITimeout:        time.Second * time.Duration(getEnvInt("GENAI_TIMEOUT_SECONDS", 90)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the provider selection and its credentials. The Gemini key
// is always required: it is the default provider for both analysis and
// rendering.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	switch c.AnalysisProvider {
	case "gemini":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when ANALYSIS_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown ANALYSIS_PROVIDER %q (want gemini or openai)", c.AnalysisProvider)
	}

	switch c.ImageProvider {
	case "gemini":
	case "qwen":
		if c.QwenAPIKey == "" {
			return fmt.Errorf("QWEN_API_KEY is required when IMAGE_PROVIDER=qwen")
		}
	default:
		return fmt.Errorf("unknown IMAGE_PROVIDER %q (want gemini or qwen)", c.ImageProvider)
	}

	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/cache"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/imaging"
)

// CachedAnalyzer serves repeat analyses of the same photo from a cache. The
// cache is best effort: every cache failure is logged and the inner analyzer
// is consulted as if nothing were cached.
type CachedAnalyzer struct {
	inner  Analyzer
	store  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedAnalyzer(inner Analyzer, store cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "analysis_cache").Logger(),
	}
}

func (a *CachedAnalyzer) Analyze(ctx context.Context, selfie imaging.EncodedImage, locale string) (*domain.FaceAnalysis, error) {
	key := analysisCacheKey(selfie, locale)

	raw, err := a.store.Get(ctx, key)
	if err != nil {
		a.logger.Warn().Err(err).Msg("cache read failed")
	} else if raw != "" {
		var cached domain.FaceAnalysis
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && cached.FaceShape != "" && len(cached.Hairstyles) > 0 {
			a.logger.Debug().Str("key", key).Msg("analysis cache hit")
			return &cached, nil
		}
		a.logger.Warn().Str("key", key).Msg("discarding unusable cache entry")
	}

	result, err := a.inner.Analyze(ctx, selfie, locale)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := a.store.Set(ctx, key, string(encoded), a.ttl); err != nil {
			a.logger.Warn().Err(err).Msg("cache write failed")
		}
	}
	return result, nil
}

// analysisCacheKey hashes the photo payload so identical uploads share an
// entry without the key revealing anything about the photo.
func analysisCacheKey(selfie imaging.EncodedImage, locale string) string {
	sum := sha256.Sum256([]byte(selfie.Payload))
	return fmt.Sprintf("analysis:%s:%s", locale, hex.EncodeToString(sum[:]))
}

var (
	_ Analyzer = (*CachedAnalyzer)(nil)
	_ Analyzer = (*GeminiAnalyzer)(nil)
	_ Analyzer = (*OpenAIAnalyzer)(nil)
)

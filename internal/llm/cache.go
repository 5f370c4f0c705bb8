package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// VisionCacheStore persists analysis results keyed by an image-set hash.
// An empty payload means a cache miss.
type VisionCacheStore interface {
	GetVisionCache(hash string) (string, error)
	SetVisionCache(hash string, payload string) error
}

// CachedAnalyzer wraps an Analyzer with persistent result caching, so
// re-analyzing identical images with identical notes does not re-bill.
type CachedAnalyzer struct {
	inner Analyzer
	store VisionCacheStore
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store VisionCacheStore) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

// hashRequest creates a SHA256 hash from the image set and notes.
// Includes a length prefix for each image to prevent boundary collisions.
func hashRequest(images []Image, notes string) string {
	h := sha256.New()
	for _, img := range images {
		binary.Write(h, binary.LittleEndian, int64(len(img.Data)))
		h.Write(img.Data)
	}
	binary.Write(h, binary.LittleEndian, int64(len(notes)))
	h.Write([]byte(notes))
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeItem implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeItem(ctx context.Context, images []Image, notes string, existing ItemContext) (*AnalysisResult, error) {
	hash := hashRequest(images, notes)

	if c.store != nil {
		payload, err := c.store.GetVisionCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check vision cache")
		} else if payload != "" {
			var attrs AttributeSet
			if err := json.Unmarshal([]byte(payload), &attrs); err != nil {
				log.Warn().Err(err).Str("hash", hash[:16]).Msg("discarding corrupt vision cache entry")
			} else {
				log.Debug().Str("hash", hash[:16]).Msg("vision cache hit")
				return &AnalysisResult{Attributes: &attrs, Usage: Usage{}}, nil
			}
		}
	}

	result, err := c.inner.AnalyzeItem(ctx, images, notes, existing)
	if err != nil {
		return nil, err
	}

	// Unstructured salvage results are not cached; a retry may parse.
	if c.store != nil && result.Attributes != nil && !result.Attributes.Unstructured {
		payload, err := json.Marshal(result.Attributes)
		if err == nil {
			if err := c.store.SetVisionCache(hash, string(payload)); err != nil {
				log.Warn().Err(err).Msg("failed to cache vision result")
			} else {
				log.Debug().Str("hash", hash[:16]).Msg("cached vision result")
			}
		}
	}

	return result, nil
}

// GetGeminiAnalyzer extracts the underlying GeminiAnalyzer from an Analyzer,
// unwrapping CachedAnalyzer wrappers. Returns nil if there is none.
func GetGeminiAnalyzer(a Analyzer) *GeminiAnalyzer {
	curr := a
	for {
		switch t := curr.(type) {
		case *GeminiAnalyzer:
			return t
		case *CachedAnalyzer:
			curr = t.inner
		default:
			return nil
		}
	}
}

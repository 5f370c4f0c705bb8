package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/imaging"
	"github.com/arielmc/vintage-wizard-sub001/internal/llm"
	"github.com/rs/zerolog/log"
)

// MaxAnalysisImages caps how many images are sent to the model per item.
// Extra images are dropped from the tail; order is the item's image order.
const MaxAnalysisImages = 4

// Store is the slice of persistence the pipeline needs.
type Store interface {
	GetItem(id string) (*catalog.InventoryItem, error)
	UpdateItem(id string, patch catalog.ItemPatch) error
	GetArchiveImages(itemID string) ([]catalog.ArchiveImage, error)
	PutArchiveImage(img catalog.ArchiveImage) error
}

// Service runs the photo-to-attributes analysis pipeline.
type Service struct {
	store    Store
	analyzer llm.Analyzer
}

// NewService creates an analysis pipeline service.
func NewService(store Store, analyzer llm.Analyzer) *Service {
	return &Service{store: store, analyzer: analyzer}
}

// AnalyzeItem resolves an item's images, invokes the model, merges the
// result into the stored record, and archives compressed image copies.
// Archiving happens only after the merged record is persisted, and its
// failure never fails the analysis.
func (s *Service) AnalyzeItem(ctx context.Context, itemID string) (*llm.AnalysisResult, error) {
	item, err := s.store.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	payloads, source, err := s.resolveImages(item)
	if err != nil {
		return nil, err
	}
	if len(payloads) > MaxAnalysisImages {
		payloads = payloads[:MaxAnalysisImages]
	}

	// Archive copies are stored pre-compressed; everything else gets
	// compressed now. Individual compression failures drop that image.
	if source != sourceArchive {
		payloads = compressPayloads(item.ID, payloads)
		if len(payloads) == 0 {
			return nil, ErrNotAnalyzable
		}
	}

	images := make([]llm.Image, len(payloads))
	for i, p := range payloads {
		images[i] = llm.Image{Data: p.Data, MIME: p.MIME}
	}

	log.Info().
		Str("item_id", item.ID).
		Int("images", len(images)).
		Str("source", source.String()).
		Msg("Analyzing item")

	result, err := s.analyzer.AnalyzeItem(ctx, images, item.Notes, llm.ContextFromItem(item))
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	patch := mergePatch(result.Attributes)
	now := time.Now()
	patch.LastAnalyzedAt = &now
	if err := s.store.UpdateItem(item.ID, patch); err != nil {
		return nil, fmt.Errorf("failed to persist analysis result: %w", err)
	}

	if source != sourceArchive {
		s.archiveImages(item.ID, payloads)
	}

	return result, nil
}

func compressPayloads(itemID string, payloads []Payload) []Payload {
	out := make([]Payload, 0, len(payloads))
	for i, p := range payloads {
		compressed, err := imaging.Compress(p.Data)
		if err != nil {
			log.Warn().Err(err).
				Str("item_id", itemID).
				Int("index", i).
				Msg("Skipping uncompressible image")
			continue
		}
		out = append(out, Payload{Data: compressed, MIME: "image/jpeg"})
	}
	return out
}

// mergePatch maps an attribute set onto a partial item update. A parse
// fallback result only carries raw text, which lands in the description so
// the model's work is never silently discarded.
func mergePatch(attrs *llm.AttributeSet) catalog.ItemPatch {
	if attrs.Unstructured {
		return catalog.ItemPatch{Description: &attrs.Description}
	}

	patch := catalog.ItemPatch{
		Title:               &attrs.Title,
		Category:            &attrs.Category,
		Maker:               &attrs.Maker,
		Style:               &attrs.Style,
		Era:                 &attrs.Era,
		Materials:           &attrs.Materials,
		Condition:           &attrs.Condition,
		Markings:            &attrs.Markings,
		Description:         &attrs.Description,
		ValuationLow:        &attrs.ValuationLow,
		ValuationHigh:       &attrs.ValuationHigh,
		Confidence:          &attrs.Confidence,
		ConfidenceRationale: &attrs.ConfidenceRationale,
	}
	if len(attrs.ClarificationQuestions) > 0 {
		patch.ClarificationQuestions = &attrs.ClarificationQuestions
	}
	return patch
}

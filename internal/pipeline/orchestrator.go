package pipeline

import (
	"context"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/rs/zerolog/log"
)

// ItemOutcome is the per-item result reported during a batch run.
type ItemOutcome struct {
	ItemID string
	// Err is nil for success. Skipped items are never reported here;
	// they are filtered out before the run starts.
	Err error
}

// BatchResult summarizes a batch analysis run.
type BatchResult struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// Total returns how many items the batch considered.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed + r.Skipped
}

// RunBatch analyzes the given items one at a time, in order. Items with no
// image references at all are skipped up front; everything else is
// attempted, and one item's failure never stops the rest. The progress
// callback, when non-nil, fires after each attempted item.
//
// Runs are strictly sequential: one model call in flight at a time keeps
// per-call cost logging readable and stays inside rate limits.
func (s *Service) RunBatch(ctx context.Context, itemIDs []string, progress func(ItemOutcome)) (BatchResult, error) {
	var result BatchResult

	eligible := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := s.store.GetItem(id)
		if err != nil || item == nil {
			// A missing or unreadable item is a failure the user should
			// see, not a silent skip.
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		if !hasImageRefs(item) {
			result.Skipped++
			continue
		}
		eligible = append(eligible, id)
	}

	log.Info().
		Int("requested", len(itemIDs)).
		Int("eligible", len(eligible)).
		Int("skipped", result.Skipped).
		Msg("Starting batch analysis")

	for _, id := range eligible {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := s.AnalyzeItem(ctx, id)
		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			log.Warn().Err(err).Str("item_id", id).Msg("Batch item failed")
		} else {
			result.Succeeded++
		}

		if progress != nil {
			progress(ItemOutcome{ItemID: id, Err: err})
		}
	}

	log.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("Batch analysis complete")

	return result, nil
}

// hasImageRefs reports whether the item has any image references at all,
// live or legacy. URL-only items pass this check and fail later during
// resolution, so the user sees them as failures rather than skips.
func hasImageRefs(item *catalog.InventoryItem) bool {
	return len(item.Images) > 0 || len(item.LegacyImageData) > 0
}

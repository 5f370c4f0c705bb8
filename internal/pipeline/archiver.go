package pipeline

import (
	"encoding/base64"
	"time"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/rs/zerolog/log"
)

// archiveImages stores compressed analysis copies so re-analysis never has
// to re-fetch or re-compress. Strictly best-effort: any failure here is
// logged and swallowed, because the analysis that produced these payloads
// has already succeeded and been persisted.
func (s *Service) archiveImages(itemID string, payloads []Payload) {
	for i, p := range payloads {
		img := catalog.ArchiveImage{
			ItemID:    itemID,
			Index:     i,
			Base64:    base64.StdEncoding.EncodeToString(p.Data),
			CreatedAt: time.Now(),
		}
		if err := s.store.PutArchiveImage(img); err != nil {
			log.Warn().Err(err).
				Str("item_id", itemID).
				Int("index", i).
				Msg("Failed to archive image copy")
			continue
		}
	}
}

package pipeline

import (
	"encoding/base64"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/rs/zerolog/log"
)

// Payload is one resolved image ready for analysis.
type Payload struct {
	Data []byte
	MIME string
}

// imageSource identifies where resolved payloads came from. Archive
// payloads are already compressed; the other sources produce raw bytes.
type imageSource int

const (
	sourceNone imageSource = iota
	sourceArchive
	sourceLegacy
	sourceLive
)

func (s imageSource) String() string {
	switch s {
	case sourceArchive:
		return "archive"
	case sourceLegacy:
		return "legacy"
	case sourceLive:
		return "live"
	}
	return "none"
}

// resolveImages produces analyzable image payloads for an item, trying
// sources in fixed priority order: the per-item archive of compressed
// copies first, then the legacy inline array, then self-contained live
// image references. The first source that yields at least one payload
// wins; sources are never mixed. Returns ErrNotAnalyzable when every
// source comes up empty.
func (s *Service) resolveImages(item *catalog.InventoryItem) ([]Payload, imageSource, error) {
	if payloads := s.archivedPayloads(item.ID); len(payloads) > 0 {
		return payloads, sourceArchive, nil
	}
	if payloads := legacyPayloads(item); len(payloads) > 0 {
		return payloads, sourceLegacy, nil
	}
	if payloads := livePayloads(item); len(payloads) > 0 {
		return payloads, sourceLive, nil
	}
	return nil, sourceNone, ErrNotAnalyzable
}

func (s *Service) archivedPayloads(itemID string) []Payload {
	archived, err := s.store.GetArchiveImages(itemID)
	if err != nil {
		// A broken archive read falls through to the other sources.
		log.Warn().Err(err).Str("item_id", itemID).Msg("Failed to read image archive")
		return nil
	}

	var payloads []Payload
	for _, img := range archived {
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil || len(data) == 0 {
			log.Warn().Str("item_id", itemID).Int("index", img.Index).Msg("Skipping undecodable archived image")
			continue
		}
		payloads = append(payloads, Payload{Data: data, MIME: "image/jpeg"})
	}
	return payloads
}

// The legacy and live sources are gated on their first entry: when it
// is not self-contained the whole source is ineligible and resolution
// moves on, even if a later entry would decode.
func legacyPayloads(item *catalog.InventoryItem) []Payload {
	var payloads []Payload
	for i, encoded := range item.LegacyImageData {
		data, mime, ok := catalog.DecodeDataURI(encoded)
		if !ok {
			if i == 0 {
				return nil
			}
			log.Warn().Str("item_id", item.ID).Int("index", i).Msg("Skipping undecodable legacy image")
			continue
		}
		payloads = append(payloads, Payload{Data: data, MIME: mime})
	}
	return payloads
}

func livePayloads(item *catalog.InventoryItem) []Payload {
	var payloads []Payload
	for i, ref := range item.Images {
		data, mime, ok := ref.Bytes()
		if !ok {
			if i == 0 {
				return nil
			}
			continue
		}
		payloads = append(payloads, Payload{Data: data, MIME: mime})
	}
	return payloads
}

package catalog

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// ImageKind identifies how an image reference is represented.
type ImageKind string

const (
	// ImageURL is a remote object-store URL. It may not be readable back
	// from the service context (cross-origin), so it is never used as
	// analysis input directly.
	ImageURL ImageKind = "url"
	// ImageDataURI is a self-contained base64 data URI.
	ImageDataURI ImageKind = "data"
	// ImageBlob is transient in-memory image bytes, not persisted.
	ImageBlob ImageKind = "blob"
	// ImageLocalRef points at a staged upload that still has its bytes
	// available locally.
	ImageLocalRef ImageKind = "local"
)

// ImageRef is one entry in an item's ordered image sequence.
// Index 0 is the hero image used as the cover thumbnail.
type ImageRef struct {
	Kind ImageKind `json:"kind"`
	URL  string    `json:"url,omitempty"`
	Data string    `json:"data,omitempty"`
	Blob []byte    `json:"-"`
	MIME string    `json:"mime,omitempty"`
}

// SelfContained reports whether the reference carries its own image bytes
// (either inline base64 or an in-memory blob), as opposed to a bare URL.
func (r ImageRef) SelfContained() bool {
	switch r.Kind {
	case ImageDataURI:
		return r.Data != ""
	case ImageBlob, ImageLocalRef:
		return len(r.Blob) > 0
	}
	return false
}

// Bytes returns the raw image bytes and MIME type for a self-contained
// reference. Returns ok=false for bare URLs and undecodable data.
func (r ImageRef) Bytes() (data []byte, mime string, ok bool) {
	switch r.Kind {
	case ImageDataURI:
		return DecodeDataURI(r.Data)
	case ImageBlob, ImageLocalRef:
		if len(r.Blob) == 0 {
			return nil, "", false
		}
		mime = r.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		return r.Blob, mime, true
	}
	return nil, "", false
}

// DecodeDataURI decodes a "data:<mime>;base64,<payload>" URI, or a bare
// base64 string (treated as image/jpeg).
func DecodeDataURI(s string) (data []byte, mime string, ok bool) {
	mime = "image/jpeg"
	if strings.HasPrefix(s, "data:") {
		rest := s[len("data:"):]
		comma := strings.Index(rest, ",")
		if comma == -1 {
			return nil, "", false
		}
		meta := rest[:comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", false
		}
		if m := strings.TrimSuffix(meta, ";base64"); m != "" {
			mime = m
		}
		s = rest[comma+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(decoded) == 0 {
		return nil, "", false
	}
	return decoded, mime, true
}

// EncodeDataURI encodes raw image bytes as a self-contained data URI.
func EncodeDataURI(data []byte, mime string) string {
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Valuation is the appraised value range for an item.
// Low <= High is expected but not enforced; Low == High == 0 means
// "no estimate yet" and suppresses price derivation downstream.
type Valuation struct {
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Confidence string  `json:"confidence,omitempty"`
	Rationale  string  `json:"rationale,omitempty"`
}

// InventoryItem is one physical object being catalogued.
type InventoryItem struct {
	ID string `json:"id"`

	// Images is user-reorderable; order is significant.
	Images []ImageRef `json:"images"`

	// LegacyImageData is the old inline array of encoded blobs stored
	// directly on the record before per-item image archives existed.
	LegacyImageData []string `json:"legacy_image_data,omitempty"`

	Title       string `json:"title"`
	Category    string `json:"category"`
	Maker       string `json:"maker"`
	Style       string `json:"style"`
	Era         string `json:"era"`
	Materials   string `json:"materials"`
	Condition   string `json:"condition"`
	Markings    string `json:"markings"`
	Description string `json:"description"`
	Notes       string `json:"notes"`

	Valuation Valuation `json:"valuation"`

	// Listing overrides supersede derived listing fields when present.
	// Absence (not empty string) is the signal to fall back to derivation.
	ListingTitle       Override[string]  `json:"listing_title"`
	ListingDescription Override[string]  `json:"listing_description"`
	ListingTags        Override[string]  `json:"listing_tags"`
	ListingPrice       Override[float64] `json:"listing_price"`

	Status Status `json:"status"`

	CreatedAt      time.Time  `json:"created_at"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`

	// ClarificationQuestions are open follow-up questions from analysis;
	// Answers maps question text to the user's free-text answer.
	ClarificationQuestions []string          `json:"clarification_questions,omitempty"`
	Answers                map[string]string `json:"answers,omitempty"`
}

// ArchiveImage is one entry in an item's per-item archive of previously
// compressed, analysis-ready image copies. Index drives reconstruction order.
type ArchiveImage struct {
	ItemID    string    `json:"item_id"`
	Index     int       `json:"index"`
	Base64    string    `json:"base64"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the archive record key ("img_<index>").
func (a ArchiveImage) Key() string {
	return "img_" + strconv.Itoa(a.Index)
}

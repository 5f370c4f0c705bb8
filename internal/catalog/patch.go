package catalog

import "time"

// ItemPatch is a partial field set for merge-style updates. Nil fields are
// left untouched. Override fields replace the whole override (setting an
// absent override through a patch clears the stored value back to absent).
type ItemPatch struct {
	Images          *[]ImageRef
	LegacyImageData *[]string

	Title       *string
	Category    *string
	Maker       *string
	Style       *string
	Era         *string
	Materials   *string
	Condition   *string
	Markings    *string
	Description *string
	Notes       *string

	ValuationLow        *float64
	ValuationHigh       *float64
	Confidence          *string
	ConfidenceRationale *string

	ListingTitle       *Override[string]
	ListingDescription *Override[string]
	ListingTags        *Override[string]
	ListingPrice       *Override[float64]

	Status *Status

	LastAnalyzedAt *time.Time

	ClarificationQuestions *[]string
	Answers                *map[string]string
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p == ItemPatch{}
}

// Apply merges the patch into item in place. The storage layer uses this to
// keep in-memory copies consistent with what it writes.
func (p ItemPatch) Apply(item *InventoryItem) {
	if p.Images != nil {
		item.Images = *p.Images
	}
	if p.LegacyImageData != nil {
		item.LegacyImageData = *p.LegacyImageData
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Maker != nil {
		item.Maker = *p.Maker
	}
	if p.Style != nil {
		item.Style = *p.Style
	}
	if p.Era != nil {
		item.Era = *p.Era
	}
	if p.Materials != nil {
		item.Materials = *p.Materials
	}
	if p.Condition != nil {
		item.Condition = *p.Condition
	}
	if p.Markings != nil {
		item.Markings = *p.Markings
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.ValuationLow != nil {
		item.Valuation.Low = *p.ValuationLow
	}
	if p.ValuationHigh != nil {
		item.Valuation.High = *p.ValuationHigh
	}
	if p.Confidence != nil {
		item.Valuation.Confidence = *p.Confidence
	}
	if p.ConfidenceRationale != nil {
		item.Valuation.Rationale = *p.ConfidenceRationale
	}
	if p.ListingTitle != nil {
		item.ListingTitle = *p.ListingTitle
	}
	if p.ListingDescription != nil {
		item.ListingDescription = *p.ListingDescription
	}
	if p.ListingTags != nil {
		item.ListingTags = *p.ListingTags
	}
	if p.ListingPrice != nil {
		item.ListingPrice = *p.ListingPrice
	}
	if p.Status != nil {
		item.Status = ParseStatus(string(*p.Status))
	}
	if p.LastAnalyzedAt != nil {
		t := *p.LastAnalyzedAt
		item.LastAnalyzedAt = &t
	}
	if p.ClarificationQuestions != nil {
		item.ClarificationQuestions = *p.ClarificationQuestions
	}
	if p.Answers != nil {
		item.Answers = *p.Answers
	}
}

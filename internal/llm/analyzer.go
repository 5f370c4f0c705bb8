package llm

import (
	"context"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
)

// Image is one analyzable image payload: raw bytes plus MIME type.
type Image struct {
	Data []byte
	MIME string
}

// ItemContext carries an item's existing fields into a model call so the
// response can refine rather than restart.
type ItemContext struct {
	Title       string
	Category    string
	Maker       string
	Style       string
	Era         string
	Materials   string
	Condition   string
	Markings    string
	Description string
	Notes       string
	Answers     map[string]string
}

// ContextFromItem builds an ItemContext from a persisted item.
func ContextFromItem(item *catalog.InventoryItem) ItemContext {
	return ItemContext{
		Title:       item.Title,
		Category:    item.Category,
		Maker:       item.Maker,
		Style:       item.Style,
		Era:         item.Era,
		Materials:   item.Materials,
		Condition:   item.Condition,
		Markings:    item.Markings,
		Description: item.Description,
		Notes:       item.Notes,
		Answers:     item.Answers,
	}
}

// AttributeSet is the structured result of analyzing an item's photos.
type AttributeSet struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Maker       string `json:"maker"`
	Style       string `json:"style"`
	Era         string `json:"era"`
	Materials   string `json:"materials"`
	Condition   string `json:"condition"`
	Markings    string `json:"markings"`
	Description string `json:"description"`

	ValuationLow        float64 `json:"valuation_low"`
	ValuationHigh       float64 `json:"valuation_high"`
	Confidence          string  `json:"confidence"`
	ConfidenceRationale string  `json:"confidence_rationale"`

	ClarificationQuestions []string `json:"clarification_questions"`
	Reasoning              string   `json:"reasoning"`

	// Unstructured is set when the response could not be parsed as the
	// expected structure and the raw text was kept as the description.
	Unstructured bool `json:"-"`
}

// Usage contains token usage and cost information for one model call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// AnalysisResult pairs the attribute set with usage information.
type AnalysisResult struct {
	Attributes *AttributeSet
	Usage      Usage
}

// GeneratedListing is tone-parameterized listing copy from the model.
type GeneratedListing struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Usage       Usage  `json:"-"`
}

// Analyzer identifies and appraises an item from its photos.
// Implementations must be pure request/response: no persisted state changes.
type Analyzer interface {
	// AnalyzeItem analyzes one or more images of the same item together
	// with the user's free-text notes and the item's existing fields.
	AnalyzeItem(ctx context.Context, images []Image, notes string, existing ItemContext) (*AnalysisResult, error)
}

// ListingGenerator produces listing copy from item attributes on explicit
// user request.
type ListingGenerator interface {
	GenerateListing(ctx context.Context, item ItemContext, valuation catalog.Valuation, tone ToneConfig) (*GeneratedListing, error)
}

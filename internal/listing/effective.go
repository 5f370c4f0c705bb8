package listing

import "github.com/arielmc/vintage-wizard-sub001/internal/catalog"

// Listing is the listing copy actually shown for an item: user overrides
// where present, derived values otherwise.
type Listing struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Tags        string  `json:"tags"`
	Price       float64 `json:"price"`
	HasPrice    bool    `json:"has_price"`

	// Which fields came from an explicit user override.
	TitleOverridden       bool `json:"title_overridden"`
	DescriptionOverridden bool `json:"description_overridden"`
	TagsOverridden        bool `json:"tags_overridden"`
	PriceOverridden       bool `json:"price_overridden"`
}

// Effective resolves the listing for an item. An absent override falls back
// to derivation; a present override supersedes it, even when empty.
func Effective(item *catalog.InventoryItem) Listing {
	l := Listing{}

	if v, ok := item.ListingTitle.Get(); ok {
		l.Title = v
		l.TitleOverridden = true
	} else {
		l.Title = DeriveTitle(item)
	}
	if l.Title == "" {
		l.Title = FallbackTitle
	}

	if v, ok := item.ListingDescription.Get(); ok {
		l.Description = v
		l.DescriptionOverridden = true
	} else {
		l.Description = DeriveDescription(item)
	}

	if v, ok := item.ListingTags.Get(); ok {
		l.Tags = v
		l.TagsOverridden = true
	} else {
		l.Tags = DeriveTags(item)
	}

	if v, ok := item.ListingPrice.Get(); ok {
		l.Price = v
		l.HasPrice = true
		l.PriceOverridden = true
	} else if price, ok := DerivePrice(item.Valuation); ok {
		l.Price = price
		l.HasPrice = true
	}

	return l
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/listing"
)

// csvHeader is the spreadsheet column layout. Listing columns carry the
// effective values (override or derived), not the raw stored overrides.
var csvHeader = []string{
	"id",
	"title",
	"category",
	"maker",
	"style",
	"era",
	"materials",
	"condition",
	"markings",
	"description",
	"notes",
	"valuation_low",
	"valuation_high",
	"confidence",
	"status",
	"listing_title",
	"listing_description",
	"listing_tags",
	"listing_price",
	"image_urls",
	"created_at",
	"last_analyzed_at",
}

// WriteCSV streams the items as a spreadsheet-importable CSV document.
func WriteCSV(w io.Writer, items []*catalog.InventoryItem) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, item := range items {
		if err := cw.Write(itemRow(item)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func itemRow(item *catalog.InventoryItem) []string {
	l := listing.Effective(item)

	price := ""
	if l.HasPrice {
		price = strconv.FormatFloat(l.Price, 'f', 2, 64)
	}

	var urls []string
	for _, ref := range item.Images {
		if ref.Kind == catalog.ImageURL && ref.URL != "" {
			urls = append(urls, ref.URL)
		}
	}

	lastAnalyzed := ""
	if item.LastAnalyzedAt != nil {
		lastAnalyzed = item.LastAnalyzedAt.Format(time.RFC3339)
	}

	return []string{
		item.ID,
		item.Title,
		item.Category,
		item.Maker,
		item.Style,
		item.Era,
		item.Materials,
		item.Condition,
		item.Markings,
		item.Description,
		item.Notes,
		formatValuation(item.Valuation.Low),
		formatValuation(item.Valuation.High),
		item.Valuation.Confidence,
		string(item.Status),
		l.Title,
		l.Description,
		l.Tags,
		price,
		strings.Join(urls, " "),
		item.CreatedAt.Format(time.RFC3339),
		lastAnalyzed,
	}
}

func formatValuation(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

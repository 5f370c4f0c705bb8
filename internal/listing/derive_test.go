package listing

import (
	"strings"
	"testing"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		item catalog.InventoryItem
		want string
	}{
		{
			name: "pyrex with unknown prefix and duplicate-free words",
			item: catalog.InventoryItem{
				Maker:     "Pyrex",
				Style:     "Spring Blossom",
				Title:     "Unknown Casserole Dish",
				Era:       "1970s",
				Materials: "Glass",
			},
			want: "Pyrex Spring Blossom Casserole Dish 1970s Glass",
		},
		{
			name: "duplicate words collapsed, order preserved",
			item: catalog.InventoryItem{
				Maker: "Fenton",
				Style: "Fenton Hobnail",
				Title: "Hobnail Milk Glass Vase",
			},
			want: "Fenton Hobnail Milk Glass Vase",
		},
		{
			name: "placeholder fields omitted",
			item: catalog.InventoryItem{
				Maker:     "unknown",
				Style:     "n/a",
				Title:     "Oak Side Table",
				Era:       "Unknown",
				Materials: "Oak",
			},
			want: "Oak Side Table",
		},
		{
			name: "everything placeholder falls back",
			item: catalog.InventoryItem{
				Maker: "unknown",
				Title: "n/a",
			},
			want: "Vintage Item",
		},
		{
			name: "empty item falls back",
			item: catalog.InventoryItem{},
			want: "Vintage Item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(&tt.item)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), MaxDerivedTitleLen)
		})
	}
}

func TestDeriveTitleTruncatesAtWordBoundary(t *testing.T) {
	item := catalog.InventoryItem{
		Maker:     "Wedgwood",
		Style:     "Florentine Turquoise Dragon",
		Title:     "Demitasse Cup and Saucer Set with Gilt Trim and Original Presentation Box",
		Era:       "Early Twentieth Century",
		Materials: "Bone China",
	}

	got := DeriveTitle(&item)
	assert.LessOrEqual(t, len([]rune(got)), MaxDerivedTitleLen)
	assert.False(t, strings.HasSuffix(got, " "))

	// The cut must not split a word: every word in the output appears
	// whole in the input.
	for _, w := range strings.Fields(got) {
		assert.Contains(t, strings.Fields(item.Maker+" "+item.Style+" "+item.Title+" "+item.Era+" "+item.Materials), w)
	}
}

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "Pyrex Bowl", 70, "Pyrex Bowl"},
		{"exact length untouched", strings.Repeat("a", 70), 70, strings.Repeat("a", 70)},
		{
			name: "75 chars cut to whole words under 70",
			in:   "Stunning Mid-Century Teak Sideboard with Sliding Doors and Brass Hardware!",
			max:  70,
			want: "Stunning Mid-Century Teak Sideboard with Sliding Doors and Brass",
		},
		{"single long word cut hard", strings.Repeat("x", 80), 70, strings.Repeat("x", 70)},
		{"trailing space trimmed", "one two three                                                                  four", 70, "one two three"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateAtWord(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), tt.max)
			assert.Equal(t, strings.TrimSpace(got), got)
		})
	}
}

func TestDeriveDescriptionSectionOrder(t *testing.T) {
	item := catalog.InventoryItem{
		Description: "A lovely dish.",
		Maker:       "Pyrex",
		Condition:   "Good",
		Notes:       "",
	}

	got := DeriveDescription(&item)

	want := strings.Join([]string{
		"A lovely dish.",
		"Details:\n- Maker/Brand: Pyrex",
		"Condition: Good",
		closingCallToAction,
	}, "\n\n")
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Notes:", "empty notes must omit the section entirely")
}

func TestDeriveDescriptionOmitsPlaceholderSections(t *testing.T) {
	item := catalog.InventoryItem{
		Description: "see photos",
		Maker:       "unknown",
		Style:       "N/A",
		Condition:   "Unknown",
		Notes:       "Bought at an estate sale.",
	}

	got := DeriveDescription(&item)

	assert.NotContains(t, got, "see photos")
	assert.NotContains(t, got, "unknown")
	assert.NotContains(t, got, "Details:")
	assert.NotContains(t, got, "Condition:")
	assert.Contains(t, got, "Notes: Bought at an estate sale.")
}

func TestDeriveDescriptionFullSections(t *testing.T) {
	item := catalog.InventoryItem{
		Description: "Classic stoneware crock.",
		Maker:       "Red Wing",
		Era:         "1930s",
		Materials:   "Stoneware",
		Markings:    "4 stamped on front",
		Category:    "Pottery",
		Condition:   "Good, small rim chip",
		Notes:       "Heavy, local pickup preferred.",
	}

	got := DeriveDescription(&item)
	sections := strings.Split(got, "\n\n")
	require.Len(t, sections, 5)
	assert.Equal(t, "Classic stoneware crock.", sections[0])
	assert.True(t, strings.HasPrefix(sections[1], "Details:\n"))
	assert.Contains(t, sections[1], "- Maker/Brand: Red Wing")
	assert.Contains(t, sections[1], "- Era: 1930s")
	assert.Contains(t, sections[1], "- Markings: 4 stamped on front")
	assert.Equal(t, "Condition: Good, small rim chip", sections[2])
	assert.Equal(t, "Notes: Heavy, local pickup preferred.", sections[3])
	assert.Equal(t, closingCallToAction, sections[4])
}

func TestDeriveTags(t *testing.T) {
	item := catalog.InventoryItem{
		Category: "Kitchenware",
		Style:    "Spring Blossom",
		Era:      "1970s",
		Maker:    "Pyrex",
	}

	got := DeriveTags(&item)
	tags := strings.Fields(got)

	assert.Contains(t, tags, "#kitchenware")
	assert.Contains(t, tags, "#springblossom")
	assert.Contains(t, tags, "#spring")
	assert.Contains(t, tags, "#blossom")
	assert.Contains(t, tags, "#1970s")
	assert.Contains(t, tags, "#pyrex")
	assert.Contains(t, tags, "#vintage")

	// No duplicates.
	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
		assert.True(t, strings.HasPrefix(tag, "#"))
	}
}

func TestDeriveTagsExcludesPlaceholders(t *testing.T) {
	item := catalog.InventoryItem{
		Category: "unknown",
		Style:    "n/a",
		Maker:    "Roseville",
	}

	got := DeriveTags(&item)
	assert.NotContains(t, got, "#unknown")
	assert.NotContains(t, got, "#na")
	assert.Contains(t, got, "#roseville")
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "unknown", "Unknown", " N/A ", "see photos", "TBD", "-"} {
		assert.True(t, IsPlaceholder(v), "%q should be a placeholder", v)
	}
	for _, v := range []string{"Pyrex", "0", "Glass"} {
		assert.False(t, IsPlaceholder(v), "%q should not be a placeholder", v)
	}
}

func TestDerivePrice(t *testing.T) {
	tests := []struct {
		name   string
		val    catalog.Valuation
		want   float64
		wantOK bool
	}{
		{"no estimate suppresses price", catalog.Valuation{}, 0, false},
		{"60 percent of range", catalog.Valuation{Low: 10, High: 20}, 16, true},
		{"low equals high", catalog.Valuation{Low: 25, High: 25}, 25, true},
		{"rounded to whole units", catalog.Valuation{Low: 10, High: 15}, 13, true},
		{"high only", catalog.Valuation{Low: 0, High: 100}, 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DerivePrice(tt.val)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

type fakeStore struct {
	items       map[string]*catalog.InventoryItem
	archives    map[string][]catalog.ArchiveImage
	patches     map[string][]catalog.ItemPatch
	archivePuts int
	putErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:    map[string]*catalog.InventoryItem{},
		archives: map[string][]catalog.ArchiveImage{},
		patches:  map[string][]catalog.ItemPatch{},
	}
}

func (f *fakeStore) GetItem(id string) (*catalog.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (f *fakeStore) UpdateItem(id string, patch catalog.ItemPatch) error {
	item, ok := f.items[id]
	if !ok {
		return fmt.Errorf("item %s not found", id)
	}
	patch.Apply(item)
	f.patches[id] = append(f.patches[id], patch)
	return nil
}

func (f *fakeStore) GetArchiveImages(itemID string) ([]catalog.ArchiveImage, error) {
	return f.archives[itemID], nil
}

func (f *fakeStore) PutArchiveImage(img catalog.ArchiveImage) error {
	f.archivePuts++
	if f.putErr != nil {
		return f.putErr
	}
	f.archives[img.ItemID] = append(f.archives[img.ItemID], img)
	return nil
}

type fakeAnalyzer struct {
	calls   [][]llm.Image
	results map[int]*llm.AnalysisResult
	errs    map[int]error
	attrs   *llm.AttributeSet
}

func (f *fakeAnalyzer) AnalyzeItem(_ context.Context, images []llm.Image, _ string, _ llm.ItemContext) (*llm.AnalysisResult, error) {
	call := len(f.calls)
	f.calls = append(f.calls, images)
	if err, ok := f.errs[call]; ok {
		return nil, err
	}
	if res, ok := f.results[call]; ok {
		return res, nil
	}
	attrs := f.attrs
	if attrs == nil {
		attrs = &llm.AttributeSet{Title: "Analyzed Item"}
	}
	return &llm.AnalysisResult{Attributes: attrs}, nil
}

func TestAnalyzeItemPrefersArchive(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{}
	svc := NewService(store, analyzer)

	archived := []byte("already-compressed-jpeg")
	liveJPEG := encodeJPEG(t, 32, 32)
	store.items["item1"] = &catalog.InventoryItem{
		ID: "item1",
		Images: []catalog.ImageRef{
			{Kind: catalog.ImageBlob, Blob: liveJPEG, MIME: "image/jpeg"},
		},
		LegacyImageData: []string{catalog.EncodeDataURI(liveJPEG, "image/jpeg")},
	}
	store.archives["item1"] = []catalog.ArchiveImage{
		{ItemID: "item1", Index: 0, Base64: base64.StdEncoding.EncodeToString(archived)},
	}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	require.NoError(t, err)

	require.Len(t, analyzer.calls, 1)
	require.Len(t, analyzer.calls[0], 1)
	// Archived copies go to the model as-is, no recompression.
	assert.Equal(t, archived, analyzer.calls[0][0].Data)
	// Nothing to re-archive when the archive was the source.
	assert.Equal(t, 0, store.archivePuts)
}

func TestAnalyzeItemLegacyFallback(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{}
	svc := NewService(store, analyzer)

	legacyJPEG := encodeJPEG(t, 32, 32)
	store.items["item1"] = &catalog.InventoryItem{
		ID:              "item1",
		LegacyImageData: []string{catalog.EncodeDataURI(legacyJPEG, "image/jpeg")},
	}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	require.NoError(t, err)

	require.Len(t, analyzer.calls, 1)
	assert.Len(t, analyzer.calls[0], 1)
	// Successful analysis from a non-archive source populates the archive.
	assert.Len(t, store.archives["item1"], 1)
}

func TestAnalyzeItemURLOnlyNotAnalyzable(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeAnalyzer{})

	store.items["item1"] = &catalog.InventoryItem{
		ID: "item1",
		Images: []catalog.ImageRef{
			{Kind: catalog.ImageURL, URL: "https://cdn.example.com/photo.jpg"},
		},
	}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	assert.ErrorIs(t, err, ErrNotAnalyzable)
}

func TestResolveSourceGatedOnFirstEntry(t *testing.T) {
	jpeg := encodeJPEG(t, 16, 16)
	inline := catalog.EncodeDataURI(jpeg, "image/jpeg")

	tests := []struct {
		name string
		item catalog.InventoryItem
	}{
		{
			name: "legacy first entry undecodable",
			item: catalog.InventoryItem{
				ID:              "item1",
				LegacyImageData: []string{"data:image/jpeg;base64,!!!", inline},
			},
		},
		{
			name: "live first entry remote url",
			item: catalog.InventoryItem{
				ID: "item1",
				Images: []catalog.ImageRef{
					{Kind: catalog.ImageURL, URL: "https://cdn.example.com/photo.jpg"},
					{Kind: catalog.ImageDataURI, Data: inline},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			analyzer := &fakeAnalyzer{}
			svc := NewService(store, analyzer)

			item := tt.item
			store.items[item.ID] = &item

			// A later usable entry does not rescue the source.
			_, err := svc.AnalyzeItem(context.Background(), item.ID)
			assert.ErrorIs(t, err, ErrNotAnalyzable)
			assert.Empty(t, analyzer.calls)
		})
	}
}

func TestAnalyzeItemMissing(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeAnalyzer{})

	_, err := svc.AnalyzeItem(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAnalyzeItemCapsImageCount(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{}
	svc := NewService(store, analyzer)

	jpegData := encodeJPEG(t, 16, 16)
	var legacy []string
	for i := 0; i < 6; i++ {
		legacy = append(legacy, catalog.EncodeDataURI(jpegData, "image/jpeg"))
	}
	store.items["item1"] = &catalog.InventoryItem{ID: "item1", LegacyImageData: legacy}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	require.NoError(t, err)

	require.Len(t, analyzer.calls, 1)
	assert.Len(t, analyzer.calls[0], MaxAnalysisImages)
}

func TestAnalyzeItemMergesAttributes(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{attrs: &llm.AttributeSet{
		Title:         "Iittala Vase",
		Maker:         "Iittala",
		Era:           "1960s",
		ValuationLow:  30,
		ValuationHigh: 80,
		Confidence:    "high",
	}}
	svc := NewService(store, analyzer)

	jpegData := encodeJPEG(t, 16, 16)
	store.items["item1"] = &catalog.InventoryItem{
		ID:     "item1",
		Images: []catalog.ImageRef{{Kind: catalog.ImageBlob, Blob: jpegData, MIME: "image/jpeg"}},
	}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	require.NoError(t, err)

	item := store.items["item1"]
	assert.Equal(t, "Iittala Vase", item.Title)
	assert.Equal(t, "Iittala", item.Maker)
	assert.Equal(t, 30.0, item.Valuation.Low)
	assert.Equal(t, 80.0, item.Valuation.High)
	require.NotNil(t, item.LastAnalyzedAt)
}

func TestAnalyzeItemUnstructuredResult(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{attrs: &llm.AttributeSet{
		Description:  "The model rambled in prose instead of returning structure.",
		Unstructured: true,
	}}
	svc := NewService(store, analyzer)

	jpegData := encodeJPEG(t, 16, 16)
	store.items["item1"] = &catalog.InventoryItem{
		ID:     "item1",
		Title:  "Existing Title",
		Images: []catalog.ImageRef{{Kind: catalog.ImageBlob, Blob: jpegData, MIME: "image/jpeg"}},
	}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	require.NoError(t, err)

	item := store.items["item1"]
	// Only the description changes on a parse fallback.
	assert.Equal(t, "Existing Title", item.Title)
	assert.Contains(t, item.Description, "rambled in prose")
	require.NotNil(t, item.LastAnalyzedAt)
}

func TestAnalyzeItemArchiveFailureIsSoft(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("disk full")
	analyzer := &fakeAnalyzer{}
	svc := NewService(store, analyzer)

	jpegData := encodeJPEG(t, 16, 16)
	store.items["item1"] = &catalog.InventoryItem{
		ID:     "item1",
		Images: []catalog.ImageRef{{Kind: catalog.ImageBlob, Blob: jpegData, MIME: "image/jpeg"}},
	}

	_, err := svc.AnalyzeItem(context.Background(), "item1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.archivePuts)
	require.NotNil(t, store.items["item1"].LastAnalyzedAt)
}

func TestRunBatchSkipsImagelessAndSurvivesFailures(t *testing.T) {
	store := newFakeStore()
	// Third attempted item throws; the rest succeed.
	analyzer := &fakeAnalyzer{
		errs: map[int]error{2: errors.New("model exploded")},
	}
	svc := NewService(store, analyzer)

	jpegData := encodeJPEG(t, 16, 16)
	blob := catalog.ImageRef{Kind: catalog.ImageBlob, Blob: jpegData, MIME: "image/jpeg"}

	ids := []string{"item1", "item2", "item3", "item4", "item5"}
	for _, id := range ids {
		store.items[id] = &catalog.InventoryItem{ID: id, Images: []catalog.ImageRef{blob}}
	}
	store.items["noimg"] = &catalog.InventoryItem{ID: "noimg"}

	var outcomes []ItemOutcome
	result, err := svc.RunBatch(context.Background(),
		append(ids, "noimg"),
		func(o ItemOutcome) { outcomes = append(outcomes, o) })
	require.NoError(t, err)

	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"item3"}, result.FailedIDs)
	assert.Equal(t, 6, result.Total())

	// Items after the failure are still attempted, in order.
	require.Len(t, outcomes, 5)
	assert.Equal(t, "item4", outcomes[3].ItemID)
	assert.NoError(t, outcomes[3].Err)
	assert.Equal(t, "item5", outcomes[4].ItemID)
	assert.NoError(t, outcomes[4].Err)
}

func TestRunBatchMissingItemCountsAsFailure(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeAnalyzer{})

	result, err := svc.RunBatch(context.Background(), []string{"ghost"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"ghost"}, result.FailedIDs)
}

func TestRunBatchURLOnlyFailsNotSkips(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeAnalyzer{})

	store.items["urls"] = &catalog.InventoryItem{
		ID:     "urls",
		Images: []catalog.ImageRef{{Kind: catalog.ImageURL, URL: "https://cdn.example.com/x.jpg"}},
	}

	result, err := svc.RunBatch(context.Background(), []string{"urls"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Failed)
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	store := newFakeStore()
	analyzer := &fakeAnalyzer{}
	svc := NewService(store, analyzer)

	jpegData := encodeJPEG(t, 16, 16)
	store.items["item1"] = &catalog.InventoryItem{
		ID:     "item1",
		Images: []catalog.ImageRef{{Kind: catalog.ImageBlob, Blob: jpegData, MIME: "image/jpeg"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RunBatch(ctx, []string{"item1"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, analyzer.calls)
}

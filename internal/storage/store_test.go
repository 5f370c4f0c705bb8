package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetItem(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{
		Title: "Pyrex Casserole",
		Maker: "Pyrex",
		Era:   "1970s",
		Images: []catalog.ImageRef{
			{Kind: catalog.ImageURL, URL: "https://example.com/a.jpg"},
		},
		Valuation: catalog.Valuation{Low: 10, High: 25, Confidence: "medium"},
		Notes:     "from the estate sale",
	}
	require.NoError(t, store.CreateItem(item))
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pyrex Casserole", got.Title)
	assert.Equal(t, "Pyrex", got.Maker)
	assert.Len(t, got.Images, 1)
	assert.Equal(t, catalog.ImageURL, got.Images[0].Kind)
	assert.Equal(t, 10.0, got.Valuation.Low)
	assert.Equal(t, catalog.StatusTBD, got.Status)
	assert.Nil(t, got.LastAnalyzedAt)
}

func TestGetItemMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetItem("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOverridesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Lamp"}
	item.ListingTitle = catalog.Set("Custom Title")
	item.ListingPrice = catalog.Set(42.5)
	require.NoError(t, store.CreateItem(item))

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)

	title, ok := got.ListingTitle.Get()
	require.True(t, ok)
	assert.Equal(t, "Custom Title", title)

	price, ok := got.ListingPrice.Get()
	require.True(t, ok)
	assert.Equal(t, 42.5, price)

	// Fields never set stay absent, not empty.
	assert.False(t, got.ListingDescription.IsSet())
	assert.False(t, got.ListingTags.IsSet())
}

func TestUpdateItemClearsOverride(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Vase"}
	item.ListingTitle = catalog.Set("My Title")
	require.NoError(t, store.CreateItem(item))

	var cleared catalog.Override[string]
	require.NoError(t, store.UpdateItem(item.ID, catalog.ItemPatch{
		ListingTitle: &cleared,
	}))

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.False(t, got.ListingTitle.IsSet())
}

func TestUpdateItemMerge(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{
		Title: "Chair",
		Maker: "Artek",
		Notes: "keep this",
	}
	require.NoError(t, store.CreateItem(item))

	newTitle := "Alvar Aalto Chair"
	when := time.Now().Round(time.Second)
	require.NoError(t, store.UpdateItem(item.ID, catalog.ItemPatch{
		Title:          &newTitle,
		LastAnalyzedAt: &when,
	}))

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alvar Aalto Chair", got.Title)
	assert.Equal(t, "Artek", got.Maker)
	assert.Equal(t, "keep this", got.Notes)
	require.NotNil(t, got.LastAnalyzedAt)
	assert.WithinDuration(t, when, *got.LastAnalyzedAt, time.Second)
}

func TestUpdateItemNotFound(t *testing.T) {
	store := newTestStore(t)

	title := "x"
	err := store.UpdateItem("missing", catalog.ItemPatch{Title: &title})
	assert.Error(t, err)
}

func TestUpdateItemEmptyPatch(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Bowl"}
	require.NoError(t, store.CreateItem(item))
	require.NoError(t, store.UpdateItem(item.ID, catalog.ItemPatch{}))
}

func TestStatusFoldingOnWrite(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Mystery Box", Status: "draft"}
	require.NoError(t, store.CreateItem(item))

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusTBD, got.Status)
}

func TestListItemsFilter(t *testing.T) {
	store := newTestStore(t)

	a := &catalog.InventoryItem{Title: "Keep Me", Status: catalog.StatusKeep}
	b := &catalog.InventoryItem{Title: "Sell Me", Status: catalog.StatusSell}
	c := &catalog.InventoryItem{Title: "Undecided"}
	require.NoError(t, store.CreateItem(a))
	require.NoError(t, store.CreateItem(b))
	require.NoError(t, store.CreateItem(c))

	all, err := store.ListItems(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sell, err := store.ListItems(ListFilter{Status: catalog.StatusSell})
	require.NoError(t, err)
	require.Len(t, sell, 1)
	assert.Equal(t, "Sell Me", sell[0].Title)
}

func TestDeleteItemCascadesArchive(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Clock"}
	require.NoError(t, store.CreateItem(item))
	require.NoError(t, store.PutArchiveImage(catalog.ArchiveImage{
		ItemID: item.ID,
		Index:  0,
		Base64: "aGVsbG8=",
	}))

	require.NoError(t, store.DeleteItem(item.ID))

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	images, err := store.GetArchiveImages(item.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestDeleteItemCascadesOnFreshConnection(t *testing.T) {
	store := newTestStore(t)

	// Drop idle connections so the delete runs on a connection that
	// never executed the schema statements. Cascade enforcement is per
	// connection in SQLite, so it has to come from the DSN.
	store.db.SetMaxIdleConns(0)

	item := &catalog.InventoryItem{Title: "Tray"}
	require.NoError(t, store.CreateItem(item))
	require.NoError(t, store.PutArchiveImage(catalog.ArchiveImage{
		ItemID: item.ID,
		Index:  0,
		Base64: "aGVsbG8=",
	}))

	require.NoError(t, store.DeleteItem(item.ID))

	images, err := store.GetArchiveImages(item.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestArchiveImagesOrderedByIndex(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Teapot"}
	require.NoError(t, store.CreateItem(item))

	for _, idx := range []int{2, 0, 1} {
		require.NoError(t, store.PutArchiveImage(catalog.ArchiveImage{
			ItemID: item.ID,
			Index:  idx,
			Base64: "aW1n",
		}))
	}

	images, err := store.GetArchiveImages(item.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, 0, images[0].Index)
	assert.Equal(t, 1, images[1].Index)
	assert.Equal(t, 2, images[2].Index)
}

func TestPutArchiveImageUpsert(t *testing.T) {
	store := newTestStore(t)

	item := &catalog.InventoryItem{Title: "Radio"}
	require.NoError(t, store.CreateItem(item))

	require.NoError(t, store.PutArchiveImage(catalog.ArchiveImage{ItemID: item.ID, Index: 0, Base64: "b2xk"}))
	require.NoError(t, store.PutArchiveImage(catalog.ArchiveImage{ItemID: item.ID, Index: 0, Base64: "bmV3"}))

	images, err := store.GetArchiveImages(item.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "bmV3", images[0].Base64)
}

func TestVisionCache(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetVisionCache("deadbeef")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.SetVisionCache("deadbeef", `{"title":"Lamp"}`))

	got, err = store.GetVisionCache("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Lamp"}`, got)

	// Overwrite
	require.NoError(t, store.SetVisionCache("deadbeef", `{"title":"Better Lamp"}`))
	got, err = store.GetVisionCache("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Better Lamp"}`, got)
}

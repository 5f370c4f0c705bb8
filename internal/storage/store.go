package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ListFilter narrows ListItems results.
type ListFilter struct {
	// Status filters by folded status when non-empty.
	Status catalog.Status
}

// Store defines the persistence interface for the inventory.
// The consistency unit is one item record: every write targets a single
// item by id and updates are merge-style partial field sets.
type Store interface {
	CreateItem(item *catalog.InventoryItem) error
	GetItem(id string) (*catalog.InventoryItem, error)
	ListItems(filter ListFilter) ([]*catalog.InventoryItem, error)
	UpdateItem(id string, patch catalog.ItemPatch) error
	DeleteItem(id string) error

	// Per-item archive of compressed, analysis-ready image copies.
	// Each image is stored as its own record so a single oversized
	// document never trips the per-record size ceiling.
	GetArchiveImages(itemID string) ([]catalog.ArchiveImage, error)
	PutArchiveImage(img catalog.ArchiveImage) error
	DeleteArchiveImages(itemID string) error

	// Vision cache methods
	GetVisionCache(hash string) (string, error)
	SetVisionCache(hash, payload string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and busy timeout for better concurrency. Foreign keys go
	// in the DSN because SQLite enforces them per connection and
	// database/sql pools connections.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	itemsQuery := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		images TEXT NOT NULL DEFAULT '[]',
		legacy_image_data TEXT,
		title TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		maker TEXT NOT NULL DEFAULT '',
		style TEXT NOT NULL DEFAULT '',
		era TEXT NOT NULL DEFAULT '',
		materials TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT '',
		markings TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		valuation_low REAL NOT NULL DEFAULT 0,
		valuation_high REAL NOT NULL DEFAULT 0,
		confidence TEXT NOT NULL DEFAULT '',
		confidence_rationale TEXT NOT NULL DEFAULT '',
		listing_title TEXT,
		listing_description TEXT,
		listing_tags TEXT,
		listing_price REAL,
		status TEXT NOT NULL DEFAULT 'tbd',
		created_at DATETIME NOT NULL,
		last_analyzed_at DATETIME,
		clarification_questions TEXT,
		answers TEXT
	);
	`
	if _, err := s.db.Exec(itemsQuery); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}

	// One row per archived image so per-image size stays under any
	// single-record ceiling. (item_id, idx) is the "img_<idx>" key.
	archiveQuery := `
	CREATE TABLE IF NOT EXISTS item_images (
		item_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		base64 TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (item_id, idx),
		FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(archiveQuery); err != nil {
		return fmt.Errorf("failed to create item_images table: %w", err)
	}

	visionCacheQuery := `
	CREATE TABLE IF NOT EXISTS vision_cache (
		image_hash TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(visionCacheQuery); err != nil {
		return fmt.Errorf("failed to create vision_cache table: %w", err)
	}

	return nil
}

// CreateItem persists a new item, assigning a generated id and creation
// timestamp when absent.
func (s *SQLiteStore) CreateItem(item *catalog.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.Status = catalog.ParseStatus(string(item.Status))

	images, err := json.Marshal(item.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO items (
			id, images, legacy_image_data,
			title, category, maker, style, era, materials, condition, markings, description, notes,
			valuation_low, valuation_high, confidence, confidence_rationale,
			listing_title, listing_description, listing_tags, listing_price,
			status, created_at, last_analyzed_at, clarification_questions, answers
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, string(images), marshalNullableJSON(item.LegacyImageData),
		item.Title, item.Category, item.Maker, item.Style, item.Era, item.Materials,
		item.Condition, item.Markings, item.Description, item.Notes,
		item.Valuation.Low, item.Valuation.High, item.Valuation.Confidence, item.Valuation.Rationale,
		overrideString(item.ListingTitle), overrideString(item.ListingDescription),
		overrideString(item.ListingTags), overrideFloat(item.ListingPrice),
		string(item.Status), item.CreatedAt, nullableTime(item.LastAnalyzedAt),
		marshalNullableJSON(item.ClarificationQuestions), marshalNullableJSON(item.Answers),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

const itemColumns = `id, images, legacy_image_data,
	title, category, maker, style, era, materials, condition, markings, description, notes,
	valuation_low, valuation_high, confidence, confidence_rationale,
	listing_title, listing_description, listing_tags, listing_price,
	status, created_at, last_analyzed_at, clarification_questions, answers`

// GetItem retrieves an item by id. Returns nil, nil if it doesn't exist.
func (s *SQLiteStore) GetItem(id string) (*catalog.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, newest first.
func (s *SQLiteStore) ListItems(filter ListFilter) ([]*catalog.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + itemColumns + " FROM items ORDER BY created_at DESC"
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		// Status synonym folding happens on read, so the filter matches
		// legacy values too.
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// UpdateItem applies a partial field set to an item with merge semantics:
// nil patch fields are left untouched.
func (s *SQLiteStore) UpdateItem(id string, patch catalog.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Images != nil {
		images, err := json.Marshal(*patch.Images)
		if err != nil {
			return fmt.Errorf("failed to marshal images: %w", err)
		}
		add("images", string(images))
	}
	if patch.LegacyImageData != nil {
		add("legacy_image_data", marshalNullableJSON(*patch.LegacyImageData))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Maker != nil {
		add("maker", *patch.Maker)
	}
	if patch.Style != nil {
		add("style", *patch.Style)
	}
	if patch.Era != nil {
		add("era", *patch.Era)
	}
	if patch.Materials != nil {
		add("materials", *patch.Materials)
	}
	if patch.Condition != nil {
		add("condition", *patch.Condition)
	}
	if patch.Markings != nil {
		add("markings", *patch.Markings)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.ValuationLow != nil {
		add("valuation_low", *patch.ValuationLow)
	}
	if patch.ValuationHigh != nil {
		add("valuation_high", *patch.ValuationHigh)
	}
	if patch.Confidence != nil {
		add("confidence", *patch.Confidence)
	}
	if patch.ConfidenceRationale != nil {
		add("confidence_rationale", *patch.ConfidenceRationale)
	}
	if patch.ListingTitle != nil {
		add("listing_title", overrideString(*patch.ListingTitle))
	}
	if patch.ListingDescription != nil {
		add("listing_description", overrideString(*patch.ListingDescription))
	}
	if patch.ListingTags != nil {
		add("listing_tags", overrideString(*patch.ListingTags))
	}
	if patch.ListingPrice != nil {
		add("listing_price", overrideFloat(*patch.ListingPrice))
	}
	if patch.Status != nil {
		add("status", string(catalog.ParseStatus(string(*patch.Status))))
	}
	if patch.LastAnalyzedAt != nil {
		add("last_analyzed_at", *patch.LastAnalyzedAt)
	}
	if patch.ClarificationQuestions != nil {
		add("clarification_questions", marshalNullableJSON(*patch.ClarificationQuestions))
	}
	if patch.Answers != nil {
		add("answers", marshalNullableJSON(*patch.Answers))
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.Exec("UPDATE items SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("item %s not found", id)
	}
	return nil
}

// DeleteItem removes an item. Archived images cascade.
func (s *SQLiteStore) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// GetArchiveImages returns the item's archived analysis copies sorted by
// their stored index ascending.
func (s *SQLiteStore) GetArchiveImages(itemID string) ([]catalog.ArchiveImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT item_id, idx, base64, created_at FROM item_images WHERE item_id = ? ORDER BY idx ASC",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive images: %w", err)
	}
	defer rows.Close()

	var images []catalog.ArchiveImage
	for rows.Next() {
		var img catalog.ArchiveImage
		if err := rows.Scan(&img.ItemID, &img.Index, &img.Base64, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive image: %w", err)
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

// PutArchiveImage stores or replaces one archived image record.
func (s *SQLiteStore) PutArchiveImage(img catalog.ArchiveImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO item_images (item_id, idx, base64, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id, idx) DO UPDATE SET
			base64 = excluded.base64,
			created_at = excluded.created_at
	`, img.ItemID, img.Index, img.Base64, img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to put archive image: %w", err)
	}
	return nil
}

// DeleteArchiveImages removes all archived copies for an item.
func (s *SQLiteStore) DeleteArchiveImages(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM item_images WHERE item_id = ?", itemID)
	if err != nil {
		return fmt.Errorf("failed to delete archive images: %w", err)
	}
	return nil
}

// GetVisionCache retrieves a cached analysis payload by image-set hash.
// Returns "" if no cache entry exists.
func (s *SQLiteStore) GetVisionCache(hash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow("SELECT payload FROM vision_cache WHERE image_hash = ?", hash).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query vision cache: %w", err)
	}
	return payload, nil
}

// SetVisionCache stores an analysis payload in the cache.
func (s *SQLiteStore) SetVisionCache(hash, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO vision_cache (image_hash, payload)
		VALUES (?, ?)
		ON CONFLICT(image_hash) DO UPDATE SET
			payload = excluded.payload,
			created_at = CURRENT_TIMESTAMP
	`, hash, payload)
	if err != nil {
		return fmt.Errorf("failed to cache vision result: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*catalog.InventoryItem, error) {
	var item catalog.InventoryItem
	var images string
	var legacy, questions, answers sql.NullString
	var listingTitle, listingDescription, listingTags sql.NullString
	var listingPrice sql.NullFloat64
	var status string
	var lastAnalyzed sql.NullTime

	err := row.Scan(
		&item.ID, &images, &legacy,
		&item.Title, &item.Category, &item.Maker, &item.Style, &item.Era, &item.Materials,
		&item.Condition, &item.Markings, &item.Description, &item.Notes,
		&item.Valuation.Low, &item.Valuation.High, &item.Valuation.Confidence, &item.Valuation.Rationale,
		&listingTitle, &listingDescription, &listingTags, &listingPrice,
		&status, &item.CreatedAt, &lastAnalyzed, &questions, &answers,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(images), &item.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	if legacy.Valid && legacy.String != "" {
		if err := json.Unmarshal([]byte(legacy.String), &item.LegacyImageData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal legacy image data: %w", err)
		}
	}
	if questions.Valid && questions.String != "" {
		if err := json.Unmarshal([]byte(questions.String), &item.ClarificationQuestions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal clarification questions: %w", err)
		}
	}
	if answers.Valid && answers.String != "" {
		if err := json.Unmarshal([]byte(answers.String), &item.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}

	// SQL NULL maps to an absent override; a stored value (even "") is a
	// present override.
	if listingTitle.Valid {
		item.ListingTitle = catalog.Set(listingTitle.String)
	}
	if listingDescription.Valid {
		item.ListingDescription = catalog.Set(listingDescription.String)
	}
	if listingTags.Valid {
		item.ListingTags = catalog.Set(listingTags.String)
	}
	if listingPrice.Valid {
		item.ListingPrice = catalog.Set(listingPrice.Float64)
	}

	item.Status = catalog.ParseStatus(status)

	if lastAnalyzed.Valid {
		t := lastAnalyzed.Time
		item.LastAnalyzedAt = &t
	}

	return &item, nil
}

// overrideString maps a present override to its value and an absent one to
// SQL NULL.
func overrideString(o catalog.Override[string]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}

func overrideFloat(o catalog.Override[float64]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// marshalNullableJSON marshals a slice or map to JSON, mapping empty values
// to SQL NULL.
func marshalNullableJSON(v any) any {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil
		}
	case map[string]string:
		if len(val) == 0 {
			return nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}

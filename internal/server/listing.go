package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/listing"
	"github.com/arielmc/vintage-wizard-sub001/internal/llm"
)

// GET /api/items/:id/listing
func (s *Server) getListing(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}
	c.JSON(http.StatusOK, listing.Effective(item))
}

// bindOverride reads one listing field out of a raw request body. An
// absent key leaves dst nil (untouched), a null value yields a cleared
// override, anything else becomes the new override value. The body has
// to be walked as raw JSON because encoding/json sets a pointer field
// to nil on null without ever invoking the override's unmarshaler, which
// would make clearing indistinguishable from omitting the key.
func bindOverride[T any](body map[string]json.RawMessage, key string, dst **catalog.Override[T]) error {
	raw, ok := body[key]
	if !ok {
		return nil
	}
	var o catalog.Override[T]
	if err := json.Unmarshal(raw, &o); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = &o
	return nil
}

// PUT /api/items/:id/listing
func (s *Server) setListingOverrides(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	var patch catalog.ItemPatch
	if err := bindOverride(body, "title", &patch.ListingTitle); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if err := bindOverride(body, "description", &patch.ListingDescription); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if err := bindOverride(body, "tags", &patch.ListingTags); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if err := bindOverride(body, "price", &patch.ListingPrice); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusOK, listing.Effective(item))
		return
	}

	if err := s.store.UpdateItem(item.ID, patch); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	patch.Apply(item)
	c.JSON(http.StatusOK, listing.Effective(item))
}

// POST /api/items/:id/listing/reset
// Clears all listing overrides so every field falls back to derivation.
func (s *Server) resetListing(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}

	var title, description, tags catalog.Override[string]
	var price catalog.Override[float64]
	patch := catalog.ItemPatch{
		ListingTitle:       &title,
		ListingDescription: &description,
		ListingTags:        &tags,
		ListingPrice:       &price,
	}

	if err := s.store.UpdateItem(item.ID, patch); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	patch.Apply(item)
	c.JSON(http.StatusOK, listing.Effective(item))
}

type generateListingRequest struct {
	SalesIntensity int    `json:"sales_intensity"`
	NerdFactor     int    `json:"nerd_factor"`
	EmojiStyle     string `json:"emoji_style"`
	IncludeFunFact bool   `json:"include_fun_fact"`
	IncludeDadJoke bool   `json:"include_dad_joke"`

	// Apply stores the generated copy as listing overrides.
	Apply bool `json:"apply"`
}

// POST /api/items/:id/listing/generate
func (s *Server) generateListing(c *gin.Context) {
	if s.generator == nil {
		errorResponse(c, http.StatusServiceUnavailable, errors.New("listing generation is not configured"))
		return
	}

	item := s.loadItem(c)
	if item == nil {
		return
	}

	var req generateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	tone := llm.ToneConfig{
		SalesIntensity: req.SalesIntensity,
		NerdFactor:     req.NerdFactor,
		EmojiStyle:     llm.EmojiStyle(req.EmojiStyle),
		IncludeFunFact: req.IncludeFunFact,
		IncludeDadJoke: req.IncludeDadJoke,
	}
	tone.Normalize()

	generated, err := s.generator.GenerateListing(c.Request.Context(), llm.ContextFromItem(item), item.Valuation, tone)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err)
		return
	}

	if req.Apply {
		title := catalog.Set(generated.Title)
		description := catalog.Set(generated.Description)
		patch := catalog.ItemPatch{
			ListingTitle:       &title,
			ListingDescription: &description,
		}
		if err := s.store.UpdateItem(item.ID, patch); err != nil {
			errorResponse(c, http.StatusInternalServerError, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"title":       generated.Title,
		"description": generated.Description,
		"applied":     req.Apply,
		"usage": gin.H{
			"input_tokens":  generated.Usage.InputTokens,
			"output_tokens": generated.Usage.OutputTokens,
			"cost_usd":      generated.Usage.CostUSD,
		},
	})
}

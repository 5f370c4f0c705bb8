package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/storage"
)

type createItemRequest struct {
	Title    string             `json:"title"`
	Category string             `json:"category"`
	Maker    string             `json:"maker"`
	Style    string             `json:"style"`
	Era      string             `json:"era"`
	Notes    string             `json:"notes"`
	Status   string             `json:"status"`
	Images   []catalog.ImageRef `json:"images"`
}

// POST /api/items
func (s *Server) createItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	item := &catalog.InventoryItem{
		Title:    req.Title,
		Category: req.Category,
		Maker:    req.Maker,
		Style:    req.Style,
		Era:      req.Era,
		Notes:    req.Notes,
		Status:   catalog.ParseStatus(req.Status),
		Images:   req.Images,
	}
	if err := s.store.CreateItem(item); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GET /api/items?status=sell
func (s *Server) listItems(c *gin.Context) {
	filter := storage.ListFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = catalog.ParseStatus(status)
	}

	items, err := s.store.ListItems(filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []*catalog.InventoryItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// loadItem fetches the path-parameter item or writes the error response.
func (s *Server) loadItem(c *gin.Context) *catalog.InventoryItem {
	item, err := s.store.GetItem(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return nil
	}
	if item == nil {
		errorResponse(c, http.StatusNotFound, errors.New("item not found"))
		return nil
	}
	return item
}

// GET /api/items/:id
func (s *Server) getItem(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}
	c.JSON(http.StatusOK, item)
}

type itemUpdateRequest struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Maker       *string `json:"maker"`
	Style       *string `json:"style"`
	Era         *string `json:"era"`
	Materials   *string `json:"materials"`
	Condition   *string `json:"condition"`
	Markings    *string `json:"markings"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`

	ValuationLow  *float64 `json:"valuation_low"`
	ValuationHigh *float64 `json:"valuation_high"`

	Images *[]catalog.ImageRef `json:"images"`
}

// PATCH /api/items/:id
func (s *Server) updateItem(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}

	var req itemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	patch := catalog.ItemPatch{
		Title:         req.Title,
		Category:      req.Category,
		Maker:         req.Maker,
		Style:         req.Style,
		Era:           req.Era,
		Materials:     req.Materials,
		Condition:     req.Condition,
		Markings:      req.Markings,
		Description:   req.Description,
		Notes:         req.Notes,
		ValuationLow:  req.ValuationLow,
		ValuationHigh: req.ValuationHigh,
		Images:        req.Images,
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusOK, item)
		return
	}

	if err := s.store.UpdateItem(item.ID, patch); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	patch.Apply(item)
	c.JSON(http.StatusOK, item)
}

// DELETE /api/items/:id
func (s *Server) deleteItem(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}
	if err := s.store.DeleteItem(item.ID); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/items/batch-delete
func (s *Server) batchDeleteItems(c *gin.Context) {
	var req struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if len(req.ItemIDs) == 0 {
		errorResponse(c, http.StatusBadRequest, errors.New("item_ids must not be empty"))
		return
	}

	deleted := 0
	for _, id := range req.ItemIDs {
		if err := s.store.DeleteItem(id); err != nil {
			errorResponse(c, http.StatusInternalServerError, err)
			return
		}
		deleted++
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// PUT /api/items/:id/status
func (s *Server) setStatus(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	status := catalog.ParseStatus(req.Status)
	if err := s.store.UpdateItem(item.ID, catalog.ItemPatch{Status: &status}); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// POST /api/items/:id/images/reorder
// The body gives the new order as positions into the current sequence.
// Position 0 of the result becomes the hero image.
func (s *Server) reorderImages(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}

	var req struct {
		Order []int `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	reordered, err := reorder(item.Images, req.Order)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	if err := s.store.UpdateItem(item.ID, catalog.ItemPatch{Images: &reordered}); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": reordered})
}

// reorder applies a permutation. Every current position must appear
// exactly once.
func reorder(images []catalog.ImageRef, order []int) ([]catalog.ImageRef, error) {
	if len(order) != len(images) {
		return nil, fmt.Errorf("order has %d entries, item has %d images", len(order), len(images))
	}
	seen := make([]bool, len(images))
	out := make([]catalog.ImageRef, 0, len(images))
	for _, pos := range order {
		if pos < 0 || pos >= len(images) {
			return nil, fmt.Errorf("position %d out of range", pos)
		}
		if seen[pos] {
			return nil, fmt.Errorf("position %d appears twice", pos)
		}
		seen[pos] = true
		out = append(out, images[pos])
	}
	return out, nil
}

// POST /api/items/:id/answers
// Records answers to the model's clarification questions. Answers merge
// into any already recorded; re-analysis picks them up as context.
func (s *Server) recordAnswers(c *gin.Context) {
	item := s.loadItem(c)
	if item == nil {
		return
	}

	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Answers) == 0 {
		errorResponse(c, http.StatusBadRequest, errors.New("no answers given"))
		return
	}

	merged := make(map[string]string, len(item.Answers)+len(req.Answers))
	for q, a := range item.Answers {
		merged[q] = a
	}
	for q, a := range req.Answers {
		merged[q] = a
	}

	if err := s.store.UpdateItem(item.ID, catalog.ItemPatch{Answers: &merged}); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": merged})
}

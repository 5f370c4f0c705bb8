package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielmc/vintage-wizard-sub001/internal/pipeline"
)

// POST /api/items/:id/analyze
func (s *Server) analyzeItem(c *gin.Context) {
	result, err := s.pipeline.AnalyzeItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrItemNotFound):
			errorResponse(c, http.StatusNotFound, err)
		case errors.Is(err, pipeline.ErrNotAnalyzable):
			errorResponse(c, http.StatusUnprocessableEntity, err)
		default:
			errorResponse(c, http.StatusBadGateway, err)
		}
		return
	}

	item, err := s.store.GetItem(c.Param("id"))
	if err != nil || item == nil {
		errorResponse(c, http.StatusInternalServerError, errors.New("analysis saved but item could not be reloaded"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item": item,
		"usage": gin.H{
			"input_tokens":  result.Usage.InputTokens,
			"output_tokens": result.Usage.OutputTokens,
			"cost_usd":      result.Usage.CostUSD,
		},
		"unstructured": result.Attributes.Unstructured,
	})
}

// POST /api/analyze/batch
// Per-item failures are part of the summary, not an HTTP error: the run
// itself succeeded even when some items didn't.
func (s *Server) analyzeBatch(c *gin.Context) {
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

	result, err := s.pipeline.RunBatch(c.Request.Context(), req.ItemIDs, nil)
	if err != nil {
		// Only cancellation aborts a batch mid-run.
		errorResponse(c, http.StatusServiceUnavailable, err)
		return
	}

	s.notifier.BatchComplete(result)

	c.JSON(http.StatusOK, result)
}

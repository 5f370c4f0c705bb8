package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/export"
	"github.com/arielmc/vintage-wizard-sub001/internal/listing"
	"github.com/arielmc/vintage-wizard-sub001/internal/share"
	"github.com/arielmc/vintage-wizard-sub001/internal/storage"
)

// GET /api/export/csv?status=sell
func (s *Server) exportCSV(c *gin.Context) {
	filter := storage.ListFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = catalog.ParseStatus(status)
	}

	items, err := s.store.ListItems(filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="inventory.csv"`)
	if err := export.WriteCSV(c.Writer, items); err != nil {
		// Headers are out; all we can do is log through the access log.
		c.Error(err)
	}
}

// POST /api/items/:id/share
func (s *Server) createShareLink(c *gin.Context) {
	if s.signer == nil {
		errorResponse(c, http.StatusServiceUnavailable, errors.New("sharing is not configured"))
		return
	}

	item := s.loadItem(c)
	if item == nil {
		return
	}

	var req struct {
		TTLHours int `json:"ttl_hours"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}
	}

	ttl := share.DefaultLinkTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	expiry := time.Now().Add(ttl)
	token := s.signer.Token(item.ID, expiry)

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"path":       "/share/" + token,
		"expires_at": expiry.UTC(),
	})
}

// GET /share/:token
// The public read-only view: effective listing plus displayable images,
// no internal fields.
func (s *Server) viewShared(c *gin.Context) {
	if s.signer == nil {
		errorResponse(c, http.StatusNotFound, errors.New("sharing is not configured"))
		return
	}

	itemID, err := s.signer.Verify(c.Param("token"))
	if err != nil {
		if errors.Is(err, share.ErrExpired) {
			errorResponse(c, http.StatusGone, err)
		} else {
			errorResponse(c, http.StatusNotFound, errors.New("not found"))
		}
		return
	}

	item, err := s.store.GetItem(itemID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	if item == nil {
		errorResponse(c, http.StatusNotFound, errors.New("not found"))
		return
	}

	l := listing.Effective(item)
	var images []string
	for _, ref := range item.Images {
		switch ref.Kind {
		case catalog.ImageURL:
			images = append(images, ref.URL)
		case catalog.ImageDataURI:
			images = append(images, ref.Data)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"title":       l.Title,
		"description": l.Description,
		"tags":        l.Tags,
		"price":       l.Price,
		"has_price":   l.HasPrice,
		"images":      images,
	})
}

package server

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/imaging"
)

// maxUploadBytes bounds one staged image upload.
const maxUploadBytes = 20 << 20

// POST /api/staging
func (s *Server) beginStaging(c *gin.Context) {
	session := s.staging.Begin()
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID})
}

// GET /api/staging/:id
func (s *Server) getStaging(c *gin.Context) {
	session := s.staging.Get(c.Param("id"))
	if session == nil {
		errorResponse(c, http.StatusNotFound, errors.New("staging session not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State,
		"images":     len(session.Images),
		"created_at": session.CreatedAt,
	})
}

// POST /api/staging/:id/images
// The request body is the raw image bytes; Content-Type gives the format.
func (s *Server) addStagedImage(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	if len(data) == 0 {
		errorResponse(c, http.StatusBadRequest, errors.New("empty upload"))
		return
	}
	if len(data) > maxUploadBytes {
		errorResponse(c, http.StatusRequestEntityTooLarge, errors.New("image too large"))
		return
	}

	index, err := s.staging.AddImage(c.Param("id"), data, c.ContentType())
	if err != nil {
		errorResponse(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"index": index})
}

type confirmStagingRequest struct {
	Title  string `json:"title"`
	Notes  string `json:"notes"`
	Status string `json:"status"`
}

// POST /api/staging/:id/confirm
// Commits the staged images as a new item. Each image is compressed once:
// the compressed copy goes to the image archive so the item stays
// analyzable even when its visible references are remote URLs.
func (s *Server) confirmStaging(c *gin.Context) {
	var req confirmStagingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}
	}

	staged, err := s.staging.Confirm(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, err)
		return
	}

	item := &catalog.InventoryItem{
		Title:  req.Title,
		Notes:  req.Notes,
		Status: catalog.ParseStatus(req.Status),
	}

	type compressed struct {
		data []byte
	}
	var kept []compressed
	for i, ref := range staged {
		data, _, ok := ref.Bytes()
		if !ok {
			continue
		}
		small, err := imaging.Compress(data)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("dropping uncompressible staged image")
			continue
		}
		kept = append(kept, compressed{data: small})
	}
	if len(kept) == 0 {
		errorResponse(c, http.StatusUnprocessableEntity, errors.New("no usable images in staging session"))
		return
	}

	if err := s.store.CreateItem(item); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	// Visible references: object-store URLs when an uploader is
	// configured, inline data URIs otherwise.
	images := make([]catalog.ImageRef, 0, len(kept))
	for i, img := range kept {
		if s.uploader != nil {
			url, err := s.uploader.Upload(c.Request.Context(), item.ID, i, img.data, "image/jpeg")
			if err == nil {
				images = append(images, catalog.ImageRef{Kind: catalog.ImageURL, URL: url, MIME: "image/jpeg"})
				continue
			}
			log.Warn().Err(err).Str("item_id", item.ID).Int("index", i).Msg("upload failed, keeping inline copy")
		}
		images = append(images, catalog.ImageRef{
			Kind: catalog.ImageDataURI,
			Data: catalog.EncodeDataURI(img.data, "image/jpeg"),
			MIME: "image/jpeg",
		})
	}

	if err := s.store.UpdateItem(item.ID, catalog.ItemPatch{Images: &images}); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	item.Images = images

	// Archive copies make re-analysis independent of where the visible
	// references live. Best-effort.
	for i, img := range kept {
		archive := catalog.ArchiveImage{
			ItemID: item.ID,
			Index:  i,
			Base64: base64.StdEncoding.EncodeToString(img.data),
		}
		if err := s.store.PutArchiveImage(archive); err != nil {
			log.Warn().Err(err).Str("item_id", item.ID).Int("index", i).Msg("failed to archive staged image")
		}
	}

	c.JSON(http.StatusCreated, item)
}

// POST /api/staging/:id/stash
func (s *Server) stashStaging(c *gin.Context) {
	if err := s.staging.Stash(c.Param("id")); err != nil {
		errorResponse(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": "stashed"})
}

// POST /api/staging/:id/cancel
func (s *Server) cancelStaging(c *gin.Context) {
	s.staging.Cancel(c.Param("id"))
	c.Status(http.StatusNoContent)
}

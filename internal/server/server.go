package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arielmc/vintage-wizard-sub001/internal/llm"
	"github.com/arielmc/vintage-wizard-sub001/internal/notify"
	"github.com/arielmc/vintage-wizard-sub001/internal/objectstore"
	"github.com/arielmc/vintage-wizard-sub001/internal/pipeline"
	"github.com/arielmc/vintage-wizard-sub001/internal/share"
	"github.com/arielmc/vintage-wizard-sub001/internal/staging"
	"github.com/arielmc/vintage-wizard-sub001/internal/storage"
)

// Server is the HTTP API for the inventory app.
type Server struct {
	store     storage.Store
	pipeline  *pipeline.Service
	generator llm.ListingGenerator
	staging   *staging.Manager

	// Optional collaborators; nil disables the feature.
	uploader objectstore.Uploader
	signer   *share.Signer
	notifier *notify.Notifier
}

type Opts struct {
	Store     storage.Store
	Pipeline  *pipeline.Service
	Generator llm.ListingGenerator
	Staging   *staging.Manager
	Uploader  objectstore.Uploader
	Signer    *share.Signer
	Notifier  *notify.Notifier
}

func New(opts Opts) *Server {
	return &Server{
		store:     opts.Store,
		pipeline:  opts.Pipeline,
		generator: opts.Generator,
		staging:   opts.Staging,
		uploader:  opts.Uploader,
		signer:    opts.Signer,
		notifier:  opts.Notifier,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		items := api.Group("/items")
		{
			items.POST("", s.createItem)
			items.POST("/batch-delete", s.batchDeleteItems)
			items.GET("", s.listItems)
			items.GET("/:id", s.getItem)
			items.PATCH("/:id", s.updateItem)
			items.DELETE("/:id", s.deleteItem)
			items.PUT("/:id/status", s.setStatus)
			items.POST("/:id/images/reorder", s.reorderImages)
			items.POST("/:id/answers", s.recordAnswers)

			items.POST("/:id/analyze", s.analyzeItem)

			items.GET("/:id/listing", s.getListing)
			items.PUT("/:id/listing", s.setListingOverrides)
			items.POST("/:id/listing/reset", s.resetListing)
			items.POST("/:id/listing/generate", s.generateListing)

			items.POST("/:id/share", s.createShareLink)
		}

		api.POST("/analyze/batch", s.analyzeBatch)

		stagingGroup := api.Group("/staging")
		{
			stagingGroup.POST("", s.beginStaging)
			stagingGroup.GET("/:id", s.getStaging)
			stagingGroup.POST("/:id/images", s.addStagedImage)
			stagingGroup.POST("/:id/confirm", s.confirmStaging)
			stagingGroup.POST("/:id/stash", s.stashStaging)
			stagingGroup.POST("/:id/cancel", s.cancelStaging)
		}

		api.GET("/export/csv", s.exportCSV)
	}

	r.GET("/share/:token", s.viewShared)

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return ctx.Err()
}

// requestLogger is a minimal zerolog access log.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func errorResponse(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

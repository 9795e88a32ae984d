package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"

	"github.com/oatesewow/ai-images/internal/backfill"
	"github.com/oatesewow/ai-images/internal/models"
)

// Catalog is the slice of the image catalog the handlers need.
type Catalog interface {
	GetImage(ctx context.Context, imageID int64) (*models.ImageRecord, error)
	ActiveImages(ctx context.Context, dealID int64) ([]models.ImageRecord, error)
}

// Replacer runs hero-image replacements.
type Replacer interface {
	Replace(ctx context.Context, imageID int64) (*models.ReplaceResult, error)
	ReplaceBatch(ctx context.Context, imageIDs []int64, workers int) (*models.BatchSummary, error)
}

// Backfiller repairs incomplete derivative sets.
type Backfiller interface {
	Fill(ctx context.Context, imageID int64) (*backfill.Result, error)
}

// Reporting is the external store tracking images under test. A sync
// failure never fails the replacement itself; it is logged and exposed
// through the reporting_synced flag instead.
type Reporting interface {
	MarkExited(ctx context.Context, originalImageID, newImageID int64) (bool, error)
	MarkExitedBatch(ctx context.Context, mapping map[int64]int64) (int64, error)
}

type Server struct {
	cfg        *models.Config
	router     *gin.Engine
	catalog    Catalog
	replacer   Replacer
	backfiller Backfiller
	reporting  Reporting
	producer   *kafka.Writer
}

func NewServer(cfg *models.Config, cat Catalog, rep Replacer,
	bf Backfiller, rs Reporting, producer *kafka.Writer) *Server {

	r := gin.Default()

	s := &Server{
		cfg:        cfg,
		router:     r,
		catalog:    cat,
		replacer:   rep,
		backfiller: bf,
		reporting:  rs,
		producer:   producer,
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/image/:id", s.handleGetImage)
	r.GET("/deal/:id/images", s.handleDealImages)
	r.POST("/replace/:id", s.handleReplace)
	r.POST("/replace/batch", s.handleReplaceBatch)
	r.POST("/replace/enqueue", s.handleEnqueue)
	r.POST("/backfill/:id", s.handleBackfill)

	return s
}

func (s *Server) Start() error {
	return s.router.Run(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	// No shutdown needed for gin
}

func idParam(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("bad %s id %q", what, c.Param("id"))})
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetImage(c *gin.Context) {
	id, ok := idParam(c, "image")
	if !ok {
		return
	}

	img, err := s.catalog.GetImage(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, img)
}

func (s *Server) handleDealImages(c *gin.Context) {
	dealID, ok := idParam(c, "deal")
	if !ok {
		return
	}

	images, err := s.catalog.ActiveImages(c.Request.Context(), dealID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal_id": dealID, "images": images})
}

func (s *Server) handleReplace(c *gin.Context) {
	id, ok := idParam(c, "image")
	if !ok {
		return
	}

	result, err := s.replacer.Replace(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	synced := false
	if s.reporting != nil {
		var syncErr error
		synced, syncErr = s.reporting.MarkExited(c.Request.Context(), id, result.NewImageID)
		if syncErr != nil {
			log.Printf("reporting sync for image %d failed: %v", id, syncErr)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result, "reporting_synced": synced})
}

type batchRequest struct {
	ImageIDs []int64 `json:"image_ids" binding:"required"`
	Workers  int     `json:"workers"`
}

func (s *Server) handleReplaceBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := s.replacer.ReplaceBatch(c.Request.Context(), req.ImageIDs, req.Workers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	if s.reporting != nil && len(summary.Mapping) > 0 {
		if _, err := s.reporting.MarkExitedBatch(c.Request.Context(), summary.Mapping); err != nil {
			log.Printf("reporting batch sync failed: %v", err)
		} else {
			summary.ReportingSynced = true
		}
	}
	c.JSON(http.StatusOK, summary)
}

// handleEnqueue pushes ids onto the replacement topic; the queue
// consumer picks them up one message per image.
func (s *Server) handleEnqueue(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages := make([]kafka.Message, 0, len(req.ImageIDs))
	for _, id := range req.ImageIDs {
		messages = append(messages, kafka.Message{Value: []byte(strconv.FormatInt(id, 10))})
	}
	if err := s.producer.WriteMessages(c.Request.Context(), messages...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"enqueued": len(messages)})
}

func (s *Server) handleBackfill(c *gin.Context) {
	id, ok := idParam(c, "image")
	if !ok {
		return
	}

	result, err := s.backfiller.Fill(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ProcessMessage handles one queued replacement: the message value is
// the original image id. Used by the queue consumer loop.
func ProcessMessage(ctx context.Context, value string, rep Replacer, rs Reporting) error {
	const op = "server.ProcessMessage"

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: bad message %q: %v", op, value, err)
	}

	result, err := rep.Replace(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rs != nil {
		if _, err := rs.MarkExited(ctx, id, result.NewImageID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

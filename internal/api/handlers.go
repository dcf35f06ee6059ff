package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pwklam/scrape-chinese-social-media/internal/count"
	"github.com/pwklam/scrape-chinese-social-media/internal/extract"
	"github.com/pwklam/scrape-chinese-social-media/internal/ingest"
	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
	"github.com/pwklam/scrape-chinese-social-media/internal/storage"
)

var errIngestDisabled = errors.New("ingest is not configured")

// Ingester runs one ingest pass.
type Ingester interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// Handler serves the normalization API
type Handler struct {
	normalizer *normalize.Normalizer
	store      storage.Storage
	ingester   Ingester
}

// NewHandler creates a handler. ingester may be nil, which disables scrape.
func NewHandler(n *normalize.Normalizer, store storage.Storage, ingester Ingester) *Handler {
	return &Handler{normalizer: n, store: store, ingester: ingester}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

type commentsRequest struct {
	Platform  string   `json:"platform" binding:"required"`
	Text      string   `json:"text"`
	Fragments []string `json:"fragments"`
	Now       string   `json:"now"`
}

// parseNow reads an optional reference instant in the normalizer's zone.
func (h *Handler) parseNow(s string) (time.Time, error) {
	t, err := reltime.ParseInstant(s, h.normalizer.Now().Location())
	if err != nil {
		return time.Time{}, NewError(err, http.StatusBadRequest, "now must be RFC3339 or 2006-01-02 15:04:05")
	}
	return t, nil
}

// NormalizeComments extracts comment records from raw text.
func (h *Handler) NormalizeComments(c *gin.Context) {
	var req commentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(NewError(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	p, err := normalize.ParsePlatform(req.Platform)
	if err != nil {
		c.Error(err)
		return
	}
	now, err := h.parseNow(req.Now)
	if err != nil {
		c.Error(err)
		return
	}

	in := extract.Input{Text: req.Text, Fragments: req.Fragments}
	payload, result, err := h.normalizer.CommentPayload(p, in, now)
	if err != nil {
		c.Error(err)
		return
	}

	records := result.Records
	if records == nil {
		records = []models.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"platform": p,
		"comments": records,
		"skipped":  result.Skipped,
		"degraded": result.Degraded(),
		"payload":  payload,
	})
}

type countsRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

type countValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// ParseCounts expands abbreviated counts. Any unreadable text fails the
// whole request.
func (h *Handler) ParseCounts(c *gin.Context) {
	var req countsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(NewError(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	values := make([]countValue, 0, len(req.Texts))
	for _, text := range req.Texts {
		v, err := count.Parse(text)
		if err != nil {
			c.Error(err)
			return
		}
		values = append(values, countValue{Text: text, Value: v})
	}
	c.JSON(http.StatusOK, gin.H{"values": values})
}

// SavePost normalizes a raw post and stores it.
func (h *Handler) SavePost(c *gin.Context) {
	var raw models.RawPost
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(NewError(err, http.StatusBadRequest, "invalid request body"))
		return
	}
	if strings.TrimSpace(raw.URL) == "" {
		c.Error(NewError(errors.New("url is required"), http.StatusBadRequest, ""))
		return
	}

	post, report, err := h.normalizer.Post(raw, time.Time{})
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	processed, err := h.store.IsProcessed(post.URL)
	if err != nil {
		c.Error(err)
		return
	}
	if processed {
		status = http.StatusOK
	}
	if err := h.store.SavePost(post); err != nil {
		c.Error(err)
		return
	}

	c.JSON(status, gin.H{"post": post, "report": report})
}

// ListPosts returns every stored post.
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.store.GetAllPosts()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(posts),
		"posts": posts,
	})
}

// LookupPost returns the stored post for the url query parameter.
func (h *Handler) LookupPost(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.Error(NewError(errors.New("url query parameter is required"), http.StatusBadRequest, ""))
		return
	}

	post, err := h.store.GetPost(url)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Scrape runs an ingest pass now.
func (h *Handler) Scrape(c *gin.Context) {
	if h.ingester == nil {
		c.Error(NewError(errIngestDisabled, http.StatusServiceUnavailable, ""))
		return
	}

	summary, err := h.ingester.Run(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

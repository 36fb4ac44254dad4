package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"technews/ingest"
	"technews/middleware"
	"technews/model"
)

func (h *Handler) adminStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": middleware.IsAdmin(c, h.adminToken),
		"configured":    h.adminToken != "",
	})
}

func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		stats model.DashboardStats
		err   error
	)
	if stats.TotalArticles, err = h.articles.CountByApproval(ctx, true); err == nil {
		if stats.PendingArticles, err = h.articles.CountByApproval(ctx, false); err == nil {
			if stats.TotalBlogPosts, err = h.blog.CountByPublished(ctx, true); err == nil {
				stats.DraftBlogPosts, err = h.blog.CountByPublished(ctx, false)
			}
		}
	}
	if err != nil {
		respondError(c, err, "", "Failed to load dashboard stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// fetchNews runs ingestion synchronously. The run is detached from the
// request so a client disconnect does not abort it.
func (h *Handler) fetchNews(c *gin.Context) {
	req := model.IngestRequest{Trigger: ingest.TriggerManual, RequestID: uuid.NewString()}
	log.Printf("[INFO] Manual news fetch triggered (request=%s)", req.RequestID)

	result, err := h.ingestion.RunWithResult(context.WithoutCancel(c.Request.Context()), req)
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A news fetch is already in progress"})
	case err != nil:
		log.Printf("[ERROR] Manual news fetch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news", "details": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Fetched %d new articles", result.ArticleCount),
			"count":   result.ArticleCount,
			"runId":   result.RunID,
		})
	}
}

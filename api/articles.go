package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"technews/model"
	"technews/store"
)

const (
	defaultArticleLimit = 20
	maxArticleLimit     = 100
)

// clampLimit parses a limit query value, falling back to def when it is
// missing, zero or not a number and clamping to 1..upper.
func clampLimit(raw string, def, upper int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit == 0 {
		return def
	}
	if limit < 1 {
		return 1
	}
	if limit > upper {
		return upper
	}
	return limit
}

// listArticles returns approved articles. An unknown category, or "All",
// lists every category.
func (h *Handler) listArticles(c *gin.Context) {
	limit := clampLimit(c.Query("limit"), defaultArticleLimit, maxArticleLimit)

	var category model.Category
	if q := model.Category(c.Query("category")); q.Valid() {
		category = q
	}

	articles, err := h.articles.ListApproved(c.Request.Context(), category, limit)
	if err != nil {
		respondError(c, err, "", "Failed to fetch articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles, "count": len(articles)})
}

// featuredArticle returns the newest featured article, or the newest
// approved one when nothing is featured.
func (h *Handler) featuredArticle(c *gin.Context) {
	ctx := c.Request.Context()
	article, err := h.articles.Featured(ctx)
	if errors.Is(err, store.ErrNotFound) {
		var latest []model.Article
		latest, err = h.articles.ListApproved(ctx, "", 1)
		if err == nil && len(latest) == 0 {
			err = store.ErrNotFound
		}
		if err == nil {
			article = latest[0]
		}
	}
	if err != nil {
		respondError(c, err, "No articles available", "Failed to fetch featured article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

func (h *Handler) getArticle(c *gin.Context) {
	id, ok := parseID(c, "article")
	if !ok {
		return
	}
	article, err := h.articles.GetApproved(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Article not found", "Failed to fetch article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

func (h *Handler) pendingArticles(c *gin.Context) {
	articles, err := h.articles.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err, "", "Failed to fetch pending articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

func (h *Handler) approveArticle(c *gin.Context) {
	id, ok := parseID(c, "article")
	if !ok {
		return
	}
	article, err := h.articles.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Article not found", "Failed to approve article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article approved", "article": article})
}

func (h *Handler) toggleFeatured(c *gin.Context) {
	id, ok := parseID(c, "article")
	if !ok {
		return
	}
	article, err := h.articles.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Article not found", "Failed to update article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article featured status updated", "article": article})
}

func (h *Handler) deleteArticle(c *gin.Context) {
	id, ok := parseID(c, "article")
	if !ok {
		return
	}
	if err := h.articles.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Article not found", "Failed to delete article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article deleted"})
}

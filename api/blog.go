package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"technews/model"
	"technews/store"
)

const (
	defaultBlogLimit = 10
	maxBlogLimit     = 100
)

func (h *Handler) listBlogPosts(c *gin.Context) {
	limit := clampLimit(c.Query("limit"), defaultBlogLimit, maxBlogLimit)
	posts, err := h.blog.ListPublished(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "", "Failed to fetch blog posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// getBlogPost hides drafts from the public.
func (h *Handler) getBlogPost(c *gin.Context) {
	id, ok := parseID(c, "blog post")
	if !ok {
		return
	}
	post, err := h.blog.Get(c.Request.Context(), id)
	if err == nil && !post.Published {
		err = store.ErrNotFound
	}
	if err != nil {
		respondError(c, err, "Blog post not found", "Failed to fetch blog post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *Handler) listAllBlogPosts(c *gin.Context) {
	posts, err := h.blog.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "", "Failed to fetch blog posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *Handler) createBlogPost(c *gin.Context) {
	var in model.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	post, err := model.NewBlogPost(in, h.now())
	if err != nil {
		respondError(c, err, "", "Failed to create blog post")
		return
	}
	post, err = h.blog.Create(c.Request.Context(), post)
	if err != nil {
		respondError(c, err, "", "Failed to create blog post")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Blog post created", "post": post})
}

func (h *Handler) updateBlogPost(c *gin.Context) {
	id, ok := parseID(c, "blog post")
	if !ok {
		return
	}
	var in model.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	post, err := h.blog.Get(ctx, id)
	if err == nil {
		post, err = in.Apply(post, h.now())
	}
	if err == nil {
		err = h.blog.Replace(ctx, post)
	}
	if err != nil {
		respondError(c, err, "Blog post not found", "Failed to update blog post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post updated", "post": post})
}

func (h *Handler) deleteBlogPost(c *gin.Context) {
	id, ok := parseID(c, "blog post")
	if !ok {
		return
	}
	if err := h.blog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Blog post not found", "Failed to delete blog post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post deleted"})
}

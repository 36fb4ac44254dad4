package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"technews/middleware"
	"technews/model"
)

const serviceName = "technews"

type ArticleRepository interface {
	ListApproved(ctx context.Context, category model.Category, limit int) ([]model.Article, error)
	ListPending(ctx context.Context) ([]model.Article, error)
	Featured(ctx context.Context) (model.Article, error)
	GetApproved(ctx context.Context, id primitive.ObjectID) (model.Article, error)
	Approve(ctx context.Context, id primitive.ObjectID) (model.Article, error)
	ToggleFeatured(ctx context.Context, id primitive.ObjectID) (model.Article, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByApproval(ctx context.Context, approved bool) (int64, error)
}

type BlogRepository interface {
	ListPublished(ctx context.Context, limit int) ([]model.BlogPost, error)
	ListAll(ctx context.Context) ([]model.BlogPost, error)
	Get(ctx context.Context, id primitive.ObjectID) (model.BlogPost, error)
	Create(ctx context.Context, post model.BlogPost) (model.BlogPost, error)
	Replace(ctx context.Context, post model.BlogPost) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByPublished(ctx context.Context, published bool) (int64, error)
}

// Ingestion runs one ingestion pass on demand.
type Ingestion interface {
	RunWithResult(ctx context.Context, req model.IngestRequest) (model.IngestResult, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Articles    ArticleRepository
	Blog        BlogRepository
	Ingestion   Ingestion
	DB          Pinger
	AdminToken  string
	CORSOrigins []string
}

type Handler struct {
	articles   ArticleRepository
	blog       BlogRepository
	ingestion  Ingestion
	db         Pinger
	adminToken string
	now        func() time.Time
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		articles:   deps.Articles,
		blog:       deps.Blog,
		ingestion:  deps.Ingestion,
		db:         deps.DB,
		adminToken: deps.AdminToken,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.PrometheusMiddleware(serviceName))

	config := cors.DefaultConfig()
	if len(deps.CORSOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = deps.CORSOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	h := NewHandler(deps)
	admin := middleware.AdminAuth(deps.AdminToken)

	r.GET("/", h.healthCheck)
	r.GET("/health", h.healthCheck)
	r.GET("/ready", h.readyCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	articles := r.Group("/api/articles")
	{
		articles.GET("", h.listArticles)
		articles.GET("/featured", h.featuredArticle)
		articles.GET("/pending", admin, h.pendingArticles)
		articles.GET("/:id", h.getArticle)
		articles.PATCH("/:id/approve", admin, h.approveArticle)
		articles.PATCH("/:id/feature", admin, h.toggleFeatured)
		articles.DELETE("/:id", admin, h.deleteArticle)
	}

	blog := r.Group("/api/blog")
	{
		blog.GET("", h.listBlogPosts)
		blog.GET("/admin/all", admin, h.listAllBlogPosts)
		blog.GET("/:id", h.getBlogPost)
		blog.POST("", admin, h.createBlogPost)
		blog.PATCH("/:id", admin, h.updateBlogPost)
		blog.DELETE("/:id", admin, h.deleteBlogPost)
	}

	adminGroup := r.Group("/api/admin")
	{
		adminGroup.GET("/status", h.adminStatus)
		adminGroup.GET("/dashboard", admin, h.dashboard)
		adminGroup.POST("/fetch-news", admin, h.fetchNews)
	}

	return r
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

func (h *Handler) readyCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": serviceName, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"technews/ingest"
	"technews/model"
	"technews/store"
)

const testToken = "test-admin-token"

func init() {
	gin.SetMode(gin.TestMode)
}

type memArticles struct {
	mu       sync.Mutex
	articles []model.Article
	failWith error
}

func (m *memArticles) ListApproved(_ context.Context, category model.Category, limit int) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.Article{}
	for _, a := range m.articles {
		if a.Approved && (category == "" || a.Category == category) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return out[i].PublishedDate.After(out[j].PublishedDate)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memArticles) ListPending(context.Context) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Article{}
	for _, a := range m.articles {
		if !a.Approved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memArticles) Featured(context.Context) (model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Approved && a.Featured {
			return a, nil
		}
	}
	return model.Article{}, store.ErrNotFound
}

func (m *memArticles) GetApproved(_ context.Context, id primitive.ObjectID) (model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id && a.Approved {
			return a, nil
		}
	}
	return model.Article{}, store.ErrNotFound
}

func (m *memArticles) update(id primitive.ObjectID, fn func(*model.Article)) (model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.articles {
		if m.articles[i].ID == id {
			fn(&m.articles[i])
			return m.articles[i], nil
		}
	}
	return model.Article{}, store.ErrNotFound
}

func (m *memArticles) Approve(_ context.Context, id primitive.ObjectID) (model.Article, error) {
	return m.update(id, func(a *model.Article) { a.Approved = true })
}

func (m *memArticles) ToggleFeatured(_ context.Context, id primitive.ObjectID) (model.Article, error) {
	return m.update(id, func(a *model.Article) { a.Featured = !a.Featured })
}

func (m *memArticles) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.articles {
		if a.ID == id {
			m.articles = append(m.articles[:i], m.articles[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memArticles) CountByApproval(_ context.Context, approved bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.articles {
		if a.Approved == approved {
			n++
		}
	}
	return n, nil
}

type memBlog struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]model.BlogPost
}

func newMemBlog(posts ...model.BlogPost) *memBlog {
	m := &memBlog{posts: make(map[primitive.ObjectID]model.BlogPost)}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func (m *memBlog) ListPublished(_ context.Context, limit int) ([]model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BlogPost{}
	for _, p := range m.posts {
		if p.Published && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memBlog) ListAll(context.Context) ([]model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BlogPost{}
	for _, p := range m.posts {
		out = append(out, p)
	}
	return out, nil
}

func (m *memBlog) Get(_ context.Context, id primitive.ObjectID) (model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return model.BlogPost{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memBlog) Create(_ context.Context, post model.BlogPost) (model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = primitive.NewObjectID()
	m.posts[post.ID] = post
	return post, nil
}

func (m *memBlog) Replace(_ context.Context, post model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return store.ErrNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *memBlog) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memBlog) CountByPublished(_ context.Context, published bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.posts {
		if p.Published == published {
			n++
		}
	}
	return n, nil
}

type fakeIngestion struct {
	count int
	err   error
	req   model.IngestRequest
}

func (f *fakeIngestion) RunWithResult(_ context.Context, req model.IngestRequest) (model.IngestResult, error) {
	f.req = req
	return model.IngestResult{RunID: "run-1", Trigger: req.Trigger, ArticleCount: f.count, Success: f.err == nil}, f.err
}

type testServer struct {
	router    *gin.Engine
	articles  *memArticles
	blog      *memBlog
	ingestion *fakeIngestion
}

func newTestServer(t *testing.T, articles []model.Article, posts ...model.BlogPost) *testServer {
	t.Helper()
	ts := &testServer{
		articles:  &memArticles{articles: articles},
		blog:      newMemBlog(posts...),
		ingestion: &fakeIngestion{},
	}
	ts.router = NewRouter(Deps{
		Articles:   ts.articles,
		Blog:       ts.blog,
		Ingestion:  ts.ingestion,
		AdminToken: testToken,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func article(title string, cat model.Category, approved, featured bool, age time.Duration) model.Article {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return model.Article{
		ID:            primitive.NewObjectID(),
		Title:         title,
		SourceURL:     "https://example.com/" + title,
		Category:      cat,
		Approved:      approved,
		Featured:      featured,
		PublishedDate: base.Add(-age),
	}
}

func TestListArticles(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, []model.Article{
		article("old-ai", model.CategoryAI, true, false, 3*time.Hour),
		article("new-ai", model.CategoryAI, true, false, time.Hour),
		article("featured-hw", model.CategoryHardware, true, true, 5*time.Hour),
		article("pending", model.CategoryAI, false, false, 0),
	})

	var resp struct {
		Articles []model.Article `json:"articles"`
		Count    int             `json:"count"`
	}

	rec := ts.do(t, http.MethodGet, "/api/articles", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decode(t, rec, &resp)
	if resp.Count != 3 {
		t.Fatalf("expected 3 approved articles, got %d", resp.Count)
	}
	order := []string{"featured-hw", "new-ai", "old-ai"}
	for i, title := range order {
		if resp.Articles[i].Title != title {
			t.Fatalf("position %d: expected %s, got %s", i, title, resp.Articles[i].Title)
		}
	}

	decode(t, ts.do(t, http.MethodGet, "/api/articles?category=AI&limit=1", nil, false), &resp)
	if resp.Count != 1 || resp.Articles[0].Title != "new-ai" {
		t.Fatalf("unexpected filtered result: %+v", resp.Articles)
	}

	decode(t, ts.do(t, http.MethodGet, "/api/articles?category=Gardening", nil, false), &resp)
	if resp.Count != 3 {
		t.Fatalf("unknown category should be ignored, got %d articles", resp.Count)
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	cases := map[string]int{"": 20, "abc": 20, "0": 20, "-4": 1, "5": 5, "100": 100, "500": 100}
	for raw, want := range cases {
		if got := clampLimit(raw, defaultArticleLimit, maxArticleLimit); got != want {
			t.Fatalf("clampLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestGetArticle(t *testing.T) {
	t.Parallel()

	approved := article("a", model.CategoryAI, true, false, 0)
	pending := article("p", model.CategoryAI, false, false, 0)
	ts := newTestServer(t, []model.Article{approved, pending})

	if rec := ts.do(t, http.MethodGet, "/api/articles/"+approved.ID.Hex(), nil, false); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/articles/"+pending.ID.Hex(), nil, false); rec.Code != http.StatusNotFound {
		t.Fatalf("pending article must not be public, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/articles/not-an-id", nil, false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestFeaturedFallsBackToLatest(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, []model.Article{
		article("older", model.CategoryAI, true, false, 2*time.Hour),
		article("latest", model.CategoryAI, true, false, time.Hour),
	})

	var resp struct {
		Article model.Article `json:"article"`
	}
	rec := ts.do(t, http.MethodGet, "/api/articles/featured", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decode(t, rec, &resp)
	if resp.Article.Title != "latest" {
		t.Fatalf("expected latest approved article, got %q", resp.Article.Title)
	}

	empty := newTestServer(t, nil)
	if rec := empty.do(t, http.MethodGet, "/api/articles/featured", nil, false); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without articles, got %d", rec.Code)
	}
}

func TestArticleModeration(t *testing.T) {
	t.Parallel()

	a := article("candidate", model.CategorySoftware, false, false, 0)
	ts := newTestServer(t, []model.Article{a})
	base := "/api/articles/" + a.ID.Hex()

	if rec := ts.do(t, http.MethodPatch, base+"/approve", nil, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	var pending struct {
		Articles []model.Article `json:"articles"`
	}
	decode(t, ts.do(t, http.MethodGet, "/api/articles/pending", nil, true), &pending)
	if len(pending.Articles) != 1 {
		t.Fatalf("expected 1 pending article, got %d", len(pending.Articles))
	}

	var resp struct {
		Article model.Article `json:"article"`
	}
	decode(t, ts.do(t, http.MethodPatch, base+"/approve", nil, true), &resp)
	if !resp.Article.Approved {
		t.Fatal("expected article to be approved")
	}

	decode(t, ts.do(t, http.MethodPatch, base+"/feature", nil, true), &resp)
	if !resp.Article.Featured {
		t.Fatal("expected article to be featured")
	}
	decode(t, ts.do(t, http.MethodPatch, base+"/feature", nil, true), &resp)
	if resp.Article.Featured {
		t.Fatal("expected second toggle to unfeature the article")
	}

	if rec := ts.do(t, http.MethodDelete, base, nil, true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodDelete, base, nil, true); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPatch, "/api/articles/xyz/approve", nil, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestListArticlesStoreFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.articles.failWith = errors.New("connection reset")
	if rec := ts.do(t, http.MethodGet, "/api/articles", nil, false); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestBlogLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	var created struct {
		Post model.BlogPost `json:"post"`
	}
	rec := ts.do(t, http.MethodPost, "/api/blog", map[string]interface{}{
		"title":     "Why local LLMs matter",
		"content":   "Long form content.",
		"excerpt":   "Short excerpt.",
		"category":  "AI",
		"tags":      []string{"llm", " "},
		"published": false,
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &created)
	if created.Post.Author != "Admin" || len(created.Post.Tags) != 1 {
		t.Fatalf("unexpected defaults: %+v", created.Post)
	}
	path := "/api/blog/" + created.Post.ID.Hex()

	if rec := ts.do(t, http.MethodGet, path, nil, false); rec.Code != http.StatusNotFound {
		t.Fatalf("draft must not be public, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"published": true}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := ts.do(t, http.MethodGet, path, nil, false); rec.Code != http.StatusOK {
		t.Fatalf("published post should be public, got %d", rec.Code)
	}

	var list struct {
		Posts []model.BlogPost `json:"posts"`
	}
	decode(t, ts.do(t, http.MethodGet, "/api/blog", nil, false), &list)
	if len(list.Posts) != 1 {
		t.Fatalf("expected 1 published post, got %d", len(list.Posts))
	}

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"category": "Gossip"}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid category, got %d", rec.Code)
	}

	if rec := ts.do(t, http.MethodDelete, path, nil, true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	decode(t, ts.do(t, http.MethodGet, "/api/blog/admin/all", nil, true), &list)
	if len(list.Posts) != 0 {
		t.Fatalf("expected no posts after delete, got %d", len(list.Posts))
	}
}

func TestCreateBlogPostValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodPost, "/api/blog", map[string]interface{}{"title": "No content"}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/blog", bytes.NewBufferString("{broken"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	raw := httptest.NewRecorder()
	ts.router.ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", raw.Code)
	}
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t,
		[]model.Article{
			article("a", model.CategoryAI, true, false, 0),
			article("b", model.CategoryAI, false, false, 0),
			article("c", model.CategoryAI, false, false, 0),
		},
		model.BlogPost{ID: primitive.NewObjectID(), Published: true},
		model.BlogPost{ID: primitive.NewObjectID(), Published: false},
	)

	var resp struct {
		Stats model.DashboardStats `json:"stats"`
	}
	decode(t, ts.do(t, http.MethodGet, "/api/admin/dashboard", nil, true), &resp)
	want := model.DashboardStats{TotalArticles: 1, PendingArticles: 2, TotalBlogPosts: 1, DraftBlogPosts: 1}
	if resp.Stats != want {
		t.Fatalf("expected %+v, got %+v", want, resp.Stats)
	}
}

func TestAdminStatus(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	decode(t, ts.do(t, http.MethodGet, "/api/admin/status", nil, false), &resp)
	if resp.Authenticated {
		t.Fatal("expected unauthenticated without token")
	}
	decode(t, ts.do(t, http.MethodGet, "/api/admin/status", nil, true), &resp)
	if !resp.Authenticated {
		t.Fatal("expected authenticated with token")
	}
}

func TestFetchNews(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusOK},
		{"overlap", ingest.ErrRunInProgress, http.StatusConflict},
		{"store down", errors.New("no reachable servers"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, nil)
			ts.ingestion.count = 4
			ts.ingestion.err = tt.err

			rec := ts.do(t, http.MethodPost, "/api/admin/fetch-news", nil, true)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if ts.ingestion.req.Trigger != ingest.TriggerManual {
				t.Fatalf("expected manual trigger, got %q", ts.ingestion.req.Trigger)
			}
			if tt.err == nil {
				var resp struct {
					Message string `json:"message"`
					Count   int    `json:"count"`
				}
				decode(t, rec, &resp)
				if resp.Count != 4 || resp.Message == "" {
					t.Fatalf("unexpected response: %+v", resp)
				}
			}
		})
	}
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	t.Parallel()

	r := NewRouter(Deps{Articles: &memArticles{}, Blog: newMemBlog(), Ingestion: &fakeIngestion{}})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/fetch-news", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	down := errors.New("server selection timeout")
	r := NewRouter(Deps{
		Articles:  &memArticles{},
		Blog:      newMemBlog(),
		Ingestion: &fakeIngestion{},
		DB:        PingFunc(func(context.Context) error { return down }),
	})

	for path, want := range map[string]int{"/health": http.StatusOK, "/ready": http.StatusServiceUnavailable, "/metrics": http.StatusOK} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

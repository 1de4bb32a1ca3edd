package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pranavgnr/Pranav-blog/internal/auth"
	"github.com/pranavgnr/Pranav-blog/internal/blog"
	"github.com/pranavgnr/Pranav-blog/internal/config"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "s3cret"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, *blog.Store) {
	t.Helper()
	dir := t.TempDir()

	backend, err := blog.NewFileStore(filepath.Join(dir, "posts.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	store := blog.NewStore(backend, blog.StoreConfig{DefaultAuthor: "Tester", Logger: quietLogger()})

	siteStore, err := blog.NewSiteStore(filepath.Join(dir, "site.json"))
	if err != nil {
		t.Fatalf("NewSiteStore: %v", err)
	}
	sessions, err := auth.NewManager(testEmail, testPassword, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := &config.Config{
		SiteBaseURL:        "http://blog.test",
		DefaultAuthor:      "Tester",
		CorsAllowedOrigins: []string{"*"},
	}
	srv := NewServer(cfg, store, siteStore, sessions)
	srv.Logger = quietLogger()
	t.Cleanup(srv.Close)
	return srv, store
}

func mustSave(t *testing.T, store *blog.Store, input blog.PostInput) blog.Post {
	t.Helper()
	post, err := store.Save(context.Background(), input)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return post
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexListsPosts(t *testing.T) {
	srv, store := newTestServer(t)
	mustSave(t, store, blog.PostInput{Title: "Hello Go", Content: "Body text", Tags: []string{"go"}})
	mustSave(t, store, blog.PostInput{Title: "Cooking notes", Content: "Pasta"})

	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Hello Go") || !strings.Contains(body, "Cooking notes") {
		t.Fatalf("index is missing a post title")
	}

	rec = do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/?q=golang+nope", nil))
	if strings.Contains(rec.Body.String(), "Hello Go") {
		t.Fatalf("search should have filtered out every post")
	}
	rec = do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/?q=GO", nil))
	if !strings.Contains(rec.Body.String(), "Hello Go") {
		t.Fatalf("search by tag should match case-insensitively")
	}
}

func TestIndexPagination(t *testing.T) {
	srv, store := newTestServer(t)
	for i := 0; i < IndexPageSize+1; i++ {
		mustSave(t, store, blog.PostInput{Title: "Post", Content: "Body"})
	}

	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/page/2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Page 2 of 2") {
		t.Fatalf("page 2 should report its position")
	}

	for _, target := range []string{"/page/3", "/page/1000000000000000000", "/?page=9223372036854775807"} {
		rec = do(srv.Handler(), httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", target, rec.Code)
		}
	}
}

func TestPostDetail(t *testing.T) {
	srv, store := newTestServer(t)
	post := mustSave(t, store, blog.PostInput{Title: "Markdown", Content: "# Heading\n\nSome **bold** words"})

	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/posts/"+post.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Fatalf("content was not rendered as markdown")
	}
	if !strings.Contains(body, post.ReadTime) {
		t.Fatalf("read time %q missing from page", post.ReadTime)
	}

	rec = do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/posts/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing post status = %d, want 404", rec.Code)
	}
}

func TestFeedAndSitemap(t *testing.T) {
	srv, store := newTestServer(t)
	post := mustSave(t, store, blog.PostInput{Title: "Feed me", Content: "Body"})

	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/feed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("feed status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http://blog.test/posts/"+post.ID) {
		t.Fatalf("feed is missing the post link")
	}

	rec = do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sitemap status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<loc>http://blog.test/posts/"+post.ID+"</loc>") {
		t.Fatalf("sitemap is missing the post url")
	}
}

func adminLogin(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {testEmail}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(h, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("login did not set a session cookie")
	return nil
}

func TestAdminRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/admin/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	form := url.Values{"email": {testEmail}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(srv.Handler(), req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdminCreatePost(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()
	cookie := adminLogin(t, h)

	session, err := srv.Sessions.Parse(cookie.Value)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	form := url.Values{
		"title":   {"From the form"},
		"content": {"Written in the admin"},
		"tags":    {"go, , web"},
	}

	// Missing CSRF token.
	req := httptest.NewRequest(http.MethodPost, "/admin/posts/new", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	if rec := do(h, req); rec.Code != http.StatusForbidden {
		t.Fatalf("status without csrf = %d, want 403", rec.Code)
	}

	form.Set("csrf_token", session.CSRFToken)
	req = httptest.NewRequest(http.MethodPost, "/admin/posts/new", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	if rec := do(h, req); rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	posts := store.ListAll(context.Background())
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	got := posts[0]
	if got.Title != "From the form" || got.Author != "Tester" {
		t.Fatalf("unexpected post %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "web" {
		t.Fatalf("tags = %v", got.Tags)
	}

	// Blank title re-renders the form.
	form.Set("title", " ")
	req = httptest.NewRequest(http.MethodPost, "/admin/posts/new", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	if rec := do(h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("status for blank title = %d, want 400", rec.Code)
	}
}

func apiToken(t *testing.T, h http.Handler) string {
	t.Helper()
	body := strings.NewReader(`{"email":"` + testEmail + `","password":"` + testPassword + `"}`)
	rec := do(h, httptest.NewRequest(http.MethodPost, "/api/login", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("api login status = %d", rec.Code)
	}
	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func TestAPIPostLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"x","content":"y"}`))
	if rec := do(h, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create = %d, want 401", rec.Code)
	}

	token := apiToken(t, h)
	authed := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return do(h, req)
	}

	rec := authed(http.MethodPost, "/api/posts", `{"title":"API post","content":"Hello from the API","tags":["api"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created blog.Post
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.ReadTime != "1 min read" || created.Excerpt != "Hello from the API" {
		t.Fatalf("unexpected created post %+v", created)
	}

	rec = authed(http.MethodPost, "/api/posts", `{"title":"","content":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create status = %d, want 400", rec.Code)
	}

	rec = authed(http.MethodPut, "/api/posts/"+created.ID, `{"title":"API post v2","content":"Changed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	var updated blog.Post
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.ID != created.ID || updated.UpdatedAt == nil || !updated.PublishedAt.Equal(created.PublishedAt) {
		t.Fatalf("unexpected updated post %+v", updated)
	}

	rec = authed(http.MethodPut, "/api/posts/missing", `{"title":"a","content":"b"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update of missing post = %d, want 404", rec.Code)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	var list PostListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || list.Data[0].Title != "API post v2" {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = authed(http.MethodDelete, "/api/posts/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/posts/"+created.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", rec.Code)
	}
}

type brokenStore struct{}

func (brokenStore) ListAll(context.Context) []blog.Post { return []blog.Post{} }

func (brokenStore) GetByID(context.Context, string) (blog.Post, error) {
	return blog.Post{}, &blog.PersistenceError{Op: "get post", Err: errors.New("disk on fire")}
}

func (brokenStore) Save(context.Context, blog.PostInput) (blog.Post, error) {
	return blog.Post{}, &blog.PersistenceError{Op: "create post", Err: errors.New("disk on fire")}
}

func (brokenStore) Delete(context.Context, string) error {
	return &blog.PersistenceError{Op: "delete post", Err: errors.New("disk on fire")}
}

func TestPersistenceFailuresMapTo503(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Store = brokenStore{}
	h := srv.Handler()

	if rec := do(h, httptest.NewRequest(http.MethodGet, "/api/posts/1", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("api get = %d, want 503", rec.Code)
	}
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/posts/1", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("post page = %d, want 503", rec.Code)
	}
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Fatalf("index should degrade to an empty list, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
}

func TestArchiveGroupsByMonth(t *testing.T) {
	srv, store := newTestServer(t)
	mustSave(t, store, blog.PostInput{Title: "Archived", Content: "Body"})

	rec := do(srv.Handler(), httptest.NewRequest(http.MethodGet, "/archive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	month := time.Now().Format("2006-01")
	if !strings.Contains(rec.Body.String(), month) || !strings.Contains(rec.Body.String(), "Archived") {
		t.Fatalf("archive is missing %s or the post", month)
	}
}

func TestAdminSettingsSave(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := adminLogin(t, h)
	session, err := srv.Sessions.Parse(cookie.Value)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	form := url.Values{
		"csrf_token": {session.CSRFToken},
		"title":      {"New Title"},
		"tagline":    {"Fresh"},
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	if rec := do(h, req); rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := srv.SiteStore.Get().Title; got != "New Title" {
		t.Fatalf("Title = %q", got)
	}

	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "New Title") {
		t.Fatalf("index does not show the new title")
	}
}

package web

import (
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/pranavgnr/Pranav-blog/internal/auth"
	"github.com/pranavgnr/Pranav-blog/internal/blog"
	"github.com/pranavgnr/Pranav-blog/internal/config"
	"github.com/pranavgnr/Pranav-blog/internal/middleware"
)

// IndexPageSize is how many posts the home page shows per page.
const IndexPageSize = 10

type Server struct {
	Config    *config.Config
	Store     blog.ContentStore
	SiteStore *blog.SiteStore
	Sessions  *auth.Manager
	Logger    *slog.Logger

	loginLimiter *middleware.RateLimiter
	markdown     goldmark.Markdown
	now          func() time.Time

	templateMu    sync.Mutex
	templateCache map[string]*template.Template
}

func NewServer(cfg *config.Config, store blog.ContentStore, siteStore *blog.SiteStore, sessions *auth.Manager) *Server {
	return &Server{
		Config:       cfg,
		Store:        store,
		SiteStore:    siteStore,
		Sessions:     sessions,
		Logger:       slog.Default(),
		loginLimiter: middleware.NewRateLimiter(5, time.Minute),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		now:           time.Now,
		templateCache: make(map[string]*template.Template),
	}
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler serves the public site, the admin area under /admin and the JSON
// API under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.Health)
	s.registerPublic(r)
	r.Mount("/admin", s.AdminRoutes())
	r.Mount("/api", s.APIRoutes())
	return r
}

// PublicRoutes serves only the read-only pages; the static generator crawls it.
func (s *Server) PublicRoutes() http.Handler {
	r := chi.NewRouter()
	s.registerPublic(r)
	return r
}

func (s *Server) registerPublic(r chi.Router) {
	r.Get("/", s.Index)
	r.Get("/page/{page}", s.Index)
	r.Get("/posts/{id}", s.PostDetail)
	r.Get("/archive", s.ArchivePage)
	r.Get("/feed", s.RSS)
	r.Get("/sitemap.xml", s.Sitemap)
	r.NotFound(s.NotFound)
}

func (s *Server) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/login", s.AdminLogin)
	r.With(s.loginLimiter.Limit).Post("/login", s.AdminLoginSubmit)
	r.Post("/logout", s.AdminLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.adminAuth)
		r.Get("/", s.AdminDashboard)
		r.Get("/posts/new", s.AdminPostNew)
		r.Post("/posts/new", s.AdminPostCreate)
		r.Get("/posts/{id}/edit", s.AdminPostEdit)
		r.Post("/posts/{id}/edit", s.AdminPostUpdate)
		r.Post("/posts/{id}/delete", s.AdminPostDelete)
		r.Get("/settings", s.AdminSettings)
		r.Post("/settings", s.AdminSettingsSave)
	})
	return r
}

func (s *Server) APIRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.Config.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	r.With(s.loginLimiter.Limit).Post("/login", s.APILogin)
	r.Get("/posts", s.APIListPosts)
	r.Get("/posts/{id}", s.APIGetPost)
	r.Get("/stats", s.APIStats)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Post("/posts", s.APISavePost)
		r.Put("/posts/{id}", s.APISavePost)
		r.Delete("/posts/{id}", s.APIDeletePost)
	})
	return r
}

package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pranavgnr/Pranav-blog/internal/auth"
	"github.com/pranavgnr/Pranav-blog/internal/blog"
)

const sessionCookieName = "admin_session"

func (s *Server) currentSession(r *http.Request) (auth.Session, bool) {
	if session, ok := auth.FromContext(r.Context()); ok {
		return session, true
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.Session{}, false
	}
	session, err := s.Sessions.Parse(cookie.Value)
	if err != nil {
		return auth.Session{}, false
	}
	return session, true
}

// adminAuth redirects visitors without a session to the login page and checks
// the CSRF token on state-changing requests.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.currentSession(r)
		if !ok {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
			if token := r.FormValue("csrf_token"); token == "" || token != session.CSRFToken {
				http.Error(w, "CSRF token mismatch", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		return
	}
	data := s.baseData(r)
	data["PageTitle"] = "Admin Login"
	s.render(w, "admin_login.html", data)
}

func (s *Server) AdminLoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	session, token, err := s.Sessions.Login(email, password)
	if err != nil {
		data := s.baseData(r)
		data["PageTitle"] = "Admin Login"
		data["LoginEmail"] = email
		data["Error"] = "Invalid credentials."
		s.renderStatus(w, http.StatusUnauthorized, "admin_login.html", data)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (s *Server) AdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (s *Server) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	posts := s.Store.ListAll(r.Context())

	data := s.baseData(r)
	data["PageTitle"] = "Dashboard"
	data["Posts"] = posts
	data["Stats"] = blog.ComputeStats(posts, s.now())
	s.render(w, "admin_list.html", data)
}

func (s *Server) AdminPostNew(w http.ResponseWriter, r *http.Request) {
	s.renderPostForm(w, r, http.StatusOK, "New Post", "/admin/posts/new", blog.PostInput{}, "")
}

func (s *Server) AdminPostCreate(w http.ResponseWriter, r *http.Request) {
	input := parsePostForm(r)
	if _, err := s.Store.Save(r.Context(), input); err != nil {
		s.renderSaveError(w, r, "New Post", "/admin/posts/new", input, err)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (s *Server) AdminPostEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.renderLookupError(w, r, err)
		return
	}
	s.renderPostForm(w, r, http.StatusOK, "Edit Post", "/admin/posts/"+id+"/edit", post.Input(), "")
}

func (s *Server) AdminPostUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	input := parsePostForm(r)
	input.ID = id
	if _, err := s.Store.Save(r.Context(), input); err != nil {
		s.renderSaveError(w, r, "Edit Post", "/admin/posts/"+id+"/edit", input, err)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (s *Server) AdminPostDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderMessage(w, r, http.StatusServiceUnavailable, "Delete failed", "The post could not be deleted. Please try again.")
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (s *Server) renderSaveError(w http.ResponseWriter, r *http.Request, pageTitle, action string, input blog.PostInput, err error) {
	var ve *blog.ValidationError
	if errors.As(err, &ve) {
		s.renderPostForm(w, r, http.StatusBadRequest, pageTitle, action, input, "Please fill in the "+ve.Field+".")
		return
	}
	s.renderPostForm(w, r, http.StatusServiceUnavailable, pageTitle, action, input, "The post could not be saved. Please try again.")
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, pageTitle, action string, input blog.PostInput, msg string) {
	data := s.baseData(r)
	data["PageTitle"] = pageTitle
	data["Post"] = input
	data["TagsText"] = strings.Join(input.Tags, ", ")
	data["Action"] = action
	if msg != "" {
		data["Error"] = msg
	}
	if input.Content != "" {
		data["Preview"] = template.HTML(s.renderMarkdown(input.Content))
	}
	s.renderStatus(w, status, "admin_form.html", data)
}

func parsePostForm(r *http.Request) blog.PostInput {
	_ = r.ParseForm()
	return blog.PostInput{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: r.FormValue("content"),
		Excerpt: strings.TrimSpace(r.FormValue("excerpt")),
		Tags:    splitComma(r.FormValue("tags")),
		Author:  strings.TrimSpace(r.FormValue("author")),
	}
}

func splitComma(input string) []string {
	parts := strings.Split(input, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		result = append(result, part)
	}
	return result
}

func (s *Server) AdminSettings(w http.ResponseWriter, r *http.Request) {
	data := s.baseData(r)
	data["PageTitle"] = "Site Settings"
	data["Profile"] = s.SiteStore.Get()
	s.render(w, "admin_settings.html", data)
}

func (s *Server) AdminSettingsSave(w http.ResponseWriter, r *http.Request) {
	profile := blog.SiteProfile{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Tagline: strings.TrimSpace(r.FormValue("tagline")),
		Intro:   strings.TrimSpace(r.FormValue("intro")),
		Email:   strings.TrimSpace(r.FormValue("email")),
	}
	if profile.Title == "" {
		data := s.baseData(r)
		data["PageTitle"] = "Site Settings"
		data["Profile"] = profile
		data["Error"] = "Please fill in the title."
		s.renderStatus(w, http.StatusBadRequest, "admin_settings.html", data)
		return
	}
	if err := s.SiteStore.Update(profile); err != nil {
		s.Logger.Error("save site settings failed", "err", err)
		data := s.baseData(r)
		data["PageTitle"] = "Site Settings"
		data["Profile"] = profile
		data["Error"] = "The settings could not be saved."
		s.renderStatus(w, http.StatusServiceUnavailable, "admin_settings.html", data)
		return
	}
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

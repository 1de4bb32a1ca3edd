package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	},
	"isoDate": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"joinTags": func(tags []string) string {
		return strings.Join(tags, ", ")
	},
	"firstTags": func(tags []string, n int) []string {
		if len(tags) > n {
			return tags[:n]
		}
		return tags
	},
}

func (s *Server) render(w http.ResponseWriter, page string, data map[string]any) {
	s.renderStatus(w, http.StatusOK, page, data)
}

// renderStatus executes page into a buffer first so a template error can still
// produce a clean 500.
func (s *Server) renderStatus(w http.ResponseWriter, status int, page string, data map[string]any) {
	t, err := s.templateFor(page)
	if err != nil {
		s.Logger.Error("template parse failed", "page", page, "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.Logger.Error("template execution failed", "page", page, "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) templateFor(page string) (*template.Template, error) {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()
	if t, ok := s.templateCache[page]; ok {
		return t, nil
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/"+page)
	if err != nil {
		return nil, err
	}
	s.templateCache[page] = t
	return t, nil
}

func (s *Server) renderMarkdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	var b strings.Builder
	if err := s.markdown.Convert([]byte(input), &b); err != nil {
		return template.HTMLEscapeString(input)
	}
	return b.String()
}

func (s *Server) baseData(r *http.Request) map[string]any {
	profile := s.SiteStore.Get()
	data := map[string]any{
		"SiteTitle":   profile.Title,
		"Title":       profile.Title,
		"Tagline":     profile.Tagline,
		"Intro":       profile.Intro,
		"Email":       profile.Email,
		"Description": profile.Tagline,
		"SiteURL":     s.Config.SiteBaseURL,
		"CurrentPath": r.URL.Path,
	}
	if session, ok := s.currentSession(r); ok {
		data["LoggedIn"] = true
		data["CSRFToken"] = session.CSRFToken
	}
	return data
}

// renderMessage shows a plain status page such as "not found" or "try again".
func (s *Server) renderMessage(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	data := s.baseData(r)
	data["Title"] = heading + " - " + data["SiteTitle"].(string)
	data["Heading"] = heading
	data["Message"] = message
	s.renderStatus(w, status, "message.html", data)
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.renderMessage(w, r, http.StatusNotFound, "Lost in space", "The page you were looking for does not exist.")
}

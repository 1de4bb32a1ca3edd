package web

import (
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pranavgnr/Pranav-blog/internal/blog"
)

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	page := 1
	raw := chi.URLParam(r, "page")
	if raw == "" {
		raw = r.URL.Query().Get("page")
	}
	if p, err := strconv.Atoi(raw); err == nil && p > 0 {
		page = p
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	posts := blog.Search(s.Store.ListAll(r.Context()), query)

	total := len(posts)
	totalPages := (total + IndexPageSize - 1) / IndexPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		s.NotFound(w, r)
		return
	}
	start := (page - 1) * IndexPageSize
	end := start + IndexPageSize
	if end > total {
		end = total
	}

	data := s.baseData(r)
	if data["Intro"] != "" {
		data["Description"] = data["Intro"]
	}
	data["Posts"] = posts[start:end]
	data["Query"] = query
	data["Total"] = total
	data["CurrentPage"] = page
	data["TotalPages"] = totalPages
	data["HasPrev"] = page > 1
	data["HasNext"] = page < totalPages
	data["PrevPage"] = page - 1
	data["NextPage"] = page + 1

	s.render(w, "index.html", data)
}

func (s *Server) PostDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.renderLookupError(w, r, err)
		return
	}

	data := s.baseData(r)
	data["Post"] = post
	data["PostHTML"] = template.HTML(s.renderMarkdown(post.Content))
	data["RelatedPosts"] = blog.Related(s.Store.ListAll(r.Context()), post.ID, 3)

	data["Title"] = post.Title + " - " + data["SiteTitle"].(string)
	if post.Excerpt != "" {
		data["Description"] = post.Excerpt
	}
	if len(post.Tags) > 0 {
		data["Keywords"] = strings.Join(post.Tags, ", ")
	}
	data["IsPost"] = true

	s.render(w, "post.html", data)
}

// ArchivePage groups posts by publication month, newest month first.
func (s *Server) ArchivePage(w http.ResponseWriter, r *http.Request) {
	type archiveGroup struct {
		Title string
		Posts []blog.Post
	}
	grouped := map[string][]blog.Post{}
	for _, post := range s.Store.ListAll(r.Context()) {
		key := post.PublishedAt.Format("2006-01")
		grouped[key] = append(grouped[key], post)
	}

	groups := make([]archiveGroup, 0, len(grouped))
	for key, posts := range grouped {
		groups = append(groups, archiveGroup{Title: key, Posts: posts})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Title > groups[j].Title
	})

	data := s.baseData(r)
	data["Title"] = "Archive - " + data["SiteTitle"].(string)
	data["Archives"] = groups
	s.render(w, "archive.html", data)
}

// renderLookupError tells a missing post apart from an unreachable backend.
func (s *Server) renderLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, blog.ErrNotFound) {
		s.renderMessage(w, r, http.StatusNotFound, "Blog post not found", "This post drifted out of orbit or never existed.")
		return
	}
	s.renderMessage(w, r, http.StatusServiceUnavailable, "Something went wrong", "We could not load this post right now. Please try again.")
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pranavgnr/Pranav-blog/internal/auth"
	"github.com/pranavgnr/Pranav-blog/internal/blog"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PostListResponse struct {
	Data  []blog.Post `json:"data"`
	Total int         `json:"total"`
}

// bearerAuth requires an "Authorization: Bearer <token>" header issued by
// /api/login.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		session, err := s.Sessions.Parse(strings.TrimSpace(header[7:]))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) APILogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}
	session, token, err := s.Sessions.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: session.ExpiresAt})
}

// APIListPosts returns posts newest first. It accepts q, limit and offset.
func (s *Server) APIListPosts(w http.ResponseWriter, r *http.Request) {
	posts := blog.Search(s.Store.ListAll(r.Context()), r.URL.Query().Get("q"))
	total := len(posts)

	offset := parsePositiveInt(r.URL.Query().Get("offset"), 0)
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 0)
	if offset > total {
		offset = total
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	respondJSON(w, http.StatusOK, PostListResponse{Data: posts, Total: total})
}

func (s *Server) APIGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (s *Server) APIStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, blog.ComputeStats(s.Store.ListAll(r.Context()), s.now()))
}

// APISavePost creates a post on POST and updates the post named in the path
// on PUT.
func (s *Server) APISavePost(w http.ResponseWriter, r *http.Request) {
	var input blog.PostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		if _, err := s.Store.GetByID(r.Context(), id); err != nil {
			respondStoreError(w, err)
			return
		}
		input.ID = id
		status = http.StatusOK
	}

	post, err := s.Store.Save(r.Context(), input)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, status, post)
}

func (s *Server) APIDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondStoreError(w http.ResponseWriter, err error) {
	var ve *blog.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, blog.ErrNotFound):
		respondError(w, http.StatusNotFound, "post not found")
	default:
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
	}
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

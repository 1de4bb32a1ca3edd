package web

import (
	"net/http"

	"github.com/gorilla/feeds"
)

// FeedSize caps how many recent posts the RSS feed carries.
const FeedSize = 20

func (s *Server) RSS(w http.ResponseWriter, r *http.Request) {
	profile := s.SiteStore.Get()
	siteURL := s.Config.SiteBaseURL

	feed := &feeds.Feed{
		Title:       profile.Title,
		Link:        &feeds.Link{Href: siteURL},
		Description: profile.Intro,
		Author:      &feeds.Author{Name: s.Config.DefaultAuthor, Email: profile.Email},
		Created:     s.now(),
	}

	posts := s.Store.ListAll(r.Context())
	if len(posts) > FeedSize {
		posts = posts[:FeedSize]
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].LastModified()
	}

	for _, post := range posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          siteURL + "/posts/" + post.ID,
			Title:       post.Title,
			Link:        &feeds.Link{Href: siteURL + "/posts/" + post.ID},
			Author:      &feeds.Author{Name: post.Author},
			Description: post.Excerpt,
			Created:     post.PublishedAt,
			Updated:     post.LastModified(),
			Content:     s.renderMarkdown(post.Content),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.Logger.Error("rss generation failed", "err", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}

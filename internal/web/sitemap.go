package web

import (
	"encoding/xml"
	"net/http"
)

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []URL    `xml:"url"`
}

func (s *Server) Sitemap(w http.ResponseWriter, r *http.Request) {
	baseURL := s.Config.SiteBaseURL
	posts := s.Store.ListAll(r.Context())

	home := URL{
		Loc:        baseURL + "/",
		ChangeFreq: "daily",
		Priority:   "1.0",
	}
	if len(posts) > 0 {
		home.LastMod = posts[0].LastModified().Format("2006-01-02")
	}
	urls := []URL{home, {Loc: baseURL + "/archive", Priority: "0.5"}}

	for _, post := range posts {
		urls = append(urls, URL{
			Loc:        baseURL + "/posts/" + post.ID,
			LastMod:    post.LastModified().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(URLSet{URLs: urls}); err != nil {
		s.Logger.Error("sitemap encoding failed", "err", err)
	}
}

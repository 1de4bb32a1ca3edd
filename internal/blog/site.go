package blog

// SiteProfile holds the blog-wide display settings.
type SiteProfile struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
	Intro   string `json:"intro"`
	Email   string `json:"email"`
}

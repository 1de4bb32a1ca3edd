package blog

import "time"

type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Tags        []string   `json:"tags"`
	Author      string     `json:"author"`
	PublishedAt time.Time  `json:"publishedAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	ReadTime    string     `json:"readTime"`
}

// PostInput is the partial post accepted by Save. An empty ID creates a new post.
type PostInput struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Author   string   `json:"author,omitempty"`
	ReadTime string   `json:"readTime,omitempty"`
}

// Input returns the editable fields of p.
func (p Post) Input() PostInput {
	return PostInput{
		ID:       p.ID,
		Title:    p.Title,
		Content:  p.Content,
		Excerpt:  p.Excerpt,
		Tags:     append([]string(nil), p.Tags...),
		Author:   p.Author,
		ReadTime: p.ReadTime,
	}
}

// LastModified is UpdatedAt when the post has been edited, PublishedAt otherwise.
func (p Post) LastModified() time.Time {
	if p.UpdatedAt != nil {
		return *p.UpdatedAt
	}
	return p.PublishedAt
}

func (p Post) clone() Post {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	// EventAnnounced is sent by hand to re-announce an existing post.
	EventAnnounced EventType = "announced"
)

// Event describes a successful mutation of the post collection.
type Event struct {
	Type  EventType `json:"type"`
	ID    string    `json:"id"`
	Title string    `json:"title,omitempty"`
	At    time.Time `json:"at"`
}

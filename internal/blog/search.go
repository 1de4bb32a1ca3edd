package blog

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Search returns the posts whose title, excerpt or any tag contains term,
// ignoring case. A blank term matches everything.
func Search(posts []Post, term string) []Post {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return posts
	}
	results := []Post{}
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Title), term) ||
			strings.Contains(strings.ToLower(post.Excerpt), term) ||
			containsTagLower(post.Tags, term) {
			results = append(results, post)
		}
	}
	return results
}

func containsTagLower(tags []string, lower string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), lower) {
			return true
		}
	}
	return false
}

type Stats struct {
	TotalPosts     int `json:"totalPosts"`
	TotalTags      int `json:"totalTags"`
	RecentPosts    int `json:"recentPosts"`
	AvgReadMinutes int `json:"avgReadMinutes"`
}

// RecentWindow is how far back ComputeStats counts a post as recent.
const RecentWindow = 30 * 24 * time.Hour

// ComputeStats summarises posts for the admin dashboard.
func ComputeStats(posts []Post, now time.Time) Stats {
	stats := Stats{TotalPosts: len(posts)}
	if len(posts) == 0 {
		return stats
	}
	cutoff := now.Add(-RecentWindow)
	minutes := 0
	for _, post := range posts {
		stats.TotalTags += len(post.Tags)
		if post.PublishedAt.After(cutoff) {
			stats.RecentPosts++
		}
		minutes += ReadMinutes(post.ReadTime)
	}
	stats.AvgReadMinutes = int(math.Round(float64(minutes) / float64(len(posts))))
	return stats
}

// Related returns up to n other posts sharing tags with the post id, most
// shared tags first, newer first on ties.
func Related(posts []Post, id string, n int) []Post {
	var current Post
	found := false
	for _, p := range posts {
		if p.ID == id {
			current = p
			found = true
			break
		}
	}
	if !found || len(current.Tags) == 0 || n <= 0 {
		return []Post{}
	}

	type scoredPost struct {
		post  Post
		score int
	}

	currentTags := make(map[string]bool, len(current.Tags))
	for _, t := range current.Tags {
		currentTags[t] = true
	}

	var candidates []scoredPost
	for _, p := range posts {
		if p.ID == id {
			continue
		}
		score := 0
		for _, t := range p.Tags {
			if currentTags[t] {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scoredPost{post: p, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].post.PublishedAt.After(candidates[j].post.PublishedAt)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	result := make([]Post, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.post)
	}
	return result
}

package blog

import (
	"context"
	"fmt"
	"time"
)

// Markers recorded on backends that implement Marker.
const (
	SeedMarker    = "sample-posts-seeded"
	MigrateMarker = "posts-migrated"
)

// SeedSamplePosts fills a never-initialised backend with the welcome posts and
// reports how many were inserted. On a Marker backend it runs once: a backend
// emptied by deleting every post stays empty. Other backends are seeded
// whenever they are empty.
func SeedSamplePosts(ctx context.Context, backend Backend, author string) (int, error) {
	return runOnce(ctx, backend, SeedMarker, func() (int, error) {
		samples := samplePosts(author)
		// Insert oldest first so head-inserting backends end up newest first.
		for i := len(samples) - 1; i >= 0; i-- {
			if err := backend.Insert(ctx, samples[i]); err != nil {
				return len(samples) - 1 - i, fmt.Errorf("seed post %s: %w", samples[i].ID, err)
			}
		}
		return len(samples), nil
	})
}

// Migrate copies every post from src into dst, keeping ids and timestamps, and
// reports how many posts were copied. Like SeedSamplePosts it only touches an
// empty dst and, on a Marker dst, only the first time.
func Migrate(ctx context.Context, src, dst Backend) (int, error) {
	return runOnce(ctx, dst, MigrateMarker, func() (int, error) {
		posts, err := src.List(ctx)
		if err != nil {
			return 0, err
		}
		copied := 0
		for i := len(posts) - 1; i >= 0; i-- {
			if err := dst.Insert(ctx, posts[i]); err != nil {
				return copied, fmt.Errorf("migrate post %s: %w", posts[i].ID, err)
			}
			copied++
		}
		return copied, nil
	})
}

// runOnce calls fill when backend is empty and marker has not been recorded,
// then records marker. A non-empty backend is marked without filling.
func runOnce(ctx context.Context, backend Backend, marker string, fill func() (int, error)) (int, error) {
	m, hasMarker := backend.(Marker)
	if hasMarker {
		done, err := m.Marked(ctx, marker)
		if err != nil {
			return 0, err
		}
		if done {
			return 0, nil
		}
	}

	existing, err := backend.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	if len(existing) == 0 {
		if n, err = fill(); err != nil {
			return n, err
		}
	}

	if hasMarker {
		if err := m.Mark(ctx, marker); err != nil {
			return n, err
		}
	}
	return n, nil
}

func samplePosts(author string) []Post {
	posts := []Post{
		{
			ID:    "3",
			Title: "Building Scalable React Applications",
			Content: "# Building Scalable React Applications\n\n" +
				"Creating React applications that can scale is both an art and a science. " +
				"Here's what I've learned from building large-scale applications.\n\n" +
				"## Architecture Patterns\n\n" +
				"### Component Composition\n" +
				"Instead of building monolithic components, focus on composition. " +
				"Small, focused components are easier to test, maintain, and reuse.\n\n" +
				"### State Management\n" +
				"- **Local State**: For component-specific data\n" +
				"- **Context API**: For app-wide state that doesn't change frequently\n" +
				"- **Redux/Zustand**: For complex state with frequent updates\n\n" +
				"## Testing Strategy\n\n" +
				"- **Unit Tests**: For individual components and functions\n" +
				"- **Integration Tests**: For component interactions\n" +
				"- **E2E Tests**: For critical user journeys\n",
			Excerpt:     "Best practices and patterns for creating React applications that can grow with your business...",
			Tags:        []string{"react", "scalability", "architecture"},
			PublishedAt: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
			ReadTime:    "10 min read",
		},
		{
			ID:    "2",
			Title: "The Future of Web Development",
			Content: "# The Future of Web Development\n\n" +
				"The web development landscape is evolving at an unprecedented pace. " +
				"Let's explore what the future holds.\n\n" +
				"## Emerging Technologies\n\n" +
				"### WebAssembly (WASM)\n" +
				"WebAssembly lets languages like Rust, C++, and Go run in the browser at near-native speeds.\n\n" +
				"### Edge Computing\n" +
				"Computation moves closer to users, reducing latency.\n\n" +
				"## What This Means for Developers\n\n" +
				"- **Performance First**: Applications will be faster and more responsive\n" +
				"- **New Skill Sets**: Developers will need to adapt to new paradigms\n",
			Excerpt:     "Diving deep into the technologies that will shape the next decade of web development...",
			Tags:        []string{"web-development", "future", "technology"},
			PublishedAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			ReadTime:    "7 min read",
		},
		{
			ID:    "1",
			Title: "Welcome to My Space Blog",
			Content: "# Welcome to My Space Blog\n\n" +
				"Welcome to my corner of the digital universe! This is where I share my thoughts " +
				"on technology, innovation, and the endless possibilities that lie ahead.\n\n" +
				"## What You'll Find Here\n\n" +
				"- **Tech Insights**: Deep dives into emerging technologies\n" +
				"- **Innovation Stories**: Tales from the cutting edge of development\n" +
				"- **Creative Thinking**: Exploring new ways to solve old problems\n\n" +
				"Stay tuned for more cosmic content!\n",
			Excerpt:     "Exploring the cosmos of technology, innovation, and creative thinking...",
			Tags:        []string{"welcome", "introduction", "tech"},
			PublishedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			ReadTime:    "3 min read",
		},
	}
	for i := range posts {
		posts[i].Author = author
	}
	return posts
}

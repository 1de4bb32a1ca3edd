package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pranavgnr/Pranav-blog/internal/app"
	"github.com/pranavgnr/Pranav-blog/internal/blog"
	"github.com/pranavgnr/Pranav-blog/internal/config"
)

// notifier announces a post on the MQTT broker so subscribers (mailers, chat
// bridges) can pick it up.
func main() {
	id := flag.String("id", "", "ID of the post to announce (default: latest)")
	dryRun := flag.Bool("dry-run", false, "Print the event instead of publishing it")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.Load()
	if *dryRun {
		cfg.MQTTBroker = ""
	} else if cfg.MQTTBroker == "" {
		logger.Error("MQTT_BROKER is not set")
		os.Exit(1)
	}
	cfg.SeedSamplePosts = false

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	post, err := pickPost(ctx, a.Store, *id)
	if err != nil {
		logger.Error("no post to announce", "id", *id, "err", err)
		os.Exit(1)
	}

	event := announcement(post, time.Now())
	if *dryRun {
		payload, _ := json.MarshalIndent(event, "", "  ")
		fmt.Printf("[Dry Run] %s\n%s\n", blog.EventAnnounced, payload)
		return
	}

	if err := a.Events.Publish(ctx, event); err != nil {
		logger.Error("publish failed", "err", err)
		os.Exit(1)
	}
	logger.Info("announced", "id", post.ID, "title", post.Title, "topic", a.Events.Topic(event.Type))
}

func pickPost(ctx context.Context, store blog.ContentStore, id string) (blog.Post, error) {
	if id != "" {
		return store.GetByID(ctx, id)
	}
	posts := store.ListAll(ctx)
	if len(posts) == 0 {
		return blog.Post{}, blog.ErrNotFound
	}
	return posts[0], nil
}

func announcement(post blog.Post, now time.Time) blog.Event {
	return blog.Event{Type: blog.EventAnnounced, ID: post.ID, Title: post.Title, At: now}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pranavgnr/Pranav-blog/internal/auth"
	"github.com/pranavgnr/Pranav-blog/internal/blog"
	"github.com/pranavgnr/Pranav-blog/internal/config"
	"github.com/pranavgnr/Pranav-blog/internal/notify"
	"github.com/pranavgnr/Pranav-blog/internal/web"
)

// App is the wired blog: backend, content store, sessions and web server.
type App struct {
	Config    *config.Config
	Backend   blog.Backend
	Store     *blog.Store
	SiteStore *blog.SiteStore
	Sessions  *auth.Manager
	Server    *web.Server
	Events    *notify.MQTTPublisher

	log *slog.Logger
}

// New opens the configured backend, prepares its content and wires the
// server. The MQTT publisher is started only when a broker is configured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, log: logger}

	backend, err := blog.Open(ctx, blog.BackendConfig{
		Driver:        cfg.StoreDriver,
		DataDir:       cfg.DataDir,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	a.Backend = backend

	if err := a.prepare(ctx); err != nil {
		a.Close()
		return nil, err
	}

	storeCfg := blog.StoreConfig{
		DefaultAuthor: cfg.DefaultAuthor,
		Timeout:       cfg.StoreTimeout,
		Logger:        logger,
	}
	if cfg.MQTTBroker != "" {
		events := notify.New(notify.Config{
			Broker:      cfg.MQTTBroker,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopic,
			Logger:      logger,
		})
		if err := events.Start(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("start mqtt publisher: %w", err)
		}
		a.Events = events
		storeCfg.Events = events
	}
	a.Store = blog.NewStore(backend, storeCfg)

	a.SiteStore, err = blog.NewSiteStore(filepath.Join(cfg.DataDir, "site.json"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open site store: %w", err)
	}

	a.Sessions, err = auth.NewManager(cfg.AdminEmail, cfg.AdminPass, []byte(cfg.JWTSecret), cfg.SessionTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; sessions will not survive a restart")
	}

	a.Server = web.NewServer(cfg, a.Store, a.SiteStore, a.Sessions)
	a.Server.Logger = logger
	return a, nil
}

// prepare imports posts.json into a database backend and seeds an empty one.
func (a *App) prepare(ctx context.Context) error {
	cfg := a.Config
	if cfg.MigrateFromFile && cfg.StoreDriver != blog.DriverFile && cfg.StoreDriver != "" {
		src, err := blog.NewFileStore(filepath.Join(cfg.DataDir, "posts.json"))
		if err != nil {
			return fmt.Errorf("open posts.json for migration: %w", err)
		}
		n, err := blog.Migrate(ctx, src, a.Backend)
		if err != nil {
			return fmt.Errorf("migrate posts: %w", err)
		}
		if n > 0 {
			a.log.Info("migrated posts from posts.json", "count", n, "driver", cfg.StoreDriver)
		}
	}

	if cfg.SeedSamplePosts {
		n, err := blog.SeedSamplePosts(ctx, a.Backend, cfg.DefaultAuthor)
		if err != nil {
			return fmt.Errorf("seed sample posts: %w", err)
		}
		if n > 0 {
			a.log.Info("seeded sample posts", "count", n)
		}
	}
	return nil
}

// Close releases the server, flushes queued post events, then stops the
// publisher and the backend.
func (a *App) Close() {
	if a.Server != nil {
		a.Server.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Events != nil {
		a.Events.Stop()
	}
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil {
			a.log.Warn("close backend", "err", err)
		}
	}
}

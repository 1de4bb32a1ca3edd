package blog

import (
	"context"
	"fmt"
	"path/filepath"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// BackendConfig selects and locates a Backend.
type BackendConfig struct {
	Driver        string
	DataDir       string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// Open connects the backend named by cfg.Driver. An empty driver means DriverFile.
func Open(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(filepath.Join(cfg.DataDir, "posts.json"))
	case DriverSQLite:
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "blog.db"))
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("driver %q requires DATABASE_URL", cfg.Driver)
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("driver %q requires MONGO_URI", cfg.Driver)
		}
		database := cfg.MongoDatabase
		if database == "" {
			database = "blog"
		}
		return NewMongoStore(ctx, cfg.MongoURI, database)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

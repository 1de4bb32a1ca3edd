package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PUBLIC_ADDR", "SITE_BASE_URL", "STORE_DRIVER", "STORE_TIMEOUT", "SEED_SAMPLE_POSTS", "CORS_ALLOWED_ORIGINS", "DEFAULT_AUTHOR"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.PublicAddr != ":8084" {
		t.Errorf("PublicAddr = %q, want %q", cfg.PublicAddr, ":8084")
	}
	if cfg.SiteBaseURL != "http://localhost:8084" {
		t.Errorf("SiteBaseURL = %q, want %q", cfg.SiteBaseURL, "http://localhost:8084")
	}
	if cfg.StoreDriver != "file" {
		t.Errorf("StoreDriver = %q, want file", cfg.StoreDriver)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout = %v, want 5s", cfg.StoreTimeout)
	}
	if !cfg.SeedSamplePosts {
		t.Error("SeedSamplePosts = false, want true")
	}
	if len(cfg.CorsAllowedOrigins) != 1 || cfg.CorsAllowedOrigins[0] != "*" {
		t.Errorf("CorsAllowedOrigins = %v, want [*]", cfg.CorsAllowedOrigins)
	}
	if cfg.DefaultAuthor != "Pranav Nag B" {
		t.Errorf("DefaultAuthor = %q", cfg.DefaultAuthor)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PUBLIC_ADDR", "127.0.0.1:9000")
	t.Setenv("SITE_BASE_URL", "https://blog.example.com/")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("SEED_SAMPLE_POSTS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()

	if cfg.SiteBaseURL != "https://blog.example.com" {
		t.Errorf("SiteBaseURL = %q", cfg.SiteBaseURL)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Errorf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.StoreTimeout != 250*time.Millisecond {
		t.Errorf("StoreTimeout = %v, want 250ms", cfg.StoreTimeout)
	}
	if cfg.SeedSamplePosts {
		t.Error("SeedSamplePosts = true, want false")
	}
	if len(cfg.CorsAllowedOrigins) != 2 {
		t.Errorf("CorsAllowedOrigins = %v, want 2 entries", cfg.CorsAllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")
	t.Setenv("SEED_SAMPLE_POSTS", "maybe")
	cfg := Load()
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout = %v, want fallback 5s", cfg.StoreTimeout)
	}
	if !cfg.SeedSamplePosts {
		t.Error("SeedSamplePosts = false, want fallback true")
	}
}

func TestBaseURLFromAddr(t *testing.T) {
	tests := map[string]string{
		":8084":              "http://localhost:8084",
		"0.0.0.0:80":         "http://localhost:80",
		"example.com:8080":   "http://example.com:8080",
		"https://x.example/": "https://x.example",
		"":                   "",
	}
	for in, want := range tests {
		if got := baseURLFromAddr(in); got != want {
			t.Errorf("baseURLFromAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

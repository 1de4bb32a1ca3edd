package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/pranavgnr/Pranav-blog/internal/app"
	"github.com/pranavgnr/Pranav-blog/internal/config"
	"github.com/pranavgnr/Pranav-blog/internal/web"
)

func main() {
	baseURL := flag.String("base-url", "", "Override the site base URL")
	outputDir := flag.String("out", "dist", "Output directory")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.Load()
	if *baseURL != "" {
		cfg.SiteBaseURL = strings.TrimRight(*baseURL, "/")
	}
	// A static export publishes nothing.
	cfg.MQTTBroker = ""

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := os.RemoveAll(*outputDir); err != nil {
		logger.Warn("failed to clean output dir", "dir", *outputDir, "err", err)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Error("failed to create output dir", "dir", *outputDir, "err", err)
		os.Exit(1)
	}

	posts := a.Store.ListAll(ctx)
	pages := routes(len(posts))
	for _, p := range posts {
		pages = append(pages, "/posts/"+p.ID)
	}

	handler := a.Server.PublicRoutes()
	failed := 0
	for _, route := range pages {
		fmt.Printf("Generating %s...\n", route)
		if err := generate(handler, *outputDir, route); err != nil {
			logger.Error("generate failed", "route", route, "err", err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
	fmt.Printf("Done! Static site generated in %q.\n", *outputDir)
}

// routes lists the non-post pages: the index and its extra pages, the
// archive, the feed and the sitemap.
func routes(totalPosts int) []string {
	out := []string{"/", "/archive", "/feed", "/sitemap.xml"}
	totalPages := (totalPosts + web.IndexPageSize - 1) / web.IndexPageSize
	for i := 2; i <= totalPages; i++ {
		out = append(out, fmt.Sprintf("/page/%d", i))
	}
	return out
}

// outputPath maps a route to a clean-URL file: "/" -> index.html,
// "/posts/x" -> posts/x/index.html, "/feed" -> feed.xml.
func outputPath(route string) string {
	switch {
	case route == "/":
		return "index.html"
	case route == "/feed":
		return "feed.xml"
	case strings.HasSuffix(route, ".xml"):
		return strings.TrimPrefix(route, "/")
	default:
		return filepath.Join(strings.TrimPrefix(route, "/"), "index.html")
	}
}

func generate(handler http.Handler, outputDir, route string) error {
	req := httptest.NewRequest(http.MethodGet, route, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return fmt.Errorf("status %d", rec.Code)
	}

	outPath := filepath.Join(outputDir, outputPath(route))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, rec.Body.Bytes(), 0o644)
}

package main

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestRoutes(t *testing.T) {
	got := routes(25)
	want := []string{"/", "/archive", "/feed", "/sitemap.xml", "/page/2", "/page/3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("routes(25) = %v, want %v", got, want)
	}
	if got := routes(0); len(got) != 4 {
		t.Fatalf("routes(0) = %v", got)
	}
}

func TestOutputPath(t *testing.T) {
	cases := map[string]string{
		"/":            "index.html",
		"/archive":     filepath.Join("archive", "index.html"),
		"/feed":        "feed.xml",
		"/sitemap.xml": "sitemap.xml",
		"/page/2":      filepath.Join("page", "2", "index.html"),
		"/posts/abc":   filepath.Join("posts", "abc", "index.html"),
	}
	for route, want := range cases {
		if got := outputPath(route); got != want {
			t.Errorf("outputPath(%q) = %q, want %q", route, got, want)
		}
	}
}

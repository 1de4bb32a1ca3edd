package blog

import (
	"fmt"
	"strings"
)

const (
	DefaultExcerptLength = 150
	WordsPerMinute       = 200
)

var markupStripper = strings.NewReplacer(
	"#", "",
	"*", "",
	"`", "",
	"\r\n", " ",
	"\n", " ",
)

// DeriveExcerpt strips the markdown control characters from content and cuts
// the result to maxLength runes, appending "..." when it was longer.
func DeriveExcerpt(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	plain := strings.TrimSpace(markupStripper.Replace(content))
	runes := []rune(plain)
	if len(runes) > maxLength {
		return string(runes[:maxLength]) + "..."
	}
	return plain
}

// DeriveReadTime estimates reading time at WordsPerMinute, never less than a minute.
func DeriveReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// ReadMinutes parses the leading number of a "<N> min read" string, 0 if absent.
func ReadMinutes(readTime string) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(readTime), "%d", &n); err != nil {
		return 0
	}
	return n
}

// normalizeTags trims tags, drops empty ones and keeps the first occurrence of each.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

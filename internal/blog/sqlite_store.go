package blog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	_ Backend = (*SQLiteStore)(nil)
	_ Marker  = (*SQLiteStore)(nil)
)

// Fixed-width UTC layout so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// 确保数据库文件所在的目录存在
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		author TEXT NOT NULL DEFAULT '',
		read_time TEXT NOT NULL DEFAULT '',
		published_at TEXT NOT NULL,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at DESC);
	CREATE TABLE IF NOT EXISTS blog_meta (
		name TEXT PRIMARY KEY,
		marked_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

const sqliteColumns = `id, title, content, excerpt, tags, author, read_time, published_at, updated_at`

func (s *SQLiteStore) List(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sqliteColumns+" FROM posts ORDER BY published_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanSQLitePost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return posts, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteColumns+" FROM posts WHERE id = ?", id)
	post, err := scanSQLitePost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, post Post) error {
	tagsJSON, err := json.Marshal(nonNilTags(post.Tags))
	if err != nil {
		return err
	}
	query := `
	INSERT INTO posts (` + sqliteColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Content, post.Excerpt, string(tagsJSON),
		post.Author, post.ReadTime, formatSQLiteTime(post.PublishedAt), nullableSQLiteTime(post.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, post Post) error {
	tagsJSON, err := json.Marshal(nonNilTags(post.Tags))
	if err != nil {
		return err
	}
	query := `
	UPDATE posts SET
		title = ?, content = ?, excerpt = ?, tags = ?, author = ?, read_time = ?, updated_at = ?
	WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		post.Title, post.Content, post.Excerpt, string(tagsJSON), post.Author, post.ReadTime,
		nullableSQLiteTime(post.UpdatedAt), post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Marked(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM blog_meta WHERE name = ?", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read marker %s: %w", name, err)
	}
	return true, nil
}

func (s *SQLiteStore) Mark(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO blog_meta (name, marked_at) VALUES (?, ?)",
		name, formatSQLiteTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("write marker %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePost(row rowScanner) (Post, error) {
	var (
		p           Post
		tagsRaw     string
		publishedAt string
		updatedAt   sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &tagsRaw, &p.Author, &p.ReadTime, &publishedAt, &updatedAt)
	if err != nil {
		return Post{}, err
	}
	if err := json.Unmarshal([]byte(tagsRaw), &p.Tags); err != nil {
		return Post{}, fmt.Errorf("decode tags of %s: %w", p.ID, err)
	}
	if p.PublishedAt, err = time.Parse(sqliteTimeLayout, publishedAt); err != nil {
		return Post{}, fmt.Errorf("parse published_at of %s: %w", p.ID, err)
	}
	if updatedAt.Valid {
		t, err := time.Parse(sqliteTimeLayout, updatedAt.String)
		if err != nil {
			return Post{}, fmt.Errorf("parse updated_at of %s: %w", p.ID, err)
		}
		p.UpdatedAt = &t
	}
	return p, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableSQLiteTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatSQLiteTime(*t)
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

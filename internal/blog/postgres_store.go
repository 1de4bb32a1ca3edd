package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ Backend = (*PostgresStore)(nil)
	_ Marker  = (*PostgresStore)(nil)
)

// PostgresStore keeps posts in a hosted PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Pool returns the underlying pgxpool.Pool
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) init(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		tags TEXT[] NOT NULL DEFAULT '{}',
		author TEXT NOT NULL DEFAULT '',
		read_time TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts (published_at DESC);
	CREATE TABLE IF NOT EXISTS blog_meta (
		name TEXT PRIMARY KEY,
		marked_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

const postgresColumns = `
	id,
	title,
	content,
	excerpt,
	COALESCE(tags, '{}'::text[]),
	author,
	read_time,
	published_at,
	updated_at
`

func (s *PostgresStore) List(ctx context.Context) ([]Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postgresColumns+` FROM posts ORDER BY published_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPostgresPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Post, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresColumns+` FROM posts WHERE id = $1`, id)
	post, err := scanPostgresPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (s *PostgresStore) Insert(ctx context.Context, post Post) error {
	const query = `
		INSERT INTO posts (id, title, content, excerpt, tags, author, read_time, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Excerpt,
		nonNilTags(post.Tags),
		post.Author,
		post.ReadTime,
		post.PublishedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, post Post) error {
	const query = `
		UPDATE posts SET
			title = $2,
			content = $3,
			excerpt = $4,
			tags = $5,
			author = $6,
			read_time = $7,
			updated_at = $8
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Excerpt,
		nonNilTags(post.Tags),
		post.Author,
		post.ReadTime,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Marked(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blog_meta WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("read marker %s: %w", name, err)
	}
	return exists, nil
}

func (s *PostgresStore) Mark(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO blog_meta (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("write marker %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func scanPostgresPost(row pgx.Row) (Post, error) {
	var post Post
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Excerpt,
		&post.Tags,
		&post.Author,
		&post.ReadTime,
		&post.PublishedAt,
		&post.UpdatedAt,
	)
	return post, err
}

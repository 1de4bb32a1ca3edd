package blog

import "context"

// Backend is the record-level persistence primitive behind a ContentStore.
// Implementations report a missing record from Get and Update with ErrNotFound
// and treat Delete of a missing record as success, returning removed=false.
type Backend interface {
	// List returns every post ordered by PublishedAt, newest first.
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, id string) (Post, error)
	Insert(ctx context.Context, post Post) error
	Update(ctx context.Context, post Post) error
	Delete(ctx context.Context, id string) (removed bool, err error)
	Close() error
}

// Marker records one-off setup steps (seeding, migration) so they run once per
// backend, even after the posts they created have been deleted.
type Marker interface {
	Marked(ctx context.Context, name string) (bool, error)
	Mark(ctx context.Context, name string) error
}

// ContentStore is what the web layer reads and mutates posts through.
type ContentStore interface {
	ListAll(ctx context.Context) []Post
	GetByID(ctx context.Context, id string) (Post, error)
	Save(ctx context.Context, input PostInput) (Post, error)
	Delete(ctx context.Context, id string) error
}

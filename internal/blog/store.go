package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultEventTimeout = 2 * time.Second

	eventQueueSize = 64
)

// Compile-time assertion that Store implements ContentStore.
var _ ContentStore = (*Store)(nil)

// EventSink receives post change events after a successful mutation.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

type StoreConfig struct {
	// DefaultAuthor is used when a new post carries no author.
	DefaultAuthor string
	// Timeout bounds every backend call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Logger for store failures. Falls back to slog.Default() if nil.
	Logger *slog.Logger
	// Events is optional. Events are delivered in order by a background
	// worker so a slow sink never delays a save; see Store.Close.
	Events EventSink
	// EventTimeout bounds one Publish call. Zero means DefaultEventTimeout.
	EventTimeout time.Duration
	// OnError, if set, also receives the failure ListAll swallows.
	OnError func(error)
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Store is the ContentStore over a Backend: it validates input, fills in the
// derived fields and owns id and timestamp assignment.
type Store struct {
	backend       Backend
	defaultAuthor string
	timeout       time.Duration
	log           *slog.Logger
	events        EventSink
	eventTimeout  time.Duration
	onError       func(error)
	now           func() time.Time
	newID         func() string

	queueMu   sync.RWMutex
	queue     chan Event
	closed    bool
	drained   chan struct{}
	closeOnce sync.Once
}

func NewStore(backend Backend, cfg StoreConfig) *Store {
	s := &Store{
		backend:       backend,
		defaultAuthor: cfg.DefaultAuthor,
		timeout:       cfg.Timeout,
		log:           cfg.Logger,
		events:        cfg.Events,
		eventTimeout:  cfg.EventTimeout,
		onError:       cfg.OnError,
		now:           cfg.Now,
		newID:         cfg.NewID,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	if s.eventTimeout <= 0 {
		s.eventTimeout = DefaultEventTimeout
	}
	if s.events != nil {
		s.queue = make(chan Event, eventQueueSize)
		s.drained = make(chan struct{})
		go s.deliverEvents()
	}
	return s
}

// Close delivers the events still queued and stops the event worker. It does
// not close the backend. Mutations after Close publish nothing.
func (s *Store) Close() {
	if s.queue == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.queueMu.Lock()
		s.closed = true
		close(s.queue)
		s.queueMu.Unlock()
		<-s.drained
	})
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) ListAll(ctx context.Context) []Post {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	posts, err := s.backend.List(ctx)
	if err != nil {
		err = &PersistenceError{Op: "list posts", Err: err}
		s.log.Error("list posts failed", "err", err)
		if s.onError != nil {
			s.onError(err)
		}
		return []Post{}
	}
	if posts == nil {
		return []Post{}
	}
	return posts
}

func (s *Store) GetByID(ctx context.Context, id string) (Post, error) {
	if strings.TrimSpace(id) == "" {
		return Post{}, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	post, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Post{}, ErrNotFound
		}
		err = &PersistenceError{Op: "get post", Err: err}
		s.log.Error("get post failed", "id", id, "err", err)
		return Post{}, err
	}
	return post, nil
}

func (s *Store) Save(ctx context.Context, input PostInput) (Post, error) {
	if err := validate(input); err != nil {
		return Post{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	excerpt := strings.TrimSpace(input.Excerpt)
	if excerpt == "" {
		excerpt = DeriveExcerpt(input.Content, DefaultExcerptLength)
	}
	readTime := strings.TrimSpace(input.ReadTime)
	if readTime == "" {
		readTime = DeriveReadTime(input.Content)
	}
	author := strings.TrimSpace(input.Author)
	tags := normalizeTags(input.Tags)

	if input.ID != "" {
		existing, err := s.backend.Get(ctx, input.ID)
		switch {
		case err == nil:
			return s.update(ctx, existing, input, excerpt, readTime, author, tags)
		case !errors.Is(err, ErrNotFound):
			err = &PersistenceError{Op: "load post", Err: err}
			s.log.Error("save post failed", "id", input.ID, "err", err)
			return Post{}, err
		}
	}

	if author == "" {
		author = s.defaultAuthor
	}
	post := Post{
		ID:          s.newID(),
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		Excerpt:     excerpt,
		Tags:        tags,
		Author:      author,
		PublishedAt: s.now(),
		ReadTime:    readTime,
	}
	if err := s.backend.Insert(ctx, post); err != nil {
		err = &PersistenceError{Op: "create post", Err: err}
		s.log.Error("save post failed", "err", err)
		return Post{}, err
	}
	s.publish(Event{Type: EventCreated, ID: post.ID, Title: post.Title, At: post.PublishedAt})
	return post, nil
}

func (s *Store) update(ctx context.Context, existing Post, input PostInput, excerpt, readTime, author string, tags []string) (Post, error) {
	now := s.now()
	if existing.UpdatedAt != nil && !now.After(*existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Millisecond)
	}
	if author == "" {
		author = existing.Author
	}
	if author == "" {
		author = s.defaultAuthor
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Content = input.Content
	updated.Excerpt = excerpt
	updated.Tags = tags
	updated.Author = author
	updated.ReadTime = readTime
	updated.UpdatedAt = &now

	if err := s.backend.Update(ctx, updated); err != nil {
		err = &PersistenceError{Op: "update post", Err: err}
		s.log.Error("save post failed", "id", existing.ID, "err", err)
		return Post{}, err
	}
	s.publish(Event{Type: EventUpdated, ID: updated.ID, Title: updated.Title, At: now})
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.backend.Delete(ctx, id)
	if err != nil {
		err = &PersistenceError{Op: "delete post", Err: err}
		s.log.Error("delete post failed", "id", id, "err", err)
		return err
	}
	if removed {
		s.publish(Event{Type: EventDeleted, ID: id, At: s.now()})
	}
	return nil
}

// publish queues event for the worker, dropping it when the queue is full.
func (s *Store) publish(event Event) {
	if s.queue == nil {
		return
	}
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- event:
	default:
		s.log.Warn("post event queue full, dropping event", "type", event.Type, "id", event.ID)
	}
}

func (s *Store) deliverEvents() {
	defer close(s.drained)
	for event := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.eventTimeout)
		err := s.events.Publish(ctx, event)
		cancel()
		if err != nil {
			s.log.Warn("publish post event failed", "type", event.Type, "id", event.ID, "err", err)
		}
	}
}

func validate(input PostInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(input.Content) == "" {
		return &ValidationError{Field: "content"}
	}
	return nil
}

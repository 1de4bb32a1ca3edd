package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	_ Backend = (*FileStore)(nil)
	_ Marker  = (*FileStore)(nil)
)

// FileStore keeps the whole collection as one JSON array on disk, newest first.
// Setup markers live next to it in <name>.meta.json.
type FileStore struct {
	path     string
	metaPath string
	mu       sync.RWMutex
	posts    []Post
	markers  map[string]time.Time
}

type fileMeta struct {
	Markers map[string]time.Time `json:"markers"`
}

func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{
		path:     path,
		metaPath: strings.TrimSuffix(path, filepath.Ext(path)) + ".meta.json",
	}
	existed, err := store.load()
	if err != nil {
		return nil, err
	}
	if err := store.loadMeta(existed); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) List(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// 返回副本，避免外部修改内部切片
	posts := make([]Post, len(s.posts))
	for i, p := range s.posts {
		posts[i] = p.clone()
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	return posts, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.posts[i].clone(), nil
	}
	return Post{}, ErrNotFound
}

func (s *FileStore) Insert(ctx context.Context, post Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(post.ID) >= 0 {
		return fmt.Errorf("post %s already exists", post.ID)
	}
	posts := make([]Post, 0, len(s.posts)+1)
	posts = append(posts, post.clone())
	posts = append(posts, s.posts...)
	if err := s.write(posts); err != nil {
		return err
	}
	s.posts = posts
	return nil
}

func (s *FileStore) Update(ctx context.Context, post Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(post.ID)
	if index == -1 {
		return ErrNotFound
	}
	posts := make([]Post, len(s.posts))
	copy(posts, s.posts)
	posts[index] = post.clone()
	if err := s.write(posts); err != nil {
		return err
	}
	s.posts = posts
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index == -1 {
		return false, nil
	}
	posts := make([]Post, 0, len(s.posts)-1)
	posts = append(posts, s.posts[:index]...)
	posts = append(posts, s.posts[index+1:]...)
	if err := s.write(posts); err != nil {
		return false, err
	}
	s.posts = posts
	return true, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) indexOf(id string) int {
	for i, post := range s.posts {
		if post.ID == id {
			return i
		}
	}
	return -1
}

// load reads the posts file and reports whether it existed.
func (s *FileStore) load() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.posts = []Post{}
			return false, nil
		}
		return false, err
	}

	if len(data) == 0 {
		s.posts = []Post{}
		return true, nil
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return true, fmt.Errorf("decode %s: %w", s.path, err)
	}
	s.posts = posts
	return true, nil
}

// loadMeta reads the marker file. A posts file written before markers existed
// has already been through seeding.
func (s *FileStore) loadMeta(postsExisted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = map[string]time.Time{}
	data, err := os.ReadFile(s.metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			if postsExisted {
				s.markers[SeedMarker] = time.Time{}
			}
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var meta fileMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("decode %s: %w", s.metaPath, err)
	}
	for name, at := range meta.Markers {
		s.markers[name] = at
	}
	return nil
}

func (s *FileStore) Marked(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[name]
	return ok, nil
}

func (s *FileStore) Mark(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers[name]; ok {
		return nil
	}
	markers := make(map[string]time.Time, len(s.markers)+1)
	for k, v := range s.markers {
		markers[k] = v
	}
	markers[name] = time.Now().UTC()

	data, err := json.MarshalIndent(fileMeta{Markers: markers}, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicWriteFile(s.metaPath, append(data, '\n'), 0o644); err != nil {
		return err
	}
	s.markers = markers
	return nil
}

// write persists posts; the in-memory slice is only swapped after it succeeds.
func (s *FileStore) write(posts []Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return atomicWriteFile(s.path, data, 0o644)
}

package blog

import (
	"encoding/json"
	"os"
	"sync"
)

type SiteStore struct {
	path string
	mu   sync.RWMutex
	data SiteProfile
}

// NewSiteStore loads the profile at path, writing the defaults when the file
// is missing or empty.
func NewSiteStore(path string) (*SiteStore, error) {
	store := &SiteStore{path: path}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SiteStore) Get() SiteProfile {
	if s == nil {
		return DefaultProfile()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *SiteStore) Update(profile SiteProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(profile); err != nil {
		return err
	}
	s.data = profile
	return nil
}

func (s *SiteStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(data) == 0 {
		s.data = DefaultProfile()
		return s.save(s.data)
	}

	var profile SiteProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return err
	}
	s.data = profile
	return nil
}

func (s *SiteStore) save(profile SiteProfile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return atomicWriteFile(s.path, data, 0o644)
}

func DefaultProfile() SiteProfile {
	return SiteProfile{
		Title:   "Pranav's Space Blog",
		Tagline: "Exploring the cosmos of technology, innovation, and creative thinking",
		Intro:   "Thoughts on technology, innovation, and the endless possibilities that lie ahead.",
		Email:   "admin@pranav.blog",
	}
}

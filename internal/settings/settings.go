// Package settings holds the single mutable provider configuration read by
// every AI invocation. Reads take an atomic snapshot; updates shallow-merge
// only the supplied fields. An update racing an in-flight request may land
// before or after that request's snapshot; last writer wins.
package settings

import "sync"

// Settings is the active provider configuration.
type Settings struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`
}

// Partial is a settings update. Nil fields are left unchanged.
type Partial struct {
	Provider *string `json:"provider"`
	APIKey   *string `json:"apiKey"`
	Model    *string `json:"model"`
}

// Store is a thread-safe holder for the process-wide Settings.
type Store struct {
	mu  sync.RWMutex
	cur Settings
}

// NewStore creates a store seeded with the startup configuration.
func NewStore(initial Settings) *Store {
	return &Store{cur: initial}
}

// Snapshot returns the current settings as a value copy.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Apply merges the supplied fields into the current settings.
func (s *Store) Apply(p Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Provider != nil {
		s.cur.Provider = *p.Provider
	}
	if p.APIKey != nil {
		s.cur.APIKey = *p.APIKey
	}
	if p.Model != nil {
		s.cur.Model = *p.Model
	}
}

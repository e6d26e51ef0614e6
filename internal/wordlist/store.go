package wordlist

import (
	"sort"
	"strings"
	"sync"
)

// Store holds the target word set. Reads vastly outnumber writes, so the
// set is swapped copy-on-write: Snapshot hands out the current immutable
// slice and every mutation installs a fresh one. A pipeline run keeps the
// snapshot it was given for its whole lifetime, so a concurrent word-list
// edit never changes a run mid-flight.
type Store struct {
	mu    sync.RWMutex
	words []string
}

// NewStore creates a store seeded with the given words.
func NewStore(initial []string) *Store {
	s := &Store{}
	s.Replace(initial)
	return s
}

// Snapshot returns the current word set. The returned slice is never
// mutated after publication; callers must not modify it.
func (s *Store) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.words
}

// Replace installs a new word set, normalized to lowercase and
// deduplicated.
func (s *Store) Replace(words []string) {
	normalized := normalize(words)

	s.mu.Lock()
	s.words = normalized
	s.mu.Unlock()
}

// Add installs a new snapshot containing the extra word.
func (s *Store) Add(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = normalize(append(append([]string{}, s.words...), word))
}

// Remove installs a new snapshot without the given word.
func (s *Store) Remove(word string) {
	word = strings.ToLower(strings.TrimSpace(word))

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(s.words))
	for _, w := range s.words {
		if w != word {
			next = append(next, w)
		}
	}
	s.words = next
}

func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

package reactionsync

import (
	"sort"
	"sync"
)

// Store garde une Entry par clé. Le verrou n'est jamais tenu pendant un appel réseau :
// lecture et écriture d'une clé se font dans le même Apply.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

func (s *Store) Get(key string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key]
}

// Apply réduit l'événement et retourne l'entrée avant et après.
func (s *Store) Apply(key string, ev Event) (prev, next Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.entries[key]
	next = Reduce(prev, ev)
	s.entries[key] = next
	return prev, next
}

// Seed initialise une clé depuis les compteurs d'un item du feed.
// Une clé déjà connue garde son état local, plus récent.
func (s *Store) Seed(key string, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = Entry{State: st}
	return true
}

func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package game

import "sync"

// Store is the in-process registry of all lobbies and their news timelines.
// State is ephemeral: initialized at process start, gone at process end.
type Store struct {
	mu      sync.RWMutex
	lobbies map[string]*Lobby
	news    map[string][]NewsArticle
}

func NewStore() *Store {
	return &Store{
		lobbies: make(map[string]*Lobby),
		news:    make(map[string][]NewsArticle),
	}
}

func (s *Store) Create(lobby *Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.Code] = lobby
}

func (s *Store) Get(code string) (*Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[code]
	return lobby, ok
}

func (s *Store) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
	delete(s.news, code)
}

// News returns a copy of the lobby's article feed in append order.
func (s *Store) News(code string) []NewsArticle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed := s.news[code]
	out := make([]NewsArticle, len(feed))
	copy(out, feed)
	return out
}

// AppendNews adds articles to the lobby's feed, skipping IDs already present.
// Re-running a sync with the same articles is therefore a no-op.
func (s *Store) AppendNews(code string, articles ...NewsArticle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]struct{}, len(s.news[code]))
	for _, a := range s.news[code] {
		existing[a.ID] = struct{}{}
	}
	for _, a := range articles {
		if _, dup := existing[a.ID]; dup {
			continue
		}
		existing[a.ID] = struct{}{}
		s.news[code] = append(s.news[code], a)
	}
}

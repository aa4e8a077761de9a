package session

import (
	"sync"
	"time"

	"github.com/shelfsight/backend/internal/catalog"
)

// State is one session's working memory: the catalog it is analyzing and the
// signature of its last persisted run. Created when a session id is first
// seen, cleared by End. Never shared across sessions.
type State struct {
	ID                string
	Catalog           []catalog.Item
	CatalogDisplayID  string
	CatalogDate       string
	LastSaveSignature string
	CreatedAt         time.Time
}

// SetCatalog caches a catalog along with the display and date it belongs to.
func (s *State) SetCatalog(displayID, date string, items []catalog.Item) {
	s.Catalog = items
	s.CatalogDisplayID = displayID
	s.CatalogDate = date
}

// CatalogFor returns the cached catalog only when it was stored for the same
// display and date; a catalog fetched for one display must never score
// another.
func (s *State) CatalogFor(displayID, date string) ([]catalog.Item, bool) {
	if len(s.Catalog) == 0 || s.CatalogDisplayID != displayID || s.CatalogDate != date {
		return nil, false
	}
	return s.Catalog, true
}

// Registry hands out per-session state. The mutex guards the map only; each
// session is assumed to run at most one analysis at a time.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*State),
	}
}

// Get returns the state for a session id, creating it on first use.
func (r *Registry) Get(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.sessions[id]; ok {
		return state
	}

	state := &State{
		ID:        id,
		CreatedAt: time.Now(),
	}
	r.sessions[id] = state
	return state
}

// End discards a session's working state.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

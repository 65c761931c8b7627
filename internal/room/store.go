// internal/room/store.go
package room

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/KennyPhan123/spicy-online/internal/deck"
)

// Store maps room codes to live room actors. Rooms are created on first
// connection and removed when their last connection leaves.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room

	ids    deck.IDGenerator
	logger *logrus.Logger
}

// NewStore returns an empty store whose rooms will mint card ids with the
// given generator.
func NewStore(ids deck.IDGenerator, logger *logrus.Logger) *Store {
	return &Store{
		rooms:  make(map[string]*Room),
		ids:    ids,
		logger: logger,
	}
}

// GetOrCreate returns the live room for code, creating it if none exists. A
// room that has already shut down is replaced by a fresh one; the code is
// reusable the moment the old actor exits.
func (s *Store) GetOrCreate(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[code]; ok {
		select {
		case <-r.Done():
			// Fell through: the old actor exited but its OnEmpty lost the
			// race with this lookup. Replace it below.
		default:
			return r
		}
	}

	r := NewRoom(code, s.ids, s.logger)
	r.OnEmpty = func(code string) { s.remove(code, r) }
	s.rooms[code] = r
	return r
}

// Get returns the live room for code, or nil.
func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

// remove deletes the mapping only if it still points at the given room, so a
// replacement created concurrently is never clobbered.
func (s *Store) remove(code string, r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.rooms[code]; ok && current == r {
		delete(s.rooms, code)
	}
}

// Package world holds the authoritative in-memory world state: every
// connected player and their last committed presence fields. All reads and
// writes go through the store; callers only ever see copies.
package world

import (
	"sort"
	"sync"
	"time"

	"github.com/plaza-world/plaza/internal/model"
)

// Store is the authoritative player table
type Store struct {
	mu      sync.RWMutex
	players map[model.ClientID]*model.Player
}

// New creates an empty world store
func New() *Store {
	return &Store{
		players: make(map[model.ClientID]*model.Player),
	}
}

// Add inserts a player. The caller has already resolved identity and name
// collisions.
func (s *Store) Add(player model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := player
	s.players[p.ID] = &p
}

// Remove deletes a player and returns the removed state. The second return
// is false if the player was not present, which makes removal idempotent.
func (s *Store) Remove(id model.ClientID) (model.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, false
	}
	delete(s.players, id)
	return *p, true
}

// Get returns a copy of a player's state
func (s *Store) Get(id model.ClientID) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, false
	}
	return *p, true
}

// Count returns the number of connected players
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Snapshot returns a copy of every player, ordered by client ID
func (s *Store) Snapshot() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NameInUse reports whether any connected player holds the given name
func (s *Store) NameInUse(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// SetPosition moves a player. Returns false for unknown players.
func (s *Store) SetPosition(id model.ClientID, pos model.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return false
	}
	p.Position = pos
	return true
}

// SetEmote updates a player's emote. Returns false for unknown players.
func (s *Store) SetEmote(id model.ClientID, emote string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return false
	}
	p.Emote = emote
	return true
}

// SetDrawing attaches an approved drawing to a player. Returns false for
// unknown players.
func (s *Store) SetDrawing(id model.ClientID, drawingID model.DrawingID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return false
	}
	p.DrawingID = drawingID
	return true
}

// SetLastActive records the time of a player's most recent committed action
func (s *Store) SetLastActive(id model.ClientID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		p.LastActive = at
	}
}

package model

import "time"

// ClientID uniquely identifies one connected player for the lifetime of its
// connection. IDs are minted by the game processor and never reused while the
// connection is open; a reconnect gets a fresh ID.
type ClientID uint32

// Position is a 2D world coordinate
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// World bounds. Positions outside this rectangle are rejected.
const (
	WorldMinX = -2000
	WorldMaxX = 2000
	WorldMinY = -1000
	WorldMaxY = 1000
)

// InBounds reports whether the position lies inside the world rectangle
func (p Position) InBounds() bool {
	return p.X >= WorldMinX && p.X <= WorldMaxX && p.Y >= WorldMinY && p.Y <= WorldMaxY
}

// Input limits
const (
	NameLimit    = 32        // runes in a display name
	MessageLimit = 256       // runes in a chat message
	DrawingLimit = 32 * 1024 // bytes in a submitted drawing
)

// Player is the authoritative state of one connected avatar.
// Owned by the world store; mutated only through the game processor.
type Player struct {
	ID         ClientID  `json:"id"`
	Name       string    `json:"name"`
	Position   Position  `json:"position"`
	Emote      string    `json:"emote,omitempty"`
	DrawingID  DrawingID `json:"drawing_id,omitempty"`
	LastActive time.Time `json:"last_active"`
}

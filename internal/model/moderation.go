package model

import "time"

// BannedWord is a persisted moderation record. FullBan words always cause
// hard rejection of the containing message; non-full-ban words are redacted
// (or rejected while strict mode is active).
type BannedWord struct {
	Word    string `json:"word"`
	FullBan bool   `json:"full_ban"`
}

// DrawingID identifies a submitted drawing
type DrawingID string

// Drawing is player-drawn artwork. It stays invisible to other players until
// an administrator approves it.
type Drawing struct {
	ID        DrawingID `json:"id"`
	Author    string    `json:"author"`
	Data      []byte    `json:"data"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

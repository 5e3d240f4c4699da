package model

import "errors"

// Common errors used across the application
var (
	// Connection / identity errors
	ErrIPBanned           = errors.New("ip is banned")
	ErrIPAlreadyConnected = errors.New("only one connection per ip allowed")
	ErrAlreadyConnected   = errors.New("client already connected")
	ErrNotConnected       = errors.New("client is not connected")
	ErrIdentityCollision  = errors.New("identity already registered")

	// Action validation errors
	ErrMessageRejected = errors.New("message rejected by moderation")
	ErrOutOfBounds     = errors.New("position is out of bounds")
	ErrMessageTooLong  = errors.New("message exceeds length limit")
	ErrDrawingTooLarge = errors.New("drawing exceeds size limit")
	ErrEmptyDrawing    = errors.New("drawing is empty")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Moderation record errors
	ErrBannedWordNotFound = errors.New("banned word not found")
	ErrDrawingNotFound    = errors.New("drawing not found")
)

package storage

import (
	"context"

	"github.com/plaza-world/plaza/internal/model"
)

// Storage defines the interface for persisted moderation and account data.
// Gameplay traffic only reads (and, for drawings, appends); administrative
// paths mutate.
type Storage interface {
	// Banned word operations
	SaveBannedWord(ctx context.Context, word model.BannedWord) error
	DeleteBannedWord(ctx context.Context, word string) error
	ListBannedWords(ctx context.Context) ([]model.BannedWord, error)

	// Banned IP operations
	SaveBannedIP(ctx context.Context, ip string) error
	DeleteBannedIP(ctx context.Context, ip string) error
	ListBannedIPs(ctx context.Context) ([]string, error)

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, username string) (*model.Account, error)

	// Drawing operations
	SaveDrawing(ctx context.Context, drawing *model.Drawing) error
	GetDrawing(ctx context.Context, id model.DrawingID) (*model.Drawing, error)
	DeleteDrawing(ctx context.Context, id model.DrawingID) error
	ListDrawings(ctx context.Context, pendingOnly bool) ([]*model.Drawing, error)
}

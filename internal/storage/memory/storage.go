package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	bannedWords map[string]model.BannedWord
	bannedIPs   map[string]struct{}
	accounts    map[string]*model.Account
	drawings    map[model.DrawingID]*model.Drawing
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		bannedWords: make(map[string]model.BannedWord),
		bannedIPs:   make(map[string]struct{}),
		accounts:    make(map[string]*model.Account),
		drawings:    make(map[model.DrawingID]*model.Drawing),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Banned word operations

func (s *Storage) SaveBannedWord(ctx context.Context, word model.BannedWord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bannedWords[word.Word] = word
	return nil
}

func (s *Storage) DeleteBannedWord(ctx context.Context, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bannedWords[word]; !ok {
		return model.ErrBannedWordNotFound
	}
	delete(s.bannedWords, word)
	return nil
}

func (s *Storage) ListBannedWords(ctx context.Context) ([]model.BannedWord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]model.BannedWord, 0, len(s.bannedWords))
	for _, w := range s.bannedWords {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool { return words[i].Word < words[j].Word })
	return words, nil
}

// Banned IP operations

func (s *Storage) SaveBannedIP(ctx context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bannedIPs[ip] = struct{}{}
	return nil
}

func (s *Storage) DeleteBannedIP(ctx context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bannedIPs, ip)
	return nil
}

func (s *Storage) ListBannedIPs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ips := make([]string, 0, len(s.bannedIPs))
	for ip := range s.bannedIPs {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips, nil
}

// Account operations
//
// The maps hold their own copies and hand out copies, so a caller can never
// mutate stored state without going back through Save.

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Username]; ok {
		return model.ErrUsernameExists
	}
	stored := *account
	s.accounts[account.Username] = &stored
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	out := *account
	return &out, nil
}

// Drawing operations

func (s *Storage) SaveDrawing(ctx context.Context, drawing *model.Drawing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *drawing
	s.drawings[drawing.ID] = &stored
	return nil
}

func (s *Storage) GetDrawing(ctx context.Context, id model.DrawingID) (*model.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	drawing, ok := s.drawings[id]
	if !ok {
		return nil, model.ErrDrawingNotFound
	}
	out := *drawing
	return &out, nil
}

func (s *Storage) DeleteDrawing(ctx context.Context, id model.DrawingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drawings[id]; !ok {
		return model.ErrDrawingNotFound
	}
	delete(s.drawings, id)
	return nil
}

func (s *Storage) ListDrawings(ctx context.Context, pendingOnly bool) ([]*model.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	drawings := make([]*model.Drawing, 0, len(s.drawings))
	for _, d := range s.drawings {
		if pendingOnly && d.Approved {
			continue
		}
		out := *d
		drawings = append(drawings, &out)
	}
	sort.Slice(drawings, func(i, j int) bool {
		return drawings[i].CreatedAt.Before(drawings[j].CreatedAt)
	})
	return drawings, nil
}

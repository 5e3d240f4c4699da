// Package moderation implements the policy gate sitting in the write path of
// the game pipeline: banned-word filtering, banned-IP checks, and the drawing
// approval queue. Ban lists are persisted in storage and cached in memory so
// the chat hot path never waits on a storage round-trip.
package moderation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/plaza-world/plaza/internal/dependencies/clock"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/storage"
)

// TextAction is the outcome of a text check
type TextAction int

const (
	// TextAllow delivers the text unchanged
	TextAllow TextAction = iota
	// TextRedact delivers the text with banned terms masked
	TextRedact
	// TextReject drops the text entirely; only the sender is told
	TextReject
)

// Verdict is the result of checking a piece of text
type Verdict struct {
	Action  TextAction
	Cleaned string // set when Action is TextRedact
}

// Config holds configuration for the moderation service
type Config struct {
	// RefreshInterval controls how often cached ban lists are reloaded
	// from storage
	RefreshInterval time.Duration
	// StrictMode promotes non-full-ban words from redaction to rejection
	StrictMode bool
	// ChatLogSize bounds the in-memory chat audit log
	ChatLogSize int
}

// DefaultConfig returns default moderation configuration
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 30 * time.Second,
		ChatLogSize:     256,
	}
}

// Service is the moderation gate
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	strict atomic.Bool

	mu        sync.RWMutex
	words     []model.BannedWord  // lowercased
	ips       map[string]struct{} // banned IPs
	connected map[string]struct{} // one live connection per remote IP

	chatLog *chatLog

	refreshInterval time.Duration
}

// New creates a moderation service and performs an initial cache load.
// A load failure is logged, not fatal: the server starts with empty lists
// and picks them up on the next refresh.
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger, cfg Config) *Service {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if cfg.ChatLogSize == 0 {
		cfg.ChatLogSize = DefaultConfig().ChatLogSize
	}

	s := &Service{
		storage:         store,
		clock:           clk,
		logger:          logger.With(slog.String("component", "moderation")),
		ips:             make(map[string]struct{}),
		connected:       make(map[string]struct{}),
		chatLog:         newChatLog(cfg.ChatLogSize),
		refreshInterval: cfg.RefreshInterval,
	}
	s.strict.Store(cfg.StrictMode)

	if err := s.Refresh(context.Background()); err != nil {
		s.logger.Error("initial ban list load failed", slog.String("error", err.Error()))
	}

	return s
}

// Refresh reloads the cached ban lists from storage
func (s *Service) Refresh(ctx context.Context) error {
	words, err := s.storage.ListBannedWords(ctx)
	if err != nil {
		return err
	}
	ips, err := s.storage.ListBannedIPs(ctx)
	if err != nil {
		return err
	}

	for i := range words {
		words[i].Word = strings.ToLower(words[i].Word)
	}

	ipSet := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		ipSet[ip] = struct{}{}
	}

	s.mu.Lock()
	s.words = words
	s.ips = ipSet
	s.mu.Unlock()

	return nil
}

// Run refreshes the ban list cache periodically until ctx is cancelled
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("ban list refresh failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}

// StrictMode reports whether strict mode is active
func (s *Service) StrictMode() bool {
	return s.strict.Load()
}

// SetStrictMode toggles strict mode. While active, non-full-ban words cause
// rejection instead of redaction.
func (s *Service) SetStrictMode(enabled bool) {
	s.strict.Store(enabled)
	s.logger.Info("strict mode changed", slog.Bool("enabled", enabled))
}

// CheckText evaluates text against the banned-word list. Matching is
// case-insensitive substring matching, done rune by rune so masking never
// splits a multi-byte character even when lowercasing changes byte lengths.
// Full-ban words always reject; other banned words are masked, or reject too
// while strict mode is active.
func (s *Service) CheckText(text string) Verdict {
	s.mu.RLock()
	words := s.words
	s.mu.RUnlock()

	runes := []rune(text)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}
	strict := s.strict.Load()

	var toMask [][]rune
	for _, word := range words {
		wordRunes := []rune(word.Word)
		if indexRunes(lowered, wordRunes) < 0 {
			continue
		}
		if word.FullBan || strict {
			return Verdict{Action: TextReject}
		}
		toMask = append(toMask, wordRunes)
	}

	if len(toMask) == 0 {
		return Verdict{Action: TextAllow}
	}

	for _, wordRunes := range toMask {
		maskWord(runes, lowered, wordRunes)
	}
	return Verdict{Action: TextRedact, Cleaned: string(runes)}
}

// maskWord overwrites every occurrence of word with an equal run of
// asterisks, in place. lowered mirrors text rune for rune; masked positions
// are cleared in both so later words cannot match inside an existing mask.
func maskWord(text, lowered, word []rune) {
	for i := 0; i+len(word) <= len(text); {
		if !runesEqual(lowered[i:i+len(word)], word) {
			i++
			continue
		}
		for j := range word {
			text[i+j] = '*'
			lowered[i+j] = '*'
		}
		i += len(word)
	}
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CheckIP rejects banned source IPs. Consulted at connect time, before any
// identity is issued.
func (s *Service) CheckIP(ip string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, banned := s.ips[ip]; banned {
		return model.ErrIPBanned
	}
	return nil
}

// TrackConnect claims the single connection slot for a remote IP.
// It fails if the IP is banned or already has a live connection.
func (s *Service) TrackConnect(ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, banned := s.ips[ip]; banned {
		return model.ErrIPBanned
	}
	if _, ok := s.connected[ip]; ok {
		return model.ErrIPAlreadyConnected
	}
	s.connected[ip] = struct{}{}
	return nil
}

// ReleaseIP frees the connection slot for a remote IP. Idempotent.
func (s *Service) ReleaseIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connected, ip)
}

// BanIP persists an IP ban and applies it to the cache immediately
func (s *Service) BanIP(ctx context.Context, ip string) error {
	if err := s.storage.SaveBannedIP(ctx, ip); err != nil {
		return err
	}
	s.mu.Lock()
	s.ips[ip] = struct{}{}
	s.mu.Unlock()
	return nil
}

// UnbanIP removes a persisted IP ban and updates the cache
func (s *Service) UnbanIP(ctx context.Context, ip string) error {
	if err := s.storage.DeleteBannedIP(ctx, ip); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.ips, ip)
	s.mu.Unlock()
	return nil
}

// BanWord persists a banned word and applies it to the cache immediately
func (s *Service) BanWord(ctx context.Context, word model.BannedWord) error {
	word.Word = strings.ToLower(strings.TrimSpace(word.Word))
	if err := s.storage.SaveBannedWord(ctx, word); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.words {
		if s.words[i].Word == word.Word {
			s.words[i] = word
			return nil
		}
	}
	s.words = append(s.words, word)
	return nil
}

// UnbanWord removes a persisted banned word and updates the cache
func (s *Service) UnbanWord(ctx context.Context, word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if err := s.storage.DeleteBannedWord(ctx, word); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.words {
		if s.words[i].Word == word {
			s.words = append(s.words[:i], s.words[i+1:]...)
			break
		}
	}
	return nil
}

// BannedWords returns the cached banned-word list
func (s *Service) BannedWords() []model.BannedWord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BannedWord, len(s.words))
	copy(out, s.words)
	return out
}

// BannedIPs returns the cached banned-IP set
func (s *Service) BannedIPs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ips))
	for ip := range s.ips {
		out = append(out, ip)
	}
	return out
}

// SubmitDrawing queues drawing content for review. The drawing is persisted
// unapproved and stays invisible to other players until approved.
func (s *Service) SubmitDrawing(ctx context.Context, author string, data []byte) (model.DrawingID, error) {
	if len(data) == 0 {
		return "", model.ErrEmptyDrawing
	}
	if len(data) > model.DrawingLimit {
		return "", model.ErrDrawingTooLarge
	}

	drawing := &model.Drawing{
		ID:        model.DrawingID(uuid.NewString()),
		Author:    author,
		Data:      data,
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.SaveDrawing(ctx, drawing); err != nil {
		return "", err
	}

	s.logger.Info("drawing submitted",
		slog.String("drawing_id", string(drawing.ID)),
		slog.String("author", author),
		slog.Int("bytes", len(data)))
	return drawing.ID, nil
}

// ApproveDrawing marks a pending drawing approved and returns it
func (s *Service) ApproveDrawing(ctx context.Context, id model.DrawingID) (*model.Drawing, error) {
	drawing, err := s.storage.GetDrawing(ctx, id)
	if err != nil {
		return nil, err
	}

	drawing.Approved = true
	if err := s.storage.SaveDrawing(ctx, drawing); err != nil {
		return nil, err
	}

	s.logger.Info("drawing approved", slog.String("drawing_id", string(id)))
	return drawing, nil
}

// RejectDrawing deletes a pending drawing
func (s *Service) RejectDrawing(ctx context.Context, id model.DrawingID) error {
	if err := s.storage.DeleteDrawing(ctx, id); err != nil {
		return err
	}
	s.logger.Info("drawing rejected", slog.String("drawing_id", string(id)))
	return nil
}

// IsDrawingApproved reports whether a drawing exists and has been approved
func (s *Service) IsDrawingApproved(ctx context.Context, id model.DrawingID) bool {
	drawing, err := s.storage.GetDrawing(ctx, id)
	return err == nil && drawing.Approved
}

// ListDrawings returns persisted drawings, optionally pending ones only
func (s *Service) ListDrawings(ctx context.Context, pendingOnly bool) ([]*model.Drawing, error) {
	return s.storage.ListDrawings(ctx, pendingOnly)
}

// RecordChat appends a chat message to the audit log
func (s *Service) RecordChat(sender, ip, text string, flagged bool) {
	s.chatLog.record(ChatLogEntry{
		Sender:    sender,
		IP:        ip,
		Text:      text,
		Flagged:   flagged,
		Timestamp: s.clock.Now(),
	})
}

// ChatLog returns the most recent audit log entries, newest first
func (s *Service) ChatLog() []ChatLogEntry {
	return s.chatLog.recent()
}

// Package auth manages registered player names. Registering a name reserves
// it: connecting with a registered name requires the matching password.
// Unregistered names are free for anyone.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/plaza-world/plaza/internal/dependencies/clock"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/storage"
)

// Service handles account registration and name verification
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates an auth service
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "auth")),
	}
}

// Register reserves a player name behind a password
func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	account := &model.Account{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return err
	}

	s.logger.Info("account registered", slog.String("username", username))
	return nil
}

// VerifyConnect checks whether a connecting player may use a name. Names
// without an account are open to anyone; a registered name requires the
// account password.
func (s *Service) VerifyConnect(ctx context.Context, name, password string) error {
	account, err := s.storage.GetAccount(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return model.ErrInvalidCredentials
	}
	return nil
}

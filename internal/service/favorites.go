package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/repository"
)

// FavoriteService applies input rules on top of a FavoriteRepository.
// userID always comes from the session, never from the request body.
//
// VALIDATION RULES:
//   - Get and Add need a non-blank googleId
//   - Remove needs a non-blank id (internal id or googleId)
//   - Add drops any client-supplied internal id; the store assigns one
//
// STORE ERRORS pass through wrapped, so callers still match them with
// errors.Is:
//   - ErrNotFound    → the user document itself is gone (a stale session)
//   - ErrUnavailable → the backend failed
type FavoriteService struct {
	repo   repository.FavoriteRepository
	logger *slog.Logger
}

// NewFavoriteService creates a FavoriteService over repo.
func NewFavoriteService(repo repository.FavoriteRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, logger: logger}
}

// List returns the user's favorites in the order they were added. A user
// with none gets an empty slice, not an error.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.Book, error) {
	books, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/favorites: listing for %s: %w", userID, err)
	}
	return books, nil
}

// Get returns nil, nil when the user has not saved googleID.
func (s *FavoriteService) Get(ctx context.Context, userID, googleID string) (*model.Book, error) {
	googleID = strings.TrimSpace(googleID)
	if googleID == "" {
		return nil, apperror.InvalidInput("googleId", "book must include a googleId")
	}

	book, err := s.repo.GetByGoogleID(ctx, userID, googleID)
	if err != nil {
		return nil, fmt.Errorf("service/favorites: get %s for %s: %w", googleID, userID, err)
	}
	return book, nil
}

// Add stores book unless the user already has its googleId. Both outcomes
// return the stored entry.
func (s *FavoriteService) Add(ctx context.Context, userID string, book model.Book) (*model.Book, error) {
	book.GoogleID = strings.TrimSpace(book.GoogleID)
	if book.GoogleID == "" {
		return nil, apperror.InvalidInput("googleId", "book must include a googleId")
	}
	// The store assigns ids.
	book.ID = ""

	stored, err := s.repo.Add(ctx, userID, book)
	if err != nil {
		return nil, fmt.Errorf("service/favorites: add %s for %s: %w", book.GoogleID, userID, err)
	}

	s.logger.Info("favorite added",
		slog.String("userID", userID),
		slog.String("googleId", stored.GoogleID),
		slog.String("id", stored.ID),
	)
	return stored, nil
}

// Remove deletes the favorite whose internal id or googleId equals id.
func (s *FavoriteService) Remove(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.InvalidInput("id", "book id is required")
	}

	if err := s.repo.Remove(ctx, userID, id); err != nil {
		return fmt.Errorf("service/favorites: remove %s for %s: %w", id, userID, err)
	}

	s.logger.Info("favorite removed", slog.String("userID", userID), slog.String("id", id))
	return nil
}

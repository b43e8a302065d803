// Package service holds the business rules between the HTTP handlers and the
// repositories:
//
//	handler (HTTP) -> service (rules, logging) -> repository (storage)
//
// Services take repository interfaces, never a concrete backend, so the same
// rules run against sqlite, postgres or the in-memory store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/auth"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/repository"
)

// msgMissingCredentials is shown for an empty username or password. Login
// and signup use the same text so neither reveals which field was blank.
const msgMissingCredentials = "Must include username and password"

// AuthService verifies credentials and creates accounts. It never touches
// the session; the handler decides what to store.
//
// SERVICE RESPONSIBILITIES:
//   - Login  → look the user up, compare the bcrypt hash, project to SessionUser
//   - Signup → hash the password, insert the user with no favorites
//
// The plaintext password is only ever handed to auth.PasswordService. It is
// never stored, wrapped into an error or logged.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. passwords decides the bcrypt cost,
// so tests can inject a cheap one.
func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Login returns the session projection of the account matching username
// when password verifies against its stored hash.
//
// Errors:
//   - ErrInvalidInput if either field is empty; the store is not consulted
//   - ErrNotFound "User not found"
//   - ErrUnauthorized "Password is incorrect"
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.SessionUser, error) {
	if username == "" || password == "" {
		return nil, apperror.InvalidInput("username", msgMissingCredentials)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: login %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unreadable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized("Password is incorrect")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user.SessionUser(), nil
}

// Signup creates an account and returns its session projection. A taken
// username surfaces as ErrConflict without saying which field collided.
//
// Errors:
//   - ErrInvalidInput if either field is empty, or the password is longer
//     than bcrypt accepts (auth.MaxPasswordBytes)
//   - ErrConflict from the store on a duplicate username
//   - ErrUnavailable when the store cannot be reached
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.SessionUser, error) {
	if username == "" || password == "" {
		return nil, apperror.InvalidInput("username", msgMissingCredentials)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.InvalidInput("password",
				fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:      username,
		PasswordHash:  hash,
		FavoriteBooks: []model.Book{},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: signup %q: %w", username, err)
	}

	s.logger.Info("user created", slog.String("userID", user.ID))
	return user.SessionUser(), nil
}

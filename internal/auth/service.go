package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 6
	// bcrypt only accepts up to 72 bytes
	maxPasswordBytes = 72
)

type UserStore interface {
	Create(ctx context.Context, user *internal.User) error
	GetByID(ctx context.Context, id string) (*internal.User, error)
	GetByUsername(ctx context.Context, username string) (*internal.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Service owns user accounts and session tokens.
type Service struct {
	users    UserStore
	secret   string
	tokenTTL time.Duration
}

func NewService(users UserStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{users: users, secret: secret, tokenTTL: tokenTTL}
}

func (s *Service) Register(ctx context.Context, username, password string) (*internal.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &internal.User{ID: uuid.NewString(), Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, internal.ErrUsernameTaken
		}
		return nil, fmt.Errorf("auth register: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies the credentials and issues a token. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *internal.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return "", nil, internal.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("auth login: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return "", nil, fmt.Errorf("auth login: %w", err)
	}
	if !ok {
		log.Warn().Str("username", user.Username).Msg("login with wrong password")
		return "", nil, internal.ErrInvalidCredentials
	}

	token, err := SignToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to an existing user.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	claims, err := ValidateToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, fmt.Errorf("auth authenticate: %w", err)
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*internal.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("auth profile: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID, username string) (*internal.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	if err := s.users.UpdateUsername(ctx, userID, username); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, internal.ErrUsernameTaken
		case errors.Is(err, internal.ErrNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("auth update profile: %w", err)
	}

	return s.Profile(ctx, userID)
}

// ChangePassword requires the current password and stores the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validatePassword("newPassword", next); err != nil {
		return err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := CheckPassword(user.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("auth change password: %w", err)
	}
	if !ok {
		return internal.ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("auth change password: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func validateCredentials(username, password string) error {
	fields := map[string]string{}
	if msg := usernameProblem(username); msg != "" {
		fields["username"] = msg
	}
	if msg := passwordProblem(password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		return &internal.ValidationError{Fields: fields}
	}
	return nil
}

func validateUsername(username string) error {
	if msg := usernameProblem(username); msg != "" {
		return internal.NewValidationError("username", msg)
	}
	return nil
}

func validatePassword(field, password string) error {
	if msg := passwordProblem(password); msg != "" {
		return internal.NewValidationError(field, msg)
	}
	return nil
}

func usernameProblem(username string) string {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return fmt.Sprintf("must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	return ""
}

func passwordProblem(password string) string {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Sprintf("must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	}
	return ""
}

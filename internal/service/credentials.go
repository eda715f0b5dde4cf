package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ninetyone/TodoApp/internal/auth"
	"github.com/ninetyone/TodoApp/internal/metrics"
	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenIssuer signs and checks session tokens.
type TokenIssuer interface {
	Issue(userID, access string) (string, error)
	Validate(token, access string) (*auth.Claims, error)
}

// CredentialService owns account creation, sign-in and the token lifecycle.
type CredentialService struct {
	users   store.UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics metrics.Recorder
	now     func() time.Time

	// dummyHash is verified against when the email is unknown so the miss
	// costs the same as a wrong password.
	dummyHash string
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(users store.UserStore, hasher PasswordHasher, tokens TokenIssuer, recorder metrics.Recorder) (*CredentialService, error) {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate dummy password: %w", err)
	}
	dummyHash, err := hasher.Hash(base64.RawStdEncoding.EncodeToString(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy password: %w", err)
	}

	return &CredentialService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   recorder,
		now:       time.Now,
		dummyHash: dummyHash,
	}, nil
}

// Register creates an account and signs it in. It returns the user and its
// first session token.
func (s *CredentialService) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	token, err := s.AppendToken(ctx, user.ID, model.PurposeAuth)
	if err != nil {
		return nil, "", err
	}
	user.Tokens = append(user.Tokens, model.Token{Access: model.PurposeAuth, Token: token})

	return user, token, nil
}

// Login checks the credentials and opens a new session.
func (s *CredentialService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	start := time.Now()
	user, err := s.FindByCredentials(ctx, email, password)
	s.metrics.ObserveLoginDuration(time.Since(start))
	if err != nil {
		s.metrics.IncLogin(metrics.LoginFailed)
		return nil, "", err
	}

	token, err := s.AppendToken(ctx, user.ID, model.PurposeAuth)
	if err != nil {
		s.metrics.IncLogin(metrics.LoginFailed)
		return nil, "", err
	}
	user.Tokens = append(user.Tokens, model.Token{Access: model.PurposeAuth, Token: token})

	s.metrics.IncLogin(metrics.LoginSuccess)
	return user, token, nil
}

// FindByCredentials returns the user whose password matches. Every failure,
// including an unknown email, is ErrAuthFailure.
func (s *CredentialService) FindByCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, ErrAuthFailure
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrAuthFailure
	}

	return user, nil
}

// AppendToken issues a token for access and stores it on the user.
func (s *CredentialService) AppendToken(ctx context.Context, userID, access string) (string, error) {
	token, err := s.tokens.Issue(userID, access)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.users.AppendToken(ctx, userID, model.Token{Access: access, Token: token}); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return token, nil
}

// RemoveToken revokes token. Revoking a token that is already gone succeeds.
func (s *CredentialService) RemoveToken(ctx context.Context, userID, token string) error {
	if err := s.users.RemoveToken(ctx, userID, token); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	s.metrics.IncTokenRevoked()
	return nil
}

// Logout ends the session carrying token.
func (s *CredentialService) Logout(ctx context.Context, userID, token string) error {
	return s.RemoveToken(ctx, userID, token)
}

// FindByValidToken resolves a session token to its user. The signature alone
// is not enough: the user must still hold the token.
func (s *CredentialService) FindByValidToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token, model.PurposeAuth)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}

	user, err := s.users.GetUserByToken(ctx, claims.UserID, model.Token{Access: model.PurposeAuth, Token: token})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrAuthFailure, ErrTokenRevoked)
		}
		return nil, fmt.Errorf("failed to look up token holder: %w", err)
	}

	return user, nil
}

// DeleteAccount removes the user along with its tokens and todos.
func (s *CredentialService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.metrics.IncUserDeleted()
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: token is invalid or expired")
	ErrPasswordMismatch   = errors.New("auth: passwords do not match")
)

// SignupInput is a new account request.
type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// Service registers accounts and issues, refreshes and checks tokens.
type Service struct {
	users  store.UserStorer
	jwt    *JWTManager
	tokens TokenStore
}

func NewService(users store.UserStorer, jwt *JWTManager, tokens TokenStore) *Service {
	if tokens == nil {
		tokens = NopTokenStore{}
	}
	return &Service{users: users, jwt: jwt, tokens: tokens}
}

// Signup creates the account and logs it in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, TokenPair, error) {
	if in.Password != in.ConfirmPassword {
		return nil, TokenPair{}, ErrPasswordMismatch
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user, err := s.users.CreateUser(ctx, &domain.User{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("auth: signup: %w", err)
	}

	pair, err := s.jwt.GeneratePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	log.Printf("INFO: Registered user %d (%s)", user.ID, user.Email)
	return user, pair, nil
}

// Login checks the credentials and issues a token pair. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("auth: login: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.jwt.GeneratePair(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked before anything else, so only one exchange per token succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.jwt.Validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	first, err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: refresh: %w", err)
	}
	if !first {
		return TokenPair{}, fmt.Errorf("%w: refresh token already used", ErrInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return TokenPair{}, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return TokenPair{}, fmt.Errorf("auth: refresh: %w", err)
	}
	return s.jwt.GeneratePair(user)
}

// Authenticate validates an access token.
func (s *Service) Authenticate(accessToken string) (*Claims, error) {
	return s.jwt.Validate(accessToken, TokenTypeAccess)
}

func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: profile: %w", err)
	}
	return user, nil
}

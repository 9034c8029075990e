package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskmanager/db"
	"taskmanager/internal/apperrors"
	"taskmanager/models"

	"github.com/sirupsen/logrus"
)

// AuthService registers users, checks their passwords and resolves bearer
// tokens back to the user they were issued for.
type AuthService struct {
	users      db.UserRepository
	tokens     *TokenIssuer
	bcryptCost int
	log        logrus.FieldLogger
	// compared against when the username is unknown so both paths cost one bcrypt check
	dummyHash string
}

func NewAuthService(users db.UserRepository, tokens *TokenIssuer, bcryptCost int, log logrus.FieldLogger) *AuthService {
	dummy, err := HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		log.WithError(err).Warn("AuthService: could not prepare dummy hash")
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log,
		dummyHash:  dummy,
	}
}

// Register stores a new user with a hashed password
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "username and password are required")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		if apperrors.CodeOf(err) != apperrors.CodeUnknown {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to hash password", err)
	}

	user := &models.User{
		ID:           db.GenerateID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.CodeDuplicateUsername, "username already registered", err)
		}
		s.log.WithError(err).Error("AuthService.Register: store rejected user")
		return nil, apperrors.Storage("failed to register user", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return user, nil
}

// Authenticate verifies the password against the stored hash and issues a token
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			if s.dummyHash != "" {
				CheckPassword(s.dummyHash, password)
			}
			return "", apperrors.ErrInvalidCredentials
		}
		return "", apperrors.Storage("failed to look up user", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.log.WithField("username", user.Username).Info("AuthService.Authenticate: password mismatch")
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateJWT(user.Username)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnknown, "failed to generate token", err)
	}
	return token, nil
}

// ResolveIdentity returns the user a valid token was issued for
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	claims, err := s.tokens.ParseJWT(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeInvalidToken, "invalid token")
		}
		return nil, apperrors.Storage("failed to resolve identity", err)
	}
	return user, nil
}

package services

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

import (
	"context"
	"errors"

	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/sbilibin2017/gw-recipe-book/internal/password"
	"github.com/sbilibin2017/gw-recipe-book/internal/repositories"
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
	GetActiveByName(ctx context.Context, name string) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, name, passwordHash string) (int64, error)
	Update(ctx context.Context, id int64, name, passwordHash string) (bool, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

// PasswordHasher produces and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) error
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID int64) (string, error)
}

// AuthService handles accounts: registration, login and self-service.
type AuthService struct {
	reader UserReader
	writer UserWriter
	hasher PasswordHasher
	jwt    JWTGenerator
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, hasher PasswordHasher, jwt JWTGenerator) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a user and returns its id.
func (svc *AuthService) Register(ctx context.Context, name, password string) (int64, error) {
	user, err := svc.reader.GetActiveByName(ctx, name)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return 0, err
	}
	if user != nil {
		logger.Log.Infow("user already exists", "name", name)
		return 0, ErrUserAlreadyExists
	}

	digest, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return 0, err
	}

	id, err := svc.writer.Save(ctx, name, digest)
	if errors.Is(err, repositories.ErrDuplicate) {
		logger.Log.Infow("user already exists", "name", name)
		return 0, ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to save user", "err", err)
		return 0, err
	}

	return id, nil
}

// Login authenticates a user and returns a JWT token.
func (svc *AuthService) Login(ctx context.Context, name, pass string) (string, error) {
	user, err := svc.reader.GetActiveByName(ctx, name)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", err
	}
	if user == nil {
		logger.Log.Infow("user does not exist", "name", name)
		return "", ErrUserDoesNotExist
	}

	if err := svc.hasher.Verify(pass, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			logger.Log.Infow("invalid credentials", "name", name)
			return "", ErrInvalidCredentials
		}
		logger.Log.Errorw("failed to verify password", "err", err)
		return "", err
	}

	token, err := svc.jwt.Generate(ctx, user.ID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	return token, nil
}

// Profile returns the non-deleted account id.
func (svc *AuthService) Profile(ctx context.Context, id int64) (*models.User, error) {
	user, err := svc.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "id", id, "err", err)
		return nil, err
	}
	if user == nil || user.Deleted {
		return nil, ErrNotFound
	}
	return user.ToUser(), nil
}

// UpdateAccount replaces the name and password of account id.
func (svc *AuthService) UpdateAccount(ctx context.Context, id int64, name, password string) error {
	digest, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	ok, err := svc.writer.Update(ctx, id, name, digest)
	if errors.Is(err, repositories.ErrDuplicate) {
		return ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to update user", "id", id, "err", err)
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount soft-deletes account id. Tokens already issued for it stop
// authorizing recipe creation immediately.
func (svc *AuthService) DeleteAccount(ctx context.Context, id int64) error {
	ok, err := svc.writer.SoftDelete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete user", "id", id, "err", err)
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

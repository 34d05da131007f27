package user

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/auth"
	"github.com/nekogravitycat/event-planner/internal/file"
	"github.com/nekogravitycat/event-planner/internal/model"
)

// Service defines business logic related to users.
type Service interface {
	// Signup creates the account and stores the optional profile image.
	Signup(ctx context.Context, name, email, password string, image *multipart.FileHeader) (*User, error)
	// Login authenticates by name or, when name is empty, by email.
	Login(ctx context.Context, name, email, password string) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	Images(ctx context.Context, userID int64) ([]model.Image, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	files  file.Service
	log    *zap.Logger

	minPasswordLength int
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher, files file.Service, log *zap.Logger) Service {
	return &service{
		repo:              repo,
		hasher:            hasher,
		files:             files,
		log:               log,
		minPasswordLength: 6,
	}
}

func (s *service) Signup(ctx context.Context, name, email, password string, image *multipart.FileHeader) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, ErrIdentifierRequired
	}
	if len(password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if image != nil {
		if _, err := s.files.Save(ctx, file.OwnerUser, u.ID, []*multipart.FileHeader{image}); err != nil {
			// Keep signup atomic from the caller's view.
			if delErr := s.repo.Delete(ctx, u.ID); delErr != nil {
				s.log.Error("failed to roll back user after image error", zap.Int64("user_id", u.ID), zap.Error(delErr))
			}
			return nil, err
		}
	}

	s.log.Info("user signed up", zap.Int64("user_id", u.ID), zap.String("name", u.Name))
	return u, nil
}

func (s *service) Login(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" && email == "" {
		return nil, ErrIdentifierRequired
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		u   *User
		err error
	)
	if name != "" {
		u, err = s.repo.GetByName(ctx, name)
	} else {
		u, err = s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *service) GetByName(ctx context.Context, name string) (*User, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *service) Images(ctx context.Context, userID int64) ([]model.Image, error) {
	byOwner, err := s.files.ImagesFor(ctx, file.OwnerUser, []int64{userID})
	if err != nil {
		return nil, err
	}
	if imgs := byOwner[userID]; imgs != nil {
		return imgs, nil
	}
	return []model.Image{}, nil
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

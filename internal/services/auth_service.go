package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"metrika/internal/authz"
	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/utils"
)

// AuthService хранит пароли и refresh-токены. Подпись JWT делает middleware.
type AuthService interface {
	HashPassword(plain string) (string, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	IssueRefresh(ctx context.Context, userID int64) (string, error)
	Rotate(ctx context.Context, refreshToken string) (*models.User, string, error)
	Logout(ctx context.Context, userID int64) error
}

type authService struct {
	users      repositories.UserRepository
	refreshTTL time.Duration
}

func NewAuthService(users repositories.UserRepository, refreshTTL time.Duration) AuthService {
	return &authService{users: users, refreshTTL: refreshTTL}
}

func (s *authService) HashPassword(plain string) (string, error) {
	if strings.TrimSpace(plain) == "" {
		return "", fmt.Errorf("%w: password is required", ErrValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s is taken: %w", email, ErrConflict)
	}
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		RoleID:       authz.RoleMember,
		Status:       models.UserOnline,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate отмечает пользователя online при успешном входе.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.users.SetStatus(ctx, u.ID, models.UserOnline); err != nil {
		return nil, err
	}
	u.Status = models.UserOnline
	return u, nil
}

func (s *authService) IssueRefresh(ctx context.Context, userID int64) (string, error) {
	rt, err := utils.NewRefreshToken()
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateRefresh(ctx, userID, rt, time.Now().Add(s.refreshTTL)); err != nil {
		return "", err
	}
	return rt, nil
}

func (s *authService) Rotate(ctx context.Context, refreshToken string) (*models.User, string, error) {
	old := strings.TrimSpace(refreshToken)
	if old == "" {
		return nil, "", ErrInvalidCredentials
	}
	next, err := utils.NewRefreshToken()
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.RotateRefresh(ctx, old, next, time.Now().Add(s.refreshTTL))
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", ErrInvalidCredentials
	}
	return u, next, nil
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.ClearRefresh(ctx, userID); err != nil {
		return err
	}
	return s.users.SetStatus(ctx, userID, models.UserOffline)
}

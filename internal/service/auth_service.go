package service

import (
	"errors"

	"rostra/config"
	"rostra/internal/auth"
	"rostra/internal/models"
	"rostra/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCreds = errors.New("invalid username or password")

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) Login(workspaceID uint64, username, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByUsername(workspaceID, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if u.PasswordHash == "" {
		return nil, "", "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	roleID := ""
	if u.RoleID != nil {
		roleID = *u.RoleID
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.WorkspaceID, u.Username, roleID)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) Refresh(refreshToken string) (string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	roleID := ""
	if u.RoleID != nil {
		roleID = *u.RoleID
	}
	return auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.WorkspaceID, u.Username, roleID)
}

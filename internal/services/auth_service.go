package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/estudio-tools/workflow-api/internal/constants"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication and user administration.
type AuthService struct {
	userRepo repository.UserRepository
	areaRepo repository.AreaRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, areaRepo repository.AreaRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		areaRepo: areaRepo,
	}
}

// LoginInput represents login credentials.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateUserInput represents the information needed to register a user.
// User creation is an admin operation; there is no self-service signup.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     models.Role
	IsAdmin  bool
	AreaIDs  []uint64
}

// CreateUser registers a new user with their area memberships.
func (s *AuthService) CreateUser(input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	role := input.Role
	if role == "" {
		role = models.RoleUsuario
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Role:         role,
		IsAdmin:      input.IsAdmin,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if len(input.AreaIDs) > 0 {
		areas := make([]models.Area, 0, len(input.AreaIDs))
		for _, id := range uniqueUint64(input.AreaIDs) {
			area, err := s.areaRepo.FindByID(id)
			if err != nil {
				return nil, fmt.Errorf("failed to find area %d: %w", id, err)
			}
			areas = append(areas, *area)
		}
		if err := s.userRepo.ReplaceAreas(user, areas); err != nil {
			return nil, fmt.Errorf("failed to set area memberships: %w", err)
		}
	}

	return s.userRepo.FindByID(user.ID)
}

// GetUser returns a user by ID with area memberships.
func (s *AuthService) GetUser(userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns the users visible under the caller's scope.
func (s *AuthService) ListUsers(scope Scope) ([]models.User, error) {
	return s.userRepo.List(scope.All, scope.AreaIDs)
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rafiq/internal/models"
)

// UserService manages citizen accounts.
type UserService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewUserService creates a user service.
func NewUserService(db *gorm.DB, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.New()
	}

	return &UserService{
		db:     db,
		logger: logger,
	}
}

// RegisterRequest creates a citizen account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password")

// ErrEmailTaken reports a duplicate registration.
var ErrEmailTaken = fmt.Errorf("email already registered")

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	language := req.Language
	if language != "ar" {
		language = "fr"
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     "citizen",
		Language: language,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("Registered user %d", user.ID)

	return user, nil
}

// Authenticate checks a login and stamps last_login on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", &now)

	return &user, nil
}

// GetByID loads one account.
func (s *UserService) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &user, nil
}

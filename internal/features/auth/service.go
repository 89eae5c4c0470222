package auth

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/internal/utils/jwt"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      types.Role
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

type TokenConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Register creates the account and issues a token for it. Role defaults to student.
func Register(db *gorm.DB, input RegisterInput, cfg TokenConfig) (*AuthResponse, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	newUser, err := user.Create(db, user.CreateInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
		Role:      input.Role,
	})
	if err != nil {
		return nil, err
	}

	token, err := jwt.GenerateAccessToken(newUser.ID, newUser.Role, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: &newUser}, nil
}

// Login verifies credentials, records the login and issues a token.
// Unknown emails and wrong passwords share ErrInvalidCredentials.
func Login(db *gorm.DB, input LoginInput, cfg TokenConfig) (*AuthResponse, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	usr, err := user.GetByEmail(db, input.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !usr.CheckPassword(input.Password) {
		return nil, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return nil, ErrInactiveAccount
	}

	now := time.Now().UTC()
	if err := user.RecordLogin(db, usr.ID, now); err != nil {
		return nil, err
	}
	usr.LastLogin = &now
	usr.LoginCount++

	token, err := jwt.GenerateAccessToken(usr.ID, usr.Role, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: &usr}, nil
}

package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/utils/jwt"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	pkgmiddleware "github.com/mo-amir99/coursehub-server-go/pkg/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

const identityKey = "identity"

// Identity is the minimal view of the caller attached to authenticated requests.
type Identity struct {
	ID    uuid.UUID
	Role  types.Role
	Email string
}

// account reads only the columns the gate needs from the users table.
type account struct {
	ID       uuid.UUID  `gorm:"column:id;primaryKey"`
	Email    string     `gorm:"column:email"`
	Role     types.Role `gorm:"column:role"`
	IsActive bool       `gorm:"column:is_active"`
}

func (account) TableName() string { return "users" }

var errNoToken = errors.New("no bearer token")

// AuthMiddleware resolves bearer tokens into an Identity.
type AuthMiddleware struct {
	db        *gorm.DB
	jwtSecret string
	logger    *slog.Logger
}

func NewAuthMiddleware(db *gorm.DB, jwtSecret string, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{db: db, jwtSecret: jwtSecret, logger: logger}
}

// Authenticate rejects the request with 401 unless a valid token resolves to an active user.
// Missing, malformed, expired and unknown-user cases share the same error code.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); ok {
			c.Next()
			return
		}

		id, err := m.resolve(c)
		if err != nil {
			response.FromError(m.logger, c, err, "Not authenticated")
			c.Abort()
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuthenticate attaches an identity when a valid token is present and never rejects.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			if id, err := m.resolve(c); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

// RequireRoles authenticates the caller and then checks the role with 403 on mismatch.
func (m *AuthMiddleware) RequireRoles(roles ...types.Role) []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Authenticate(), AuthorizeRoles(m.logger, roles...)}
}

// AuthorizeRoles must run after Authenticate.
func AuthorizeRoles(logger *slog.Logger, roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			response.FromError(logger, c, apperrors.Unauthorized("Not authenticated", nil), "")
			c.Abort()
			return
		}

		for _, role := range roles {
			if id.Role == role {
				c.Next()
				return
			}
		}

		response.FromError(logger, c, apperrors.Forbidden("Access denied: insufficient permissions.", nil), "")
		c.Abort()
	}
}

// GetIdentity retrieves the authenticated caller from the Gin context.
func GetIdentity(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := value.(Identity)
	return id, ok
}

// SetIdentity attaches an identity directly. Used by handler tests.
func SetIdentity(c *gin.Context, id Identity) {
	setIdentity(c, id)
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set(pkgmiddleware.UserIDKey, id.ID.String())
}

func (m *AuthMiddleware) resolve(c *gin.Context) (Identity, error) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return Identity{}, apperrors.Unauthorized("No token provided", err)
	}

	claims, err := jwt.VerifyToken(token, m.jwtSecret)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, jwt.ErrExpiredToken) {
			msg = "Token expired"
		}
		return Identity{}, apperrors.Unauthorized(msg, err)
	}

	var acc account
	err = m.db.WithContext(c.Request.Context()).
		Select("id", "email", "role", "is_active").
		First(&acc, "id = ?", claims.UserID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Identity{}, apperrors.Unauthorized("Invalid token", err)
	case err != nil:
		return Identity{}, apperrors.Internal("Internal server error", err)
	case !acc.IsActive:
		return Identity{}, apperrors.Unauthorized("Account is deactivated", nil)
	}

	// The stored role wins over the token claim.
	return Identity{ID: acc.ID, Role: acc.Role, Email: acc.Email}, nil
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/request"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

// Handler processes authentication HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	cfg    *config.Config
}

// NewHandler constructs an auth handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cfg *config.Config) *Handler {
	return &Handler{db: db, logger: logger, cfg: cfg}
}

type registerRequest struct {
	FirstName string     `json:"firstName" binding:"required,max=50"`
	LastName  string     `json:"lastName" binding:"required,max=50"`
	Email     string     `json:"email" binding:"required,email"`
	Password  string     `json:"password" binding:"required,min=8"`
	Role      types.Role `json:"role" binding:"omitempty,oneof=student instructor"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account and returns {token, user}.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	authResp, err := Register(h.db.WithContext(c.Request.Context()), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	}, h.tokenConfig())
	if err != nil {
		h.respondError(c, err, "Registration failed.")
		return
	}

	h.logger.Info("user registered",
		slog.String("userId", authResp.User.ID.String()),
		slog.String("role", string(authResp.User.Role)))
	response.Created(c, authResp, "Registration successful")
}

// Login authenticates a user and returns {token, user}.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	authResp, err := Login(h.db.WithContext(c.Request.Context()), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, h.tokenConfig())
	if err != nil {
		h.respondError(c, err, "Login failed.")
		return
	}

	response.SuccessNoCache(c, http.StatusOK, authResp, "Login successful")
}

func (h *Handler) tokenConfig() TokenConfig {
	return TokenConfig{JWTSecret: h.cfg.JWTSecret, TokenTTL: h.cfg.TokenTTL}
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveAccount):
		err = apperrors.Unauthorized(err.Error(), err)
	case errors.Is(err, ErrMissingFields):
		err = apperrors.Validation(err.Error(), nil, err)
	case errors.Is(err, user.ErrEmailTaken):
		err = apperrors.Conflict("Email already exists.", err)
	case errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidPassword),
		errors.Is(err, user.ErrNameRequired),
		errors.Is(err, user.ErrNameTooLong),
		errors.Is(err, user.ErrInvalidRole):
		err = apperrors.Validation(err.Error(), []string{err.Error()}, err)
	}

	response.FromError(h.logger, c, err, fallback)
}

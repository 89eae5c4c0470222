package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/media"
	"github.com/mo-amir99/coursehub-server-go/pkg/request"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
)

// Handler processes profile HTTP requests for the authenticated user.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	store  media.Store
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, store media.Store) *Handler {
	return &Handler{db: db, logger: logger, store: store}
}

type updateProfileRequest struct {
	FirstName     *string   `json:"firstName" binding:"omitempty,max=50"`
	LastName      *string   `json:"lastName" binding:"omitempty,max=50"`
	Bio           *string   `json:"bio" binding:"omitempty,max=2000"`
	Headline      *string   `json:"headline" binding:"omitempty,max=120"`
	Expertise     *[]string `json:"expertise" binding:"omitempty,max=20"`
	LearningGoals *[]string `json:"learningGoals" binding:"omitempty,max=20"`
}

type onboardingRequest struct {
	Answers       map[string]string `json:"answers"`
	Headline      *string           `json:"headline" binding:"omitempty,max=120"`
	Expertise     []string          `json:"expertise" binding:"omitempty,max=20"`
	LearningGoals []string          `json:"learningGoals" binding:"omitempty,max=20"`
}

// GetProfile returns the caller's account without the password hash.
func (h *Handler) GetProfile(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	u, err := Get(h.db.WithContext(c.Request.Context()), identity.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load profile.")
		return
	}

	response.SuccessNoCache(c, http.StatusOK, u, "")
}

// UpdateProfile applies a partial update to the caller's profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	var req updateProfileRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	u, err := Update(h.db.WithContext(c.Request.Context()), identity.ID, UpdateInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Bio:           req.Bio,
		Headline:      req.Headline,
		Expertise:     req.Expertise,
		LearningGoals: req.LearningGoals,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update profile.")
		return
	}

	response.Success(c, http.StatusOK, u, "Profile updated.", nil)
}

// Deactivate disables the caller's account. Existing tokens stop working immediately.
func (h *Handler) Deactivate(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	if err := Deactivate(h.db.WithContext(c.Request.Context()), identity.ID); err != nil {
		h.respondError(c, err, "Failed to deactivate account.")
		return
	}

	h.logger.Info("account deactivated", slog.String("userId", identity.ID.String()))
	response.Success(c, http.StatusOK, nil, "Account deactivated.", nil)
}

// CompleteOnboarding stores onboarding answers and marks the caller as onboarded.
func (h *Handler) CompleteOnboarding(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	var req onboardingRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	u, err := CompleteOnboarding(h.db.WithContext(c.Request.Context()), identity.ID, OnboardingInput{
		Answers:       req.Answers,
		Headline:      req.Headline,
		Expertise:     req.Expertise,
		LearningGoals: req.LearningGoals,
	})
	if err != nil {
		h.respondError(c, err, "Failed to complete onboarding.")
		return
	}

	response.Success(c, http.StatusOK, u, "Onboarding completed.", nil)
}

// UploadAvatar replaces the caller's profile image. The previous asset is removed best-effort.
func (h *Handler) UploadAvatar(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		h.respondError(c, apperrors.Validation("avatar file is required", nil, err), "")
		return
	}

	img, err := media.ReadImage(fh)
	if err != nil {
		h.respondError(c, err, "Failed to read avatar.")
		return
	}

	ctx := c.Request.Context()
	asset, err := h.store.Upload(ctx, media.ObjectPath("avatars", identity.ID.String(), img), img.Data, img.MIME)
	if err != nil {
		h.respondError(c, err, "Failed to upload avatar.")
		return
	}

	previous, err := SetProfileImage(h.db.WithContext(ctx), identity.ID, asset.URL, asset.Path)
	if err != nil {
		if delErr := h.store.Delete(ctx, asset.Path); delErr != nil {
			h.logger.Warn("failed to remove orphaned avatar", slog.String("path", asset.Path), slog.String("error", delErr.Error()))
		}
		h.respondError(c, err, "Failed to save avatar.")
		return
	}

	if previous != "" && previous != asset.Path {
		if err := h.store.Delete(ctx, previous); err != nil {
			h.logger.Warn("failed to delete previous avatar", slog.String("path", previous), slog.String("error", err.Error()))
		}
	}

	response.Success(c, http.StatusOK, gin.H{"profileImage": asset.URL}, "Avatar updated.", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		err = apperrors.NotFound("User not found.", err)
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrNameTooLong),
		errors.Is(err, ErrInstructorOnly),
		errors.Is(err, ErrStudentOnly),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, media.ErrEmptyFile):
		err = apperrors.Validation(err.Error(), []string{err.Error()}, err)
	case errors.Is(err, ErrAlreadyOnboarded), errors.Is(err, ErrEmailTaken):
		err = apperrors.Conflict(err.Error(), err)
	case errors.Is(err, media.ErrTooLarge):
		err = apperrors.New(err.Error(), http.StatusRequestEntityTooLarge, apperrors.ErrPayloadTooLarge, err)
	case errors.Is(err, media.ErrUnsupportedType):
		err = apperrors.New(err.Error(), http.StatusUnsupportedMediaType, apperrors.ErrUnsupportedMedia, err)
	case errors.Is(err, media.ErrUnavailable):
		err = apperrors.New("Media storage is unavailable.", http.StatusServiceUnavailable, apperrors.ErrUnavailable, err)
	}

	response.FromError(h.logger, c, err, fallback)
}

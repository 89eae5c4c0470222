package wishlist

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/internal/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
	"github.com/mo-amir99/coursehub-server-go/pkg/request"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
)

// Handler serves the caller's wishlist.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

type status struct {
	CourseID   uuid.UUID `json:"courseId"`
	InWishlist bool      `json:"inWishlist"`
}

func (h *Handler) Add(c *gin.Context) {
	identity, courseID, ok := h.target(c)
	if !ok {
		return
	}

	added, err := Add(h.db.WithContext(c.Request.Context()), identity.ID, courseID)
	if err != nil {
		h.respondError(c, err, "Failed to update wishlist.")
		return
	}
	if added {
		metrics.RecordWishlist("add")
	}

	response.Success(c, http.StatusOK, status{CourseID: courseID, InWishlist: true}, "Course added to wishlist.", nil)
}

func (h *Handler) Remove(c *gin.Context) {
	identity, courseID, ok := h.target(c)
	if !ok {
		return
	}

	removed, err := Remove(h.db.WithContext(c.Request.Context()), identity.ID, courseID)
	if err != nil {
		h.respondError(c, err, "Failed to update wishlist.")
		return
	}
	if removed {
		metrics.RecordWishlist("remove")
	}

	response.Success(c, http.StatusOK, status{CourseID: courseID, InWishlist: false}, "Course removed from wishlist.", nil)
}

func (h *Handler) Check(c *gin.Context) {
	identity, courseID, ok := h.target(c)
	if !ok {
		return
	}

	present, err := Contains(h.db.WithContext(c.Request.Context()), identity.ID, courseID)
	if err != nil {
		h.respondError(c, err, "Failed to check wishlist.")
		return
	}

	response.SuccessNoCache(c, http.StatusOK, status{CourseID: courseID, InWishlist: present}, "")
}

func (h *Handler) List(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	courses, err := List(h.db.WithContext(c.Request.Context()), identity.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load wishlist.")
		return
	}

	response.SuccessNoCache(c, http.StatusOK, courses, "")
}

func (h *Handler) target(c *gin.Context) (middleware.Identity, uuid.UUID, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return identity, uuid.Nil, false
	}
	courseID, err := request.ParseID(c, "courseId")
	if err != nil {
		h.respondError(c, err, "")
		return identity, uuid.Nil, false
	}
	return identity, courseID, true
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCourseUnavailable):
		err = apperrors.NotFound("Course not found.", err)
	case errors.Is(err, user.ErrUserNotFound):
		err = apperrors.Unauthorized("Not authenticated", err)
	}

	response.FromError(h.logger, c, err, fallback)
}

package enrollment

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/internal/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
	"github.com/mo-amir99/coursehub-server-go/pkg/request"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
)

// Handler processes enrollment HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs an enrollment handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

type progressRequest struct {
	Progress *int `json:"progress" binding:"required,min=0,max=100"`
}

// Enroll adds the course to the caller's enrollments. Re-enrolling returns 200 with the existing entry.
func (h *Handler) Enroll(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}
	courseID, err := request.ParseID(c, "courseId")
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	result, err := Enroll(h.db.WithContext(c.Request.Context()), identity.ID, courseID, time.Now().UTC())
	if err != nil {
		metrics.RecordEnrollment("failed")
		h.respondError(c, err, "Failed to enroll.")
		return
	}

	if !result.Created {
		metrics.RecordEnrollment("duplicate")
		response.Success(c, http.StatusOK, result, "Already enrolled in this course.", nil)
		return
	}

	metrics.RecordEnrollment("created")
	h.logger.Info("user enrolled",
		slog.String("userId", identity.ID.String()),
		slog.String("courseId", courseID.String()))
	response.Created(c, result, "Enrolled successfully.")
}

// List returns the caller's enrollments with live course summaries.
func (h *Handler) List(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	params := pagination.Extract(c)
	entries, total, err := List(h.db.WithContext(c.Request.Context()), identity.ID, params)
	if err != nil {
		h.respondError(c, err, "Failed to list enrollments.")
		return
	}

	response.Success(c, http.StatusOK, entries, "", pagination.MetadataFrom(total, params))
}

// UpdateProgress stores the caller's progress in an enrolled course.
func (h *Handler) UpdateProgress(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}
	courseID, err := request.ParseID(c, "courseId")
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	var req progressRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	entry, err := UpdateProgress(h.db.WithContext(c.Request.Context()), identity.ID, courseID, *req.Progress, time.Now().UTC())
	if err != nil {
		h.respondError(c, err, "Failed to update progress.")
		return
	}

	response.Success(c, http.StatusOK, entry, "Progress updated.", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCourseUnavailable):
		err = apperrors.NotFound("Course not found.", err)
	case errors.Is(err, ErrNotEnrolled):
		err = apperrors.NotFound("You are not enrolled in this course.", err)
	case errors.Is(err, ErrInvalidProgress):
		err = apperrors.Validation(err.Error(), []string{err.Error()}, err)
	case errors.Is(err, user.ErrUserNotFound):
		err = apperrors.Unauthorized("Not authenticated", err)
	}

	response.FromError(h.logger, c, err, fallback)
}

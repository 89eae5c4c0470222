package course

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/authoring"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/internal/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/cache"
	"github.com/mo-amir99/coursehub-server-go/pkg/media"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
	"github.com/mo-amir99/coursehub-server-go/pkg/pagination"
	"github.com/mo-amir99/coursehub-server-go/pkg/request"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

// Handler processes course authoring HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	store  media.Store
	cache  cache.Client
}

// NewHandler constructs a course handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, store media.Store, cacheClient cache.Client) *Handler {
	return &Handler{db: db, logger: logger, store: store, cache: cacheClient}
}

type createCourseRequest struct {
	Title          string       `json:"title" binding:"required,max=60"`
	Subtitle       string       `json:"subtitle" binding:"max=120"`
	CourseType     CourseType   `json:"courseType" binding:"required,oneof=course practice-test"`
	Category       string       `json:"category" binding:"required,max=100"`
	TimeCommitment string       `json:"timeCommitment" binding:"required,max=50"`
	Description    string       `json:"description"`
	Price          *types.Money `json:"price"`
	Language       string       `json:"language" binding:"max=50"`
	Level          string       `json:"level"`
}

type updateCourseRequest struct {
	Revision       *int         `json:"revision" binding:"required"`
	Title          *string      `json:"title" binding:"omitempty,max=60"`
	Subtitle       *string      `json:"subtitle" binding:"omitempty,max=120"`
	CourseType     *CourseType  `json:"courseType" binding:"omitempty,oneof=course practice-test"`
	Category       *string      `json:"category" binding:"omitempty,max=100"`
	TimeCommitment *string      `json:"timeCommitment" binding:"omitempty,max=50"`
	Description    *string      `json:"description"`
	Price          *types.Money `json:"price"`
	Language       *string      `json:"language" binding:"omitempty,max=50"`
	Level          *string      `json:"level"`
	IsActive       *bool        `json:"isActive"`

	// Rejected when present; status only moves through the action endpoints.
	Status       *string `json:"status"`
	InstructorID *string `json:"instructorId"`
}

type curriculumRequest struct {
	Revision *int      `json:"revision" binding:"required"`
	Sections []Section `json:"sections"`
}

// Create starts a draft course owned by the caller.
func (h *Handler) Create(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	var req createCourseRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	course, err := Create(h.db.WithContext(ctx), CreateInput{
		InstructorID:   identity.ID,
		Title:          req.Title,
		Subtitle:       req.Subtitle,
		CourseType:     req.CourseType,
		Category:       req.Category,
		TimeCommitment: req.TimeCommitment,
		Description:    req.Description,
		Price:          req.Price,
		Language:       req.Language,
		Level:          req.Level,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create course.")
		return
	}

	metrics.RecordCourseTransition(string(course.Status))
	h.invalidateCatalog(ctx)
	response.Created(c, course, "Course created.")
}

// GetByID returns a course. Hidden courses are visible to their owner only;
// payloads of non-preview items are stripped unless the caller owns or is enrolled in the course.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := request.ParseID(c, "id")
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	db := h.db.WithContext(c.Request.Context())
	course, err := Get(db, id)
	if err != nil {
		h.respondError(c, err, "Failed to load course.")
		return
	}

	identity, authenticated := middleware.GetIdentity(c)
	owner := authenticated && course.OwnedBy(identity.ID)
	if !course.Visible() && !owner {
		h.respondError(c, ErrCourseNotFound, "")
		return
	}

	fullAccess := owner
	if !fullAccess && authenticated {
		fullAccess, err = user.IsEnrolled(db, identity.ID, course.ID)
		if err != nil {
			h.respondError(c, err, "Failed to load course.")
			return
		}
	}

	detail, err := BuildDetail(db, course, fullAccess)
	if err != nil {
		h.respondError(c, err, "Failed to load course.")
		return
	}

	response.Success(c, http.StatusOK, detail, "", nil)
}

// ListMine returns every course the caller owns, in any status.
func (h *Handler) ListMine(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return
	}

	filters := InstructorFilters{InstructorID: identity.ID}
	if status := c.Query("status"); status != "" {
		switch Status(status) {
		case StatusDraft, StatusPublished, StatusArchived:
			filters.Status = Status(status)
		default:
			h.respondError(c, apperrors.Validation("Invalid status filter.", []string{"status must be one of: draft, published, archived"}, nil), "")
			return
		}
	}

	params := pagination.Extract(c)
	courses, total, err := ListByInstructor(h.db.WithContext(c.Request.Context()), filters, params)
	if err != nil {
		h.respondError(c, err, "Failed to list courses.")
		return
	}

	response.Success(c, http.StatusOK, courses, "", pagination.MetadataFrom(total, params))
}

// Update merges a partial update into the caller's course.
func (h *Handler) Update(c *gin.Context) {
	identity, id, ok := h.ownerRequest(c)
	if !ok {
		return
	}

	var req updateCourseRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}
	if req.Status != nil || req.InstructorID != nil {
		h.respondError(c, ErrImmutableField, "")
		return
	}

	ctx := c.Request.Context()
	course, err := Update(h.db.WithContext(ctx), id, identity.ID, UpdateInput{
		Revision:       *req.Revision,
		Title:          req.Title,
		Subtitle:       req.Subtitle,
		CourseType:     req.CourseType,
		Category:       req.Category,
		TimeCommitment: req.TimeCommitment,
		Description:    req.Description,
		Price:          req.Price,
		Language:       req.Language,
		Level:          req.Level,
		IsActive:       req.IsActive,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update course.")
		return
	}

	h.invalidateCatalog(ctx)
	response.Success(c, http.StatusOK, course, "Course updated.", nil)
}

// UpdateCurriculum replaces the caller's section tree.
func (h *Handler) UpdateCurriculum(c *gin.Context) {
	identity, id, ok := h.ownerRequest(c)
	if !ok {
		return
	}

	var req curriculumRequest
	if err := request.BindJSON(c, &req); err != nil {
		h.respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	course, err := ReplaceCurriculum(h.db.WithContext(ctx), id, identity.ID, *req.Revision, req.Sections)
	if err != nil {
		h.respondError(c, err, "Failed to update curriculum.")
		return
	}

	h.invalidateCatalog(ctx)
	response.Success(c, http.StatusOK, course, "Curriculum updated.", nil)
}

// Transition returns a handler applying action to the caller's course.
func (h *Handler) Transition(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, id, ok := h.ownerRequest(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		course, err := Transition(h.db.WithContext(ctx), id, identity.ID, action, time.Now().UTC())
		if err != nil {
			h.respondError(c, err, "Failed to change course status.")
			return
		}

		metrics.RecordCourseTransition(string(course.Status))
		h.invalidateCatalog(ctx)
		h.logger.Info("course status changed",
			slog.String("courseId", course.ID.String()),
			slog.String("action", string(action)),
			slog.String("status", string(course.Status)))
		response.Success(c, http.StatusOK, course, "Course status updated.", nil)
	}
}

// Authoring returns the workflow view for the caller's course.
func (h *Handler) Authoring(c *gin.Context) {
	identity, id, ok := h.ownerRequest(c)
	if !ok {
		return
	}

	course, err := GetOwned(h.db.WithContext(c.Request.Context()), id, identity.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load course.")
		return
	}

	progress := authoring.Evaluate(course.Snapshot())
	if raw := c.Query("step"); raw != "" {
		step, err := authoring.ParseStep(raw)
		if err != nil {
			h.respondError(c, err, "Failed to load course.")
			return
		}
		response.SuccessNoCache(c, http.StatusOK, progress.State(step), "")
		return
	}

	response.SuccessNoCache(c, http.StatusOK, progress, "")
}

// Delete hard-deletes the caller's course and removes its thumbnail best-effort.
func (h *Handler) Delete(c *gin.Context) {
	identity, id, ok := h.ownerRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	course, err := Delete(h.db.WithContext(ctx), id, identity.ID)
	if err != nil {
		h.respondError(c, err, "Failed to delete course.")
		return
	}

	if course.ThumbnailID != "" {
		if err := h.store.Delete(ctx, course.ThumbnailID); err != nil {
			h.logger.Warn("failed to delete course thumbnail",
				slog.String("courseId", course.ID.String()),
				slog.String("path", course.ThumbnailID),
				slog.String("error", err.Error()))
		}
	}

	h.invalidateCatalog(ctx)
	response.Success(c, http.StatusOK, nil, "Course deleted.", nil)
}

// UpdateThumbnail uploads a new thumbnail image for the caller's course.
func (h *Handler) UpdateThumbnail(c *gin.Context) {
	identity, id, ok := h.ownerRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)
	if _, err := GetOwned(db, id, identity.ID); err != nil {
		h.respondError(c, err, "Failed to load course.")
		return
	}

	fh, err := c.FormFile("thumbnail")
	if err != nil {
		h.respondError(c, apperrors.Validation("thumbnail file is required", nil, err), "")
		return
	}
	img, err := media.ReadImage(fh)
	if err != nil {
		h.respondError(c, err, "Failed to read thumbnail.")
		return
	}

	asset, err := h.store.Upload(ctx, media.ObjectPath("thumbnails", id.String(), img), img.Data, img.MIME)
	if err != nil {
		h.respondError(c, err, "Failed to upload thumbnail.")
		return
	}

	course, previous, err := SetThumbnail(db, id, identity.ID, asset.URL, asset.Path)
	if err != nil {
		if delErr := h.store.Delete(ctx, asset.Path); delErr != nil {
			h.logger.Warn("failed to remove orphaned thumbnail", slog.String("path", asset.Path), slog.String("error", delErr.Error()))
		}
		h.respondError(c, err, "Failed to save thumbnail.")
		return
	}
	if previous != "" && previous != asset.Path {
		if err := h.store.Delete(ctx, previous); err != nil {
			h.logger.Warn("failed to delete previous thumbnail", slog.String("path", previous), slog.String("error", err.Error()))
		}
	}

	h.invalidateCatalog(ctx)
	response.Success(c, http.StatusOK, course, "Thumbnail updated.", nil)
}

// ownerRequest reads the caller and the :id parameter, writing the error response on failure.
func (h *Handler) ownerRequest(c *gin.Context) (middleware.Identity, uuid.UUID, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, apperrors.Unauthorized("Not authenticated", nil), "")
		return identity, uuid.Nil, false
	}
	id, err := request.ParseID(c, "id")
	if err != nil {
		h.respondError(c, err, "")
		return identity, uuid.Nil, false
	}
	return identity, id, true
}

func (h *Handler) invalidateCatalog(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if _, err := cache.Bump(ctx, h.cache, CatalogGenerationKey); err != nil {
		h.logger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
	}
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var fieldErr *ValidationError
	var incomplete *authoring.IncompleteError

	switch {
	case errors.As(err, &fieldErr):
		err = apperrors.Validation(fieldErr.kind.Error()+".", fieldErr.Fields, err)
	case errors.As(err, &incomplete):
		err = apperrors.Validation("Course is not ready to publish.", incomplete.Messages(), err)
	case errors.Is(err, ErrCourseNotFound):
		err = apperrors.NotFound("Course not found.", err)
	case errors.Is(err, ErrNotOwner):
		err = apperrors.Forbidden("Only the course owner can perform this action.", err)
	case errors.Is(err, ErrRevisionConflict), errors.Is(err, ErrInvalidTransition):
		err = apperrors.Conflict(err.Error(), err)
	case errors.Is(err, authoring.ErrUnknownStep):
		err = apperrors.Validation(err.Error()+".", []string{"step must be one of: landing-page, curriculum, publish"}, err)
	case errors.Is(err, ErrImmutableField):
		err = apperrors.Validation(err.Error(), []string{err.Error()}, err)
	case errors.Is(err, media.ErrEmptyFile):
		err = apperrors.Validation(err.Error(), nil, err)
	case errors.Is(err, media.ErrTooLarge):
		err = apperrors.New(err.Error(), http.StatusRequestEntityTooLarge, apperrors.ErrPayloadTooLarge, err)
	case errors.Is(err, media.ErrUnsupportedType):
		err = apperrors.New(err.Error(), http.StatusUnsupportedMediaType, apperrors.ErrUnsupportedMedia, err)
	case errors.Is(err, media.ErrUnavailable):
		err = apperrors.New("Media storage is unavailable.", http.StatusServiceUnavailable, apperrors.ErrUnavailable, err)
	}

	response.FromError(h.logger, c, err, fallback)
}

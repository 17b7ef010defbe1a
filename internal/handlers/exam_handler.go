package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"examtracker/internal/models"
	"examtracker/internal/security"
	"examtracker/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExamAPI is the part of the exam service exposed over HTTP
type ExamAPI interface {
	Today() time.Time
	Add(ctx context.Context, ownerID int64, name, dateText string, prep int) (int64, error)
	Get(ctx context.Context, ownerID, examID int64) (*models.Exam, error)
	List(ctx context.Context, ownerID int64) ([]models.Exam, error)
	Rank(ctx context.Context, ownerID int64, today time.Time) ([]models.RankedExam, error)
	Remove(ctx context.Context, ownerID, examID int64) (bool, error)
	Clear(ctx context.Context, ownerID int64) (int64, error)
	UpdatePrep(ctx context.Context, ownerID, examID int64, prep int) (bool, error)
}

// ExamHandler handles exam HTTP requests
type ExamHandler struct {
	exams ExamAPI
	log   zerolog.Logger
}

// NewExamHandler creates a new exam handler
func NewExamHandler(exams ExamAPI, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams: exams,
		log:   log.With().Str("component", "http").Logger(),
	}
}

// NewRouter wires the exam routes with logging and optional rate limiting
func NewRouter(h *ExamHandler, limiter *security.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logging(h.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if limiter != nil {
		api.Use(RateLimit(limiter, h.log))
	}
	h.RegisterRoutes(api)

	return r
}

// RegisterRoutes adds the exam routes to r
func (h *ExamHandler) RegisterRoutes(r gin.IRouter) {
	exams := r.Group("/owners/:ownerID/exams")
	exams.GET("", h.ListExams)
	exams.POST("", h.AddExam)
	exams.DELETE("", h.ClearExams)
	exams.GET("/ranked", h.RankExams)
	exams.GET("/:examID", h.GetExam)
	exams.PATCH("/:examID", h.UpdatePrep)
	exams.DELETE("/:examID", h.RemoveExam)
}

// ListExams returns the owner's exams ordered by date
func (h *ExamHandler) ListExams(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	exams, err := h.exams.List(c.Request.Context(), ownerID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ExamListResponse{Exams: exams})
}

// AddExam registers a new exam
func (h *ExamHandler) AddExam(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req AddExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, h.log, http.StatusBadRequest, "bad_request", ErrInvalidRequestBody, nil)
		return
	}

	ctx := c.Request.Context()
	id, err := h.exams.Add(ctx, ownerID, req.Name, req.Date, req.Prep)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	exam, err := h.exams.Get(ctx, ownerID, id)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, ExamResponse{Exam: exam})
}

// GetExam returns a single exam
func (h *ExamHandler) GetExam(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	examID, ok := h.examID(c)
	if !ok {
		return
	}

	exam, err := h.exams.Get(c.Request.Context(), ownerID, examID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ExamResponse{Exam: exam})
}

// RankExams returns the owner's exams by priority. The optional today query
// parameter (DD-MM-YYYY) overrides the server's current day.
func (h *ExamHandler) RankExams(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	today := h.exams.Today()
	if raw := c.Query("today"); raw != "" {
		parsed, err := validation.ParseDate(raw)
		if err != nil {
			respondWithError(c, h.log, http.StatusBadRequest, "bad_request", ErrInvalidToday, nil)
			return
		}
		today = parsed
	}

	ranked, err := h.exams.Rank(c.Request.Context(), ownerID, today)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, RankedExamsResponse{Today: today.Format(models.DateLayout), Exams: ranked})
}

// UpdatePrep changes an exam's preparation percentage
func (h *ExamHandler) UpdatePrep(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	examID, ok := h.examID(c)
	if !ok {
		return
	}

	var req UpdatePrepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, h.log, http.StatusBadRequest, "bad_request", ErrInvalidRequestBody, nil)
		return
	}

	ctx := c.Request.Context()
	found, err := h.exams.UpdatePrep(ctx, ownerID, examID, *req.Prep)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	if !found {
		respondWithError(c, h.log, http.StatusNotFound, "not_found", ErrExamNotFound, nil)
		return
	}

	exam, err := h.exams.Get(ctx, ownerID, examID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ExamResponse{Exam: exam})
}

// RemoveExam deletes one exam
func (h *ExamHandler) RemoveExam(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	examID, ok := h.examID(c)
	if !ok {
		return
	}

	removed, err := h.exams.Remove(c.Request.Context(), ownerID, examID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	if !removed {
		respondWithError(c, h.log, http.StatusNotFound, "not_found", ErrExamNotFound, nil)
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearExams deletes all of the owner's exams
func (h *ExamHandler) ClearExams(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	n, err := h.exams.Clear(c.Request.Context(), ownerID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ClearResponse{Removed: n})
}

func (h *ExamHandler) ownerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("ownerID"), 10, 64)
	if err != nil {
		respondWithError(c, h.log, http.StatusBadRequest, "bad_request", ErrInvalidOwnerID, nil)
		return 0, false
	}
	return id, true
}

func (h *ExamHandler) examID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("examID"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(c, h.log, http.StatusBadRequest, "bad_request", ErrInvalidExamID, nil)
		return 0, false
	}
	return id, true
}

package handlers

import (
	"errors"
	"net/http"

	"examtracker/internal/repository"
	"examtracker/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func respondWithError(c *gin.Context, log zerolog.Logger, status int, code, userMsg string, err error) {
	if err != nil {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(userMsg)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: userMsg}})
}

// handleServiceError maps errors returned by the exam service to responses
func handleServiceError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code:    string(verr.Reason),
			Field:   verr.Field,
			Message: verr.Message,
		}})
	case errors.Is(err, repository.ErrNotFound):
		respondWithError(c, log, http.StatusNotFound, "not_found", ErrExamNotFound, nil)
	default:
		respondWithError(c, log, http.StatusInternalServerError, "internal", ErrInternalServerError, err)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
)

// writeError converts a service error chain into the shared wire Error shape
// and the matching HTTP status. Internal errors keep their detail out of the
// response body.
func writeError(c *gin.Context, log logger.Interface, err error) {
	code := errors.CodeFor(err)

	switch code {
	case errors.CodeBadRequest, errors.CodeNotFound, errors.CodeConflict:
		c.JSON(int(code), errors.FromError(code, err))
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError,
			errors.NewError(errors.CodeInternal, "internal server error").
				WithCause(errors.FromError(code, err)))
	}
}

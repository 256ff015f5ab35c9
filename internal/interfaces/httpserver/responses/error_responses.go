package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propside/media-service/internal/domain/media"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HandleError maps domain errors to HTTP statuses. Validation errors are the
// caller's fault, missing rows are 404, everything else is a 500 with the
// generic message so internal details stay out of responses.
func HandleError(c *gin.Context, err error, message string) {
	switch {
	case media.IsValidationError(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, media.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "media not found"})
	default:
		var procErr *media.ProcessingError
		if errors.As(err, &procErr) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Message: message})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: message})
	}
}

// BadRequest rejects malformed input at the route layer.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

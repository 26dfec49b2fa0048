package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/ierr"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware translates errors pushed onto the gin context into
// the fixed JSON error envelope. The envelope never carries error details;
// those go to the log, keyed by the request's correlation id. Requests that
// finish without errors pass through untouched.
func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		traceID := GetRequestID(c)

		log.Error("An unhandled exception occurred",
			zap.Error(err),
			zap.String("trace_id", traceID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		c.AbortWithStatusJSON(statusFor(err), dto.NewErrorResponse(traceID, time.Now()))
	}
}

func statusFor(err error) int {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, ierr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ierr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ierr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		// Conflict, forbidden, invalid-operation and unrecognized failures
		// all map to 500.
		return http.StatusInternalServerError
	}
}

// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/tabula-io/tabula-backend/internal/auth"
	"github.com/tabula-io/tabula-backend/internal/authz"
	"github.com/tabula-io/tabula-backend/internal/schema"
	"github.com/tabula-io/tabula-backend/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Sentinel errors from the core packages map onto the HTTP status taxonomy;
// messages never echo raw user input or explain authorization outcomes.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Only the last error drives the response.
		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		var statusCode int
		var userMessage string

		switch {
		case errors.Is(err, schema.ErrUnknownTable),
			errors.Is(err, storage.ErrTableNotFound),
			errors.Is(err, storage.ErrRecordNotFound):
			statusCode = http.StatusNotFound
			userMessage = err.Error()
		case errors.Is(err, authz.ErrForbidden):
			// No detail beyond "forbidden": the permission matrix and other
			// users' data stay opaque.
			statusCode = http.StatusForbidden
			userMessage = "forbidden"
		case errors.Is(err, authz.ErrPermissionCheck):
			statusCode = http.StatusInternalServerError
			userMessage = "Failed to verify permissions."
		case errors.Is(err, auth.ErrTokenMalformed),
			errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenClaimsInvalid),
			errors.Is(err, auth.ErrUnexpectedSigningMethod):
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication token."
		case errors.Is(err, auth.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."
		case errors.Is(err, storage.ErrConstraintViolation):
			statusCode = http.StatusConflict
			userMessage = err.Error()
		case errors.Is(err, storage.ErrColumnNotFound),
			errors.Is(err, storage.ErrTypeMismatch):
			statusCode = http.StatusBadRequest
			userMessage = err.Error()
		default:
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				statusCode = http.StatusBadRequest
				userMessage = "Validation failed. Please check your input."
				for _, fe := range validationErrs {
					customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
				}
				break
			}
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Printf("Unhandled error type: %T, Error: %v", err, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Printf("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}

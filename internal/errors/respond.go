package errors

import (
	"net/http"
	"os"

	"codeberg.org/tetherlabs/authgw/internal/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "invalid_credential", "user_not_found")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
}

// Respond maps an error to the transport boundary. Classified errors are
// written verbatim with their kind and message. Anything unclassified is
// logged with request context and rewritten to an opaque server_error so
// internal failure text never reaches the client.
func Respond(c *gin.Context, err error) {
	if appErr, ok := As(err); ok {
		c.JSON(appErr.Status, ErrorResponse{
			Error:   string(appErr.Kind),
			Message: appErr.Message,
			Details: sanitizeDetails(appErr.Status, appErr.Details),
		})
		return
	}

	logger.ErrorErr(err, "unclassified error",
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"subject_id", c.GetString("subject_id"),
	)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   string(KindInternal),
		Message: "an internal error occurred",
	})
}

// returns a 400 bad request error for request binding failures
func ValidationError(c *gin.Context, err error) {
	response := ErrorResponse{
		Error:   "validation_error",
		Message: "request validation failed",
	}

	if err != nil {
		response.Details = sanitizeDetails(http.StatusBadRequest, err.Error())
	}

	c.JSON(http.StatusBadRequest, response)
}

// strips server-side detail text from 5xx responses in production
func sanitizeDetails(status int, details string) string {
	if details == "" {
		return ""
	}

	if os.Getenv("ENVIRONMENT") == "production" && status >= http.StatusInternalServerError {
		return ""
	}

	return details
}

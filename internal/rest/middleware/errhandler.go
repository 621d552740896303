package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/gin-gonic/gin"
)

// safeDetailPrefix tags safe-detail payloads that carry reportable details
// encoded as JSON by the error builder.
const safeDetailPrefix = "__json__:"

// ErrorResponse is the error envelope returned by every handler.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the user-facing message plus machine-readable context.
type ErrorDetail struct {
	Code    string         `json:"code,omitempty"`
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler turns errors attached via c.Error into the standard error
// envelope, resolving the HTTP status from the error's sentinel mark.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		response := ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    errorCode(err),
				Display: displayMessage(err),
				Details: safeDetails(err),
			},
		}
		c.JSON(ierr.HTTPStatusFromErr(err), response)
	}
}

func errorCode(err error) string {
	var internalErr *ierr.InternalError
	if ierr.As(err, &internalErr) {
		return internalErr.Code
	}
	return ""
}

// displayMessage picks the first non-empty hint. Hints are what the error
// builder deems safe to show; the raw error message never leaves the server.
func displayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// safeDetails collects the reportable details attached anywhere in the
// error chain, merging them into one map.
func safeDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if !strings.HasPrefix(payload, safeDetailPrefix) {
				continue
			}
			var decoded map[string]any
			if err := json.Unmarshal([]byte(payload[len(safeDetailPrefix):]), &decoded); err != nil {
				continue
			}
			for k, v := range decoded {
				details[k] = v
			}
		}
	}
	return details
}

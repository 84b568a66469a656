package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/postforge-backend/internal/platform/apierr"
)

// Unmapped failures are not echoed to clients.
var errInternal = errors.New("internal error")

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr picks status and code from the apierr taxonomy.
func RespondErr(c *gin.Context, err error) {
	mapped := apierr.FromError(err)
	if mapped == nil {
		mapped = apierr.New(http.StatusInternalServerError, "internal_error", nil)
	}
	msg := err
	if mapped.Status >= http.StatusInternalServerError && mapped.Code == "internal_error" {
		msg = errInternal
	}
	RespondError(c, mapped.Status, mapped.Code, msg)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vayupay/vayupay-backend/pkg/logger"
)

// APIResponse standard API response structure
type APIResponse struct {
	Data  interface{} `json:"data"`
	Meta  *Meta       `json:"meta,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
}

// Meta pagination metadata
type Meta struct {
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
	Total int64 `json:"total,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, status int, data interface{}, meta *Meta) {
	c.JSON(status, APIResponse{
		Data: data,
		Meta: meta,
	})
}

// ErrorResponse maps an error to its HTTP status and stable code.
// Internal errors are logged with their cause; the client sees a generic message.
func ErrorResponse(c *gin.Context, err error) {
	kind := KindOf(err)
	status := HTTPStatus(kind)

	message := err.Error()
	if kind == KindInternal {
		logger.GetLogger().Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("internal error")
		message = "internal server error"
	}

	c.JSON(status, gin.H{
		"error": &ErrorInfo{
			Code:    CodeOf(err),
			Message: message,
		},
	})
}

// BindError returns a 400 for malformed request bodies
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": &ErrorInfo{
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		},
	})
}

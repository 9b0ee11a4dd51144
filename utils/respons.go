package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/apperrors"
)

type JSONResponse struct {
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:    false,
		Message:   err.Error(),
		Retryable: apperrors.IsRetryable(err),
		Data:      nil,
	})
}

// RespondAppError picks the status code from the error taxonomy.
func RespondAppError(c *gin.Context, err error) {
	RespondError(c, apperrors.HTTPStatus(err), err)
}

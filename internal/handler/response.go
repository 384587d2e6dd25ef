package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Failed reports a degraded-but-handled outcome: HTTP 200 with a
// non-zero code, so unattended polling clients can retry instead of
// treating the response as a hard fault.
func Failed(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    1,
		Message: message,
		Data:    data,
	})
}

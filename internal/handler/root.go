package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type RootHandler struct {
	StartedAt time.Time
}

func (h *RootHandler) Register(r *gin.Engine) {
	r.GET("/", h.hello)
}

func (h *RootHandler) hello(c *gin.Context) {
	uptime := time.Since(h.StartedAt).Seconds()
	c.String(http.StatusOK, fmt.Sprintf("Signal server works: %.0f", uptime))
}

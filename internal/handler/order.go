package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/auth"
	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/service"
)

// OrderHandler ingests trade history batches reported by clients. The
// addressee is resolved from the bearer token, never trusted from the
// body: a client can only write its own history.
type OrderHandler struct {
	History *service.HistoryService
	Tokens  *service.TokenService
	Logger  *zap.Logger
}

func (h *OrderHandler) Register(r *gin.Engine, guard *auth.Guard) {
	g := r.Group("/order")
	g.POST("/history", guard.RequireAnyToken(), h.postHistory)
}

type historyRequest struct {
	Username string               `json:"username"`
	History  []models.DealHistory `json:"history"`
}

func (h *OrderHandler) postHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		Error(c, http.StatusBadRequest, "username and history required", nil)
		return
	}
	if len(req.History) == 0 {
		Error(c, http.StatusBadRequest, "empty history", nil)
		return
	}

	token := auth.TokenFrom(c)
	user, err := h.Tokens.UserByToken(c.Request.Context(), token)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if user == nil {
		Error(c, http.StatusUnauthorized, "no user holds this token", nil)
		return
	}

	report, err := h.History.UpsertBatch(c.Request.Context(), user.Username, req.History)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			Error(c, http.StatusBadRequest, "empty history", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if !report.OK {
		if h.Logger != nil {
			h.Logger.Warn("history batch partially failed",
				zap.String("client_id", user.Username),
				zap.Int("upserted", report.Upserted),
				zap.Int("failed", len(report.Failed)),
			)
		}
		Failed(c, "some rows failed", report)
		return
	}
	Ok(c, report, nil)
}

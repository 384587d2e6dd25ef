package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/angryrobotdeals/mtagent/internal/auth"
	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/service"
)

// SignalHandler exposes signal creation (admin-gated) and the two read
// modes: the addressee-scoped fresh poll and the unfiltered listing.
type SignalHandler struct {
	Signals *service.SignalService
	Tokens  *service.TokenService
	Logger  *zap.Logger
}

func (h *SignalHandler) Register(r *gin.Engine, guard *auth.Guard) {
	g := r.Group("/signal")
	g.GET("", h.welcome)
	g.POST("/create-signal", guard.RequireAdminToken(), h.create)
	g.GET("/get-user-signals", guard.RequireAnyToken(), h.userSignals)
	g.GET("/get-all-signals", guard.RequireAnyToken(), h.allSignals)
}

func (h *SignalHandler) welcome(c *gin.Context) {
	c.String(http.StatusOK, "Signals API")
}

type createSignalRequest struct {
	ClientID         string                   `json:"client_id"`
	Action           string                   `json:"action"`
	Symbol           string                   `json:"symbol"`
	Direction        string                   `json:"direction"`
	Volume           *float64                 `json:"volume"`
	StopLoss         *float64                 `json:"stop_loss"`
	TakeProfit       *float64                 `json:"take_profit"`
	PartialClosePct  *float64                 `json:"partial_close_pct"`
	MultiTakeProfits []models.TakeProfitLevel `json:"multi_take_profits"`
}

func (h *SignalHandler) create(c *gin.Context) {
	var req createSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	sig := &models.Signal{
		ClientID:         req.ClientID,
		Action:           req.Action,
		Symbol:           req.Symbol,
		Direction:        req.Direction,
		Volume:           req.Volume,
		StopLoss:         req.StopLoss,
		TakeProfit:       req.TakeProfit,
		PartialClosePct:  req.PartialClosePct,
		MultiTakeProfits: datatypes.NewJSONSlice(req.MultiTakeProfits),
	}
	stored, err := h.Signals.Create(c.Request.Context(), sig)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			Error(c, http.StatusBadRequest, "client_id, action and symbol are required", nil)
			return
		}
		// Persistence trouble is reported softly so the admin tool can
		// decide to retry.
		if h.Logger != nil {
			h.Logger.Warn("signal not persisted", zap.Error(err))
		}
		Failed(c, "signal not persisted", nil)
		return
	}
	Ok(c, gin.H{"message": "signal created", "signal": stored}, nil)
}

func (h *SignalHandler) userSignals(c *gin.Context) {
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
	items, err := h.Signals.ListFresh(c.Request.Context(), user.Username)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *SignalHandler) allSignals(c *gin.Context) {
	items, err := h.Signals.ListAll(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

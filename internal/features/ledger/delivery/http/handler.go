package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "giveaway-draw-backend/internal/common/errors"
	"giveaway-draw-backend/internal/common/middleware"
	"giveaway-draw-backend/internal/features/ledger/service"
)

type LedgerHandler struct {
	service service.Service
}

func NewLedgerHandler(svc service.Service) *LedgerHandler {
	return &LedgerHandler{service: svc}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	credits := router.Group("/credits")
	{
		credits.GET("/balance", h.balance)
		credits.GET("/history", h.history)
		credits.POST("/grant", middleware.RequireCapability(middleware.CapabilityAdmin), h.grant)
		credits.POST("/deduct", middleware.RequireCapability(middleware.CapabilityAdmin), h.deduct)
	}
}

func (h *LedgerHandler) balance(c *gin.Context) {
	userID := middleware.UserID(c)

	balance, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		middleware.SendError(c, apperrors.NewDatabaseError("get balance", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "balance": balance})
}

func (h *LedgerHandler) history(c *gin.Context) {
	userID := middleware.UserID(c)
	limit := parseQueryInt(c, "limit", 50)
	offset := parseQueryInt(c, "offset", 0)

	entries, err := h.service.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		middleware.SendError(c, apperrors.NewDatabaseError("get ledger history", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "entries": entries})
}

type adjustRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required"`
}

func (h *LedgerHandler) grant(c *gin.Context) {
	var input adjustRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid grant request"))
		return
	}

	balance, err := h.service.Credit(c.Request.Context(), input.UserID, input.Amount, input.Reason, actorFrom(c))
	if err != nil {
		middleware.SendError(c, mapLedgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": input.UserID, "balance": balance})
}

func (h *LedgerHandler) deduct(c *gin.Context) {
	var input adjustRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid deduct request"))
		return
	}

	balance, err := h.service.AdminDeduct(c.Request.Context(), input.UserID, input.Amount, input.Reason)
	if err != nil {
		middleware.SendError(c, mapLedgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": input.UserID, "balance": balance})
}

func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid amount")
	case errors.Is(err, service.ErrInsufficientFunds):
		return apperrors.Wrap(err, apperrors.ErrCodeInsufficientCredits, "Insufficient credits")
	default:
		return apperrors.NewDatabaseError("ledger operation", err)
	}
}

func actorFrom(c *gin.Context) string {
	return "operator:" + strconv.FormatInt(middleware.UserID(c), 10)
}

func parseQueryInt(c *gin.Context, name string, fallback int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

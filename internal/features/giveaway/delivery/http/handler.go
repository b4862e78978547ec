package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "giveaway-draw-backend/internal/common/errors"
	"giveaway-draw-backend/internal/common/middleware"
	"giveaway-draw-backend/internal/features/giveaway/models"
	"giveaway-draw-backend/internal/features/giveaway/models/dto"
	"giveaway-draw-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service service.GiveawayService
}

func NewGiveawayHandler(svc service.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{service: svc}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", middleware.RequireCapability(middleware.CapabilityOperator), h.create)
		giveaways.GET("", h.list)
		giveaways.GET("/:id", h.get)

		giveaways.POST("/:id/picks", h.placePick)
		giveaways.GET("/:id/picks/me", h.userPicks)
		giveaways.GET("/:id/suggestion", h.suggestion)

		giveaways.POST("/:id/schedule", middleware.RequireCapability(middleware.CapabilityOperator), h.recomputeSchedule)
		giveaways.POST("/:id/close", middleware.RequireCapability(middleware.CapabilityOperator), h.close)
		giveaways.POST("/:id/draw", middleware.RequireCapability(middleware.CapabilityOperator), h.submitDraw)
		giveaways.POST("/:id/cancel", middleware.RequireCapability(middleware.CapabilityOperator), h.cancel)
		giveaways.GET("/:id/winners", h.winners)
	}
}

func (h *GiveawayHandler) create(c *gin.Context) {
	var input dto.GiveawayCreateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid giveaway request"))
		return
	}

	giveaway, err := h.service.Create(c.Request.Context(), middleware.UserID(c), service.CreateInput{
		Title:              input.Title,
		SlotCount:          input.SlotCount,
		HasBoxTopper:       input.HasBoxTopper,
		MinParticipation:   input.MinParticipation,
		FreeEntriesPerUser: input.FreeEntriesPerUser,
		CreditCostPerPick:  input.CreditCostPerPick,
	})
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.FromGiveaway(giveaway))
}

func (h *GiveawayHandler) list(c *gin.Context) {
	status := models.GiveawayStatus(c.DefaultQuery("status", string(models.GiveawayStatusOpen)))
	switch status {
	case models.GiveawayStatusOpen, models.GiveawayStatusFilling, models.GiveawayStatusClosed,
		models.GiveawayStatusCompleted, models.GiveawayStatusCancelled:
	default:
		middleware.SendError(c, apperrors.NewValidationError("status", "unknown giveaway status"))
		return
	}

	giveaways, err := h.service.ListByStatus(c.Request.Context(), status)
	if err != nil {
		middleware.SendError(c, apperrors.NewDatabaseError("list giveaways", err))
		return
	}

	out := make([]dto.GiveawayResponse, 0, len(giveaways))
	for _, giveaway := range giveaways {
		out = append(out, dto.FromGiveaway(giveaway))
	}
	c.JSON(http.StatusOK, gin.H{"giveaways": out})
}

func (h *GiveawayHandler) get(c *gin.Context) {
	giveaway, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, dto.FromGiveaway(giveaway))
}

func (h *GiveawayHandler) placePick(c *gin.Context) {
	var input dto.PlacePickRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid pick request"))
		return
	}

	pick, err := h.service.PlacePick(
		c.Request.Context(),
		c.Param("id"),
		middleware.UserID(c),
		input.Slot,
		string(input.PickNumber),
		input.UseFreeEntry,
	)
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusCreated, pick)
}

func (h *GiveawayHandler) userPicks(c *gin.Context) {
	userID := middleware.UserID(c)

	picks, err := h.service.UserPicks(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "picks": picks})
}

func (h *GiveawayHandler) suggestion(c *gin.Context) {
	suggestion, err := h.service.Suggest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, dto.SuggestionResponse{
		GiveawayID: suggestion.GiveawayID,
		Slot:       suggestion.Slot,
		PickNumber: suggestion.PickNumber,
		Rationale:  suggestion.Rationale,
	})
}

func (h *GiveawayHandler) recomputeSchedule(c *gin.Context) {
	giveaway, err := h.service.RecomputeSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, dto.FromGiveaway(giveaway))
}

func (h *GiveawayHandler) close(c *gin.Context) {
	giveaway, err := h.service.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, dto.FromGiveaway(giveaway))
}

func (h *GiveawayHandler) submitDraw(c *gin.Context) {
	var input dto.DrawSubmitRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid draw request"))
		return
	}

	winners, err := h.service.SubmitDraw(c.Request.Context(), c.Param("id"), input.Pick3Result)
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, dto.DrawSubmitResponse{
		GiveawayID:  c.Param("id"),
		Pick3Result: input.Pick3Result,
		Winners:     winners,
	})
}

func (h *GiveawayHandler) cancel(c *gin.Context) {
	result, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, dto.CancelResponse{
		GiveawayID:           result.GiveawayID,
		TotalCreditsRefunded: result.TotalCreditsRefunded,
		UsersRefunded:        result.UsersRefunded,
	})
}

func (h *GiveawayHandler) winners(c *gin.Context) {
	winners, err := h.service.Winners(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.SendError(c, mapGiveawayError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"giveaway_id": c.Param("id"), "winners": winners})
}

// mapGiveawayError translates service sentinels into transport errors.
func mapGiveawayError(err error) error {
	var insufficient *service.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		appErr := apperrors.NewInsufficientCreditsError(insufficient.Required, insufficient.Available)
		if insufficient.BoxTopper {
			appErr.WithDetail("box_topper", true)
		}
		return appErr
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return apperrors.New(apperrors.ErrCodeGiveawayNotFound, "Giveaway not found")
	case errors.Is(err, models.ErrGiveawayNotAcceptingPicks):
		return apperrors.Wrap(err, apperrors.ErrCodeNotAcceptingPicks, "Giveaway is not accepting picks")
	case errors.Is(err, models.ErrEntryCutoffPassed):
		return apperrors.Wrap(err, apperrors.ErrCodeEntryCutoffPassed, "Entry cutoff has passed")
	case errors.Is(err, models.ErrInvalidSlot):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidSlot, "Slot is not valid for this giveaway")
	case errors.Is(err, models.ErrInvalidPickNumber):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidPickNumber, "Pick number must be between 000 and 999")
	case errors.Is(err, models.ErrDuplicatePick):
		return apperrors.Wrap(err, apperrors.ErrCodeDuplicatePick, "You already hold this number in this slot")
	case errors.Is(err, models.ErrNoFreeEntriesRemaining):
		return apperrors.Wrap(err, apperrors.ErrCodeNoFreeEntries, "No free entries remaining")
	case errors.Is(err, models.ErrAlreadyCompleted):
		return apperrors.Wrap(err, apperrors.ErrCodeAlreadyCompleted, "Giveaway is already completed")
	case errors.Is(err, models.ErrAlreadyCancelled):
		return apperrors.Wrap(err, apperrors.ErrCodeAlreadyCancelled, "Giveaway is already cancelled")
	case errors.Is(err, models.ErrNotClosed):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidTransition, "Giveaway must be closed before the draw")
	case errors.Is(err, models.ErrNotFilling):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidTransition, "Giveaway is not in a filling state")
	case errors.Is(err, models.ErrInvalidDrawResult):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidDrawResult, "Draw result must be exactly 3 digits")
	case errors.Is(err, service.ErrNoNumbersAvailable):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "No numbers available to suggest")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Giveaway operation failed")
	}
}

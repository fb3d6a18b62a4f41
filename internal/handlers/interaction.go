package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/services"
)

type InteractionHandler struct {
	log *logger.Logger
	svc services.InteractionService
}

func NewInteractionHandler(log *logger.Logger, svc services.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		log: log.With("handler", "InteractionHandler"),
		svc: svc,
	}
}

type recordInteractionRequest struct {
	UserID             string `json:"user_id"`
	ProductID          string `json:"product_id"`
	ProductName        string `json:"product_name"`
	ProductDescription string `json:"product_description"`
	InteractionType    string `json:"interaction_type"`
}

type recordInteractionResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RetrainTriggered bool   `json:"retrain_triggered"`
	InteractionCount int    `json:"interaction_count"`
}

// POST /api/user/style-interaction
func (h *InteractionHandler) Record(c *gin.Context) {
	var req recordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	result, err := h.svc.Record(c.Request.Context(), services.RecordInteractionInput{
		UserID:             req.UserID,
		ProductID:          req.ProductID,
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		InteractionType:    req.InteractionType,
	})
	if err != nil {
		if apperr.IsValidation(err) {
			RespondError(c, http.StatusBadRequest, err)
			return
		}
		h.log.Error("Failed to process style interaction", "error", err)
		RespondError(c, http.StatusInternalServerError, errors.New("failed to store interaction"))
		return
	}

	RespondOK(c, recordInteractionResponse{
		Success:          true,
		Message:          "Interaction recorded: " + req.InteractionType,
		RetrainTriggered: result.RetrainTriggered,
		InteractionCount: result.InteractionCount,
	})
}

// GET /api/user/style-interaction/stats
// Always answers with a fully-populated stats object; ledger failures
// degrade to zero counts inside the service.
func (h *InteractionHandler) Stats(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		RespondError(c, http.StatusBadRequest, errors.New("missing user_id parameter"))
		return
	}
	RespondOK(c, h.svc.Stats(c.Request.Context(), userID))
}

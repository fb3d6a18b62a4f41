package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/training"
)

type TrainingHandler struct {
	log    *logger.Logger
	runner *training.Runner
}

func NewTrainingHandler(log *logger.Logger, runner *training.Runner) *TrainingHandler {
	return &TrainingHandler{
		log:    log.With("handler", "TrainingHandler"),
		runner: runner,
	}
}

type trainRequest struct {
	UserID   string   `json:"user_id"`
	Liked    []string `json:"liked"`
	Disliked []string `json:"disliked"`
	Saved    []string `json:"saved"`
}

type trainResponse struct {
	Success     bool   `json:"success"`
	ModelExists bool   `json:"modelExists"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message"`
}

// POST /api/user/style-interaction/train
// Unlike the implicit retrain path, this endpoint awaits the definitive
// outcome (bounded by the job timeout) before answering.
func (h *TrainingHandler) Train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.UserID == "" {
		RespondError(c, http.StatusBadRequest, errors.New("missing required user_id parameter"))
		return
	}

	handle, started, err := h.runner.Start(req.UserID, req.Liked, req.Disliked, req.Saved)
	if err != nil {
		if apperr.IsValidation(err) {
			RespondError(c, http.StatusBadRequest, err)
			return
		}
		h.log.Error("Failed to start training", "user_id", req.UserID, "error", err)
		RespondError(c, http.StatusInternalServerError, errors.New("failed to retrain model"))
		return
	}
	if !started {
		h.log.Info("Training already in flight, awaiting existing run", "user_id", req.UserID)
	}

	outcome, err := handle.Await(c.Request.Context())
	if err != nil {
		// Client went away; the run keeps going on its own.
		h.log.Warn("Caller disconnected before training resolved", "user_id", req.UserID, "error", err)
		RespondError(c, http.StatusInternalServerError, errors.New("failed to retrain model"))
		return
	}

	resp := trainResponse{
		Success:     outcome.Success,
		ModelExists: outcome.ModelExists,
	}
	switch {
	case outcome.Success && outcome.ExitErr == nil && !outcome.TimedOut:
		resp.Message = "Model retraining completed successfully"
	case outcome.Success:
		resp.Message = "Model exists despite training issues"
	default:
		resp.Message = "Failed to train model"
	}
	if outcome.ExitErr != nil {
		resp.Error = outcome.ExitErr.Error()
		if outcome.Stderr != "" {
			resp.Error = outcome.Stderr
		}
	}
	RespondOK(c, resp)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/services"
)

// cacheControl disables intermediary caching; personalization state changes
// asynchronously and must never be served stale.
const cacheControl = "no-store, max-age=0, must-revalidate"

type RecommendationHandler struct {
	log *logger.Logger
	svc services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, svc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log: log.With("handler", "RecommendationHandler"),
		svc: svc,
	}
}

// GET /api/products/recommend/style
func (h *RecommendationHandler) GetStyleRecommendations(c *gin.Context) {
	c.Header("Cache-Control", cacheControl)

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	q := services.RecommendationQuery{
		UserID:      c.Query("user_id"),
		ProductID:   c.Query("product_id"),
		Limit:       limit,
		Preferences: parseListParam(h.log, c.Query("user_preferences")),
		Materials:   parseListParam(h.log, c.Query("user_materials")),
	}

	envelope, err := h.svc.Recommend(c.Request.Context(), q)
	if err != nil {
		h.respondRecommendError(c, err)
		return
	}

	out := make(map[string]any, len(envelope.Payload)+1)
	for k, v := range envelope.Payload {
		out[k] = v
	}
	out["meta"] = envelope.Meta
	RespondOK(c, out)
}

func (h *RecommendationHandler) respondRecommendError(c *gin.Context, err error) {
	var empty *services.EmptyResultError
	switch {
	case apperr.IsValidation(err):
		RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrProductNotFound):
		RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &empty):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":           empty.Error(),
			"recommendations": []any{},
			"meta":            empty.Meta,
		})
	case apperr.KindOf(err) == apperr.KindMalformedOutput:
		// No fallback data exists on this path; surface a hard 500.
		h.log.Error("Recommender output unusable", "error", err)
		RespondError(c, http.StatusInternalServerError, errors.New("failed to get style recommendations"))
	default:
		h.log.Error("Recommendation query failed", "error", err)
		RespondError(c, http.StatusInternalServerError, errors.New("failed to process style recommendations"))
	}
}

func parseListParam(log *logger.Logger, raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn("Ignoring malformed list parameter", "raw", raw, "error", err)
		return nil
	}
	return out
}

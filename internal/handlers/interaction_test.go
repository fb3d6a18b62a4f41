package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/services"
)

func newInteractionEngine(t *testing.T, svc services.InteractionService) *gin.Engine {
	t.Helper()
	h := NewInteractionHandler(testLogger(t), svc)
	engine := gin.New()
	engine.POST("/api/user/style-interaction", h.Record)
	engine.GET("/api/user/style-interaction/stats", h.Stats)
	return engine
}

func TestRecordInvalidBody(t *testing.T) {
	engine := newInteractionEngine(t, &fakeInteractionService{})
	rec := performJSON(t, engine, http.MethodPost, "/api/user/style-interaction", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "invalid request body" {
		t.Fatalf("error message: %v", body["error"])
	}
}

func TestRecordValidationErrorIs400(t *testing.T) {
	svc := &fakeInteractionService{recordErr: apperr.Validationf("invalid interaction type")}
	engine := newInteractionEngine(t, svc)

	rec := performJSON(t, engine, http.MethodPost, "/api/user/style-interaction", map[string]any{
		"user_id":          "11111111-1111-1111-1111-111111111111",
		"product_id":       "p1",
		"interaction_type": "view",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "invalid interaction type" {
		t.Fatalf("error message: %v", body["error"])
	}
}

func TestRecordStorageErrorIs500(t *testing.T) {
	svc := &fakeInteractionService{recordErr: apperr.StorageUnavailable(nil)}
	engine := newInteractionEngine(t, svc)

	rec := performJSON(t, engine, http.MethodPost, "/api/user/style-interaction", map[string]any{
		"user_id":          "11111111-1111-1111-1111-111111111111",
		"product_id":       "p1",
		"interaction_type": "like",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=%d got=%d", http.StatusInternalServerError, rec.Code)
	}
}

func TestRecordSuccess(t *testing.T) {
	svc := &fakeInteractionService{
		result: &services.RecordInteractionResult{InteractionCount: 4, RetrainTriggered: true},
	}
	engine := newInteractionEngine(t, svc)

	rec := performJSON(t, engine, http.MethodPost, "/api/user/style-interaction", map[string]any{
		"user_id":             "11111111-1111-1111-1111-111111111111",
		"product_id":          "p1",
		"product_name":        "Linen Shirt",
		"product_description": "an oversized linen shirt",
		"interaction_type":    "like",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success: %v", body["success"])
	}
	if body["message"] != "Interaction recorded: like" {
		t.Fatalf("message: %v", body["message"])
	}
	if body["retrain_triggered"] != true {
		t.Fatalf("retrain_triggered: %v", body["retrain_triggered"])
	}
	if body["interaction_count"] != float64(4) {
		t.Fatalf("interaction_count: %v", body["interaction_count"])
	}
	if svc.lastInput.ProductDescription != "an oversized linen shirt" {
		t.Fatalf("input passed to service: %+v", svc.lastInput)
	}
}

func TestStatsRequiresUserID(t *testing.T) {
	engine := newInteractionEngine(t, &fakeInteractionService{})
	rec := performJSON(t, engine, http.MethodGet, "/api/user/style-interaction/stats", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestStatsSuccess(t *testing.T) {
	svc := &fakeInteractionService{
		stats: &services.InteractionStats{
			HasPersonalizedModel:       true,
			LikeCount:                  3,
			DislikeCount:               1,
			SaveCount:                  1,
			TotalCount:                 5,
			InteractionsUntilNextTrain: 1,
			ModelMetadata:              map[string]any{"trained_at": "2026-08-30"},
		},
	}
	engine := newInteractionEngine(t, svc)

	rec := performJSON(t, engine, http.MethodGet, "/api/user/style-interaction/stats?user_id=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	body := decodeBody(t, rec)
	if body["hasPersonalizedModel"] != true {
		t.Fatalf("hasPersonalizedModel: %v", body["hasPersonalizedModel"])
	}
	if body["totalCount"] != float64(5) {
		t.Fatalf("totalCount: %v", body["totalCount"])
	}
	if body["interactionsUntilNextTrain"] != float64(1) {
		t.Fatalf("interactionsUntilNextTrain: %v", body["interactionsUntilNextTrain"])
	}
}

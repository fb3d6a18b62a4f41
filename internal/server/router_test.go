package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/handlers"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/registry"
	"github.com/KohHuiLyn/spm-project/internal/services"
	"github.com/KohHuiLyn/spm-project/internal/training"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubInteractionService struct{}

func (stubInteractionService) Record(context.Context, services.RecordInteractionInput) (*services.RecordInteractionResult, error) {
	return &services.RecordInteractionResult{InteractionCount: 1}, nil
}

func (stubInteractionService) Stats(context.Context, string) *services.InteractionStats {
	return &services.InteractionStats{InteractionsUntilNextTrain: 2}
}

type stubRecommendationService struct{}

func (stubRecommendationService) Recommend(context.Context, services.RecommendationQuery) (*services.RecommendationEnvelope, error) {
	return &services.RecommendationEnvelope{
		Payload: map[string]any{"recommendations": []any{map[string]any{"product_id": "p1"}}},
	}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	reg := registry.NewModelRegistry(t.TempDir(), log)
	script := filepath.Join(t.TempDir(), "trainer.sh")
	if err := os.WriteFile(script, []byte("exit 0\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	runner := training.NewRunner(log, reg, "/bin/sh", script, 0)

	return NewRouter(RouterConfig{
		InteractionHandler:    handlers.NewInteractionHandler(log, stubInteractionService{}),
		TrainingHandler:       handlers.NewTrainingHandler(log, runner),
		RecommendationHandler: handlers.NewRecommendationHandler(log, stubRecommendationService{}),
	})
}

func perform(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheckRoute(t *testing.T) {
	router := newTestRouter(t)
	rec := perform(t, router, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body: want=ok got=%s", rec.Body.String())
	}
}

func TestRoutesRegistered(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/user/style-interaction", `{"user_id":"u1","product_id":"p1","interaction_type":"like"}`, http.StatusOK},
		{http.MethodGet, "/api/user/style-interaction/stats?user_id=u1", "", http.StatusOK},
		{http.MethodPost, "/api/user/style-interaction/train", `{"user_id":"u1","liked":["a"]}`, http.StatusOK},
		{http.MethodGet, "/api/products/recommend/style?user_id=u1", "", http.StatusOK},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := perform(t, router, tc.method, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: want=%d got=%d body=%s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestCORSPreflightAllowed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/user/style-interaction", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status: want=%d got=%d", http.StatusNoContent, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Access-Control-Allow-Origin: got=%q", got)
	}
}

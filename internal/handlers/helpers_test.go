package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func performJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

type fakeInteractionService struct {
	result    *services.RecordInteractionResult
	recordErr error
	stats     *services.InteractionStats
	lastInput services.RecordInteractionInput
}

func (f *fakeInteractionService) Record(_ context.Context, in services.RecordInteractionInput) (*services.RecordInteractionResult, error) {
	f.lastInput = in
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return f.result, nil
}

func (f *fakeInteractionService) Stats(_ context.Context, _ string) *services.InteractionStats {
	return f.stats
}

type fakeRecommendationService struct {
	envelope  *services.RecommendationEnvelope
	err       error
	lastQuery services.RecommendationQuery
}

func (f *fakeRecommendationService) Recommend(_ context.Context, q services.RecommendationQuery) (*services.RecommendationEnvelope, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.envelope, nil
}

var _ services.InteractionService = (*fakeInteractionService)(nil)
var _ services.RecommendationService = (*fakeRecommendationService)(nil)

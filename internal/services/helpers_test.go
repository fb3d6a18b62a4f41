package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/training"
	"github.com/KohHuiLyn/spm-project/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// writeScript drops a shell script standing in for the external computation;
// services invoke it through /bin/sh.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

type fakeRegistry struct {
	root     string
	exists   map[string]bool
	metadata map[string]map[string]any
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		root:     "models",
		exists:   make(map[string]bool),
		metadata: make(map[string]map[string]any),
	}
}

func (f *fakeRegistry) Exists(userID string) bool { return f.exists[userID] }

func (f *fakeRegistry) Metadata(userID string) map[string]any { return f.metadata[userID] }
func (f *fakeRegistry) ArtifactPath(userID string) string {
	return filepath.Join(f.root, userID+"_model")
}
func (f *fakeRegistry) EnsureRoot() error { return nil }

type fakeLedger struct {
	created      []*types.StyleInteraction
	createErr    error
	counts       types.InteractionCounts
	countsErr    error
	descriptions types.ActionDescriptions
	descErr      error
}

func (f *fakeLedger) Create(_ context.Context, _ *gorm.DB, interaction *types.StyleInteraction) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, interaction)
	return len(f.created), nil
}

func (f *fakeLedger) CountsByUser(_ context.Context, _ *gorm.DB, _ uuid.UUID) (types.InteractionCounts, error) {
	if f.countsErr != nil {
		return types.InteractionCounts{}, f.countsErr
	}
	return f.counts, nil
}

func (f *fakeLedger) GetByUserID(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.StyleInteraction, error) {
	return nil, nil
}

func (f *fakeLedger) DescriptionsByUser(_ context.Context, _ *gorm.DB, _ uuid.UUID) (types.ActionDescriptions, error) {
	if f.descErr != nil {
		return types.ActionDescriptions{}, f.descErr
	}
	return f.descriptions, nil
}

type fakeScheduler struct {
	retrainResult  bool
	retrainTotals  []int
	bootstrapCalls [][]string
	threshold      int
}

func (f *fakeScheduler) MaybeRetrain(_ context.Context, _ uuid.UUID, total int) bool {
	f.retrainTotals = append(f.retrainTotals, total)
	return f.retrainResult
}

func (f *fakeScheduler) StartFromPreferences(_ uuid.UUID, styles []string) (*training.Handle, bool) {
	f.bootstrapCalls = append(f.bootstrapCalls, styles)
	return nil, true
}

func (f *fakeScheduler) Threshold() int {
	if f.threshold <= 0 {
		return DefaultRetrainThreshold
	}
	return f.threshold
}

func (f *fakeScheduler) InteractionsUntilNextTrain(total int, hasModel bool) int {
	t := f.Threshold()
	if hasModel {
		return t - total%t
	}
	if remaining := t - total; remaining > 0 {
		return remaining
	}
	return 0
}

type fakeProducts struct {
	products map[string]*types.Product
	err      error
}

func (f *fakeProducts) GetByProductID(_ context.Context, _ *gorm.DB, productID string) (*types.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products[productID], nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*types.Profile
	err      error
}

func (f *fakeProfiles) GetByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[userID], nil
}

func waitForIdle(t *testing.T, runner *training.Runner, userID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for runner.InFlight(userID) {
		if time.Now().After(deadline) {
			t.Fatalf("training for %s still in flight after 5s", userID)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

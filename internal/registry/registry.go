package registry

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/KohHuiLyn/spm-project/internal/logger"
)

// ModelRegistry answers whether a user has a trained model artifact and, if
// so, what the trainer recorded about it. Both probes hit the filesystem on
// every call; nothing is cached, so each answer reflects current on-disk
// state. Artifact existence is the single source of truth for "has a
// personalized model" — the training runner consults it after every run,
// including killed ones.
type ModelRegistry interface {
	Exists(userID string) bool
	// Metadata returns the artifact's metadata.json contents, or nil when the
	// file is absent or malformed. Metadata is advisory and never errors.
	Metadata(userID string) map[string]any
	ArtifactPath(userID string) string
	EnsureRoot() error
}

type modelRegistry struct {
	root string
	log  *logger.Logger
}

func NewModelRegistry(root string, baseLog *logger.Logger) ModelRegistry {
	return &modelRegistry{
		root: root,
		log:  baseLog.With("service", "ModelRegistry"),
	}
}

// ArtifactPath is the deterministic per-user artifact location. A new
// successful training run silently replaces its contents; there is no
// versioning beyond "current contents wins".
func (r *modelRegistry) ArtifactPath(userID string) string {
	return filepath.Join(r.root, userID+"_model")
}

func (r *modelRegistry) Exists(userID string) bool {
	if userID == "" {
		return false
	}
	_, err := os.Stat(r.ArtifactPath(userID))
	return err == nil
}

func (r *modelRegistry) Metadata(userID string) map[string]any {
	if userID == "" {
		return nil
	}
	metadataPath := filepath.Join(r.ArtifactPath(userID), "metadata.json")
	b, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(b, &metadata); err != nil {
		r.log.Warn("Model metadata is malformed, treating as absent", "user_id", userID, "error", err)
		return nil
	}
	return metadata
}

func (r *modelRegistry) EnsureRoot() error {
	return os.MkdirAll(r.root, 0o755)
}

package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionLike    = "like"
	ActionDislike = "dislike"
	ActionSave    = "save"
)

// ValidAction reports whether a is one of the three recorded swipe outcomes.
func ValidAction(a string) bool {
	return a == ActionLike || a == ActionDislike || a == ActionSave
}

// StyleInteraction is one append-only ledger row. Rows are never updated or
// deleted; identity is insertion order and duplicates per product are legal.
type StyleInteraction struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID          string    `gorm:"column:product_id;not null" json:"product_id"`
	ProductName        string    `gorm:"column:product_name" json:"product_name"`
	ProductDescription string    `gorm:"column:product_description" json:"product_description"`
	Action             string    `gorm:"column:action;not null;index" json:"action"`
	Timestamp          time.Time `gorm:"not null;default:now()" json:"timestamp"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StyleInteraction) TableName() string { return "style_interaction" }

// InteractionCounts is the per-user breakdown returned by the ledger.
// A save always also counts as a like.
type InteractionCounts struct {
	Like    int `json:"like"`
	Dislike int `json:"dislike"`
	Save    int `json:"save"`
	Total   int `json:"total"`
}

// ActionDescriptions groups product descriptions by recorded action,
// the shape the trainer consumes.
type ActionDescriptions struct {
	Liked    []string
	Disliked []string
	Saved    []string
}

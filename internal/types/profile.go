package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile holds a user's declared style/material preferences and body
// measurements. Preference columns are real JSON arrays, validated on write;
// malformed content is rejected on read rather than patched up.
type Profile struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Styles       datatypes.JSON `gorm:"type:jsonb;column:styles" json:"styles"`
	Materials    datatypes.JSON `gorm:"type:jsonb;column:materials" json:"materials"`
	Measurements datatypes.JSON `gorm:"type:jsonb;column:measurements" json:"measurements,omitempty"`
	HeightCM     *float64       `gorm:"column:height_cm" json:"height_cm,omitempty"`
	WeightKG     *float64       `gorm:"column:weight_kg" json:"weight_kg,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Profile) TableName() string { return "profile" }

package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WritingStyle is optional per-owner voice guidance used when drafting.
type WritingStyle struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Tone          string                      `gorm:"column:tone" json:"tone"`
	VoiceNotes    string                      `gorm:"column:voice_notes;type:text" json:"voice_notes"`
	SamplePosts   datatypes.JSONSlice[string] `gorm:"column:sample_posts;type:jsonb" json:"sample_posts"`
	BannedPhrases datatypes.JSONSlice[string] `gorm:"column:banned_phrases;type:jsonb" json:"banned_phrases"`
	CreatedAt     time.Time                   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (WritingStyle) TableName() string { return "writing_style" }

func (w *WritingStyle) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}

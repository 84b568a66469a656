package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceWebContent    = "web_content"
	SourceProfileData   = "profile_data"
	SourceDirectThought = "direct_thought"
	SourceThought       = "thought"
	SourceNote          = "note"
)

// RawDocument is an ingested unit of owner-authored material. Content is
// immutable after insert; ExtractedAt is set once an extraction completes.
type RawDocument struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	SourceID    string         `gorm:"column:source_id;index" json:"source_id,omitempty"`
	SourceType  string         `gorm:"column:source_type;not null;index" json:"source_type"`
	Title       string         `gorm:"column:title" json:"title"`
	Content     string         `gorm:"column:content;type:text;not null" json:"content"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	ExtractedAt *time.Time     `gorm:"column:extracted_at;index" json:"extracted_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (RawDocument) TableName() string { return "raw_document" }

func (d *RawDocument) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}

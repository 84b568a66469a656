package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const IdeaStatusNew = "new"

// Idea is a structured post-worthy unit extracted from a RawDocument.
// (OwnerID, DedupeSignature) is unique among non-deleted rows.
type Idea struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	SourceID        string         `gorm:"column:source_id;index" json:"source_id,omitempty"`
	RawDocumentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"raw_document_id"`
	Topic           string         `gorm:"column:topic;not null" json:"topic"`
	Summary         string         `gorm:"column:summary;type:text" json:"summary"`
	EQ              string         `gorm:"column:eq;type:text" json:"eq"`
	Takeaway        string         `gorm:"column:takeaway;type:text" json:"takeaway"`
	Bucket          string         `gorm:"column:bucket;index" json:"bucket,omitempty"`
	DedupeSignature string         `gorm:"column:dedupe_signature;not null" json:"dedupe_signature"`
	Status          string         `gorm:"column:status;not null;default:new" json:"status"`
	CreatedAt       time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Idea) TableName() string { return "idea" }

func (i *Idea) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	if i.Status == "" {
		i.Status = IdeaStatusNew
	}
	return nil
}

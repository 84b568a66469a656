package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SectionHeading      = "heading"
	SectionBullet       = "bullet"
	SectionProfileBlock = "profile_block"
	SectionParagraph    = "paragraph"
)

// Section is a retrievable chunk of an owner's corpus with its embedding.
// Embedding is stored as a JSON float array.
type Section struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	RawDocumentID *uuid.UUID     `gorm:"type:uuid;index" json:"raw_document_id,omitempty"`
	Index         int            `gorm:"column:section_index;not null;default:0" json:"index"`
	SectionType   string         `gorm:"column:section_type;not null;index" json:"section_type"`
	Content       string         `gorm:"column:content;type:text;not null" json:"content"`
	Embedding     datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"-"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Section) TableName() string { return "section" }

func (s *Section) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// SectionMatch is one similarity-search hit.
type SectionMatch struct {
	SectionID   uuid.UUID `json:"section_id"`
	Content     string    `json:"content"`
	SectionType string    `json:"section_type"`
	Score       float64   `json:"score"`
}

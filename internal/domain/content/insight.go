package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InsightStatusDraft = "draft"
	// InsightTypeNone marks a retrieval that found context but no usable angle.
	InsightTypeNone = "none"
)

type Insight struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	IdeaID      uuid.UUID `gorm:"type:uuid;not null;index" json:"idea_id"`
	Topic       string    `gorm:"column:topic" json:"topic"`
	InsightText string    `gorm:"column:insight_text;type:text;not null" json:"insight_text"`
	InsightType string    `gorm:"column:insight_type" json:"insight_type"`
	ValueAdded  string    `gorm:"column:value_added;type:text" json:"value_added"`
	Status      string    `gorm:"column:status;not null;default:draft" json:"status"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Insight) TableName() string { return "insight" }

func (i *Insight) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	if i.Status == "" {
		i.Status = InsightStatusDraft
	}
	return nil
}

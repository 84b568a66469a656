package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Statuses past draft are owned by the publishing workflow.
const DraftStatusDraft = "draft"

// How a generated field was obtained.
const (
	GenParsed   = "parsed"
	GenRetried  = "retried"
	GenFallback = "fallback"
)

// Draft starts with a hook only; the post body is attached in a later stage.
// InsightID, when set, references an Insight of the same Idea.
type Draft struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	IdeaID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"idea_id"`
	InsightID    *uuid.UUID `gorm:"type:uuid;index" json:"insight_id,omitempty"`
	HookText     string     `gorm:"column:hook_text;type:text;not null" json:"hook_text"`
	HookStyle    string     `gorm:"column:hook_style" json:"hook_style"`
	HookGen      string     `gorm:"column:hook_gen" json:"hook_gen"`
	PostText     string     `gorm:"column:post_text;type:text" json:"post_text"`
	TemplateUsed string     `gorm:"column:template_used" json:"template_used"`
	PostGen      string     `gorm:"column:post_gen" json:"post_gen,omitempty"`
	Status       string     `gorm:"column:status;not null;default:draft" json:"status"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Draft) TableName() string { return "draft" }

// Filled reports whether the post body has been attached.
func (d *Draft) Filled() bool { return d != nil && d.PostText != "" }

func (d *Draft) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	if d.Status == "" {
		d.Status = DraftStatusDraft
	}
	return nil
}

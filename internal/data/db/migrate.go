package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/postforge-backend/internal/domain/content"
)

// The live-signature index is partial so a soft-deleted idea does not block
// re-extraction. Postgres and SQLite both accept these statements.
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_idea_owner_signature_live ON idea (owner_id, dedupe_signature) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_insight_idea_created ON insight (idea_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_section_owner_type ON section (owner_id, section_type)`,
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(content.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}

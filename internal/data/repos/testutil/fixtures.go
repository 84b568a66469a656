package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
)

func SeedRawDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, sourceType, content string) *types.RawDocument {
	tb.Helper()
	doc := &types.RawDocument{
		OwnerID:    ownerID,
		SourceType: sourceType,
		Title:      "seed",
		Content:    content,
	}
	if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
		tb.Fatalf("seed raw document: %v", err)
	}
	return doc
}

// SeedIdea inserts directly, bypassing dedupe. signature must be unique per owner.
func SeedIdea(tb testing.TB, ctx context.Context, tx *gorm.DB, doc *types.RawDocument, topic, signature string) *types.Idea {
	tb.Helper()
	idea := &types.Idea{
		OwnerID:         doc.OwnerID,
		RawDocumentID:   doc.ID,
		Topic:           topic,
		Summary:         "seeded summary",
		Takeaway:        "seeded takeaway",
		DedupeSignature: signature,
	}
	if err := tx.WithContext(ctx).Create(idea).Error; err != nil {
		tb.Fatalf("seed idea: %v", err)
	}
	return idea
}

func SeedDraft(tb testing.TB, ctx context.Context, tx *gorm.DB, idea *types.Idea, hook string) *types.Draft {
	tb.Helper()
	d := &types.Draft{
		OwnerID:  idea.OwnerID,
		IdeaID:   idea.ID,
		HookText: hook,
		HookGen:  types.GenParsed,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed draft: %v", err)
	}
	return d
}

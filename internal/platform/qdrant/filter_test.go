package qdrant

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestTranslateFilterMapOwnerAndTypes(t *testing.T) {
	owner := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	got, err := translateFilterMap(map[string]any{
		"owner_id":     owner,
		"section_type": map[string]any{"$in": []string{"paragraph", "bullet"}},
		"source":       map[string]any{"$ne": "draft"},
	})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(got.Must) != 2 || len(got.MustNot) != 1 {
		t.Fatalf("unexpected shape: must=%d must_not=%d", len(got.Must), len(got.MustNot))
	}

	ownerCond := findConditionByKey(got.Must, "owner_id")
	if ownerCond == nil {
		t.Fatalf("missing owner_id condition")
	}
	if m := ownerCond["match"].(map[string]any); m["value"] != owner.String() {
		t.Fatalf("owner match: got=%v", m["value"])
	}
	typeCond := findConditionByKey(got.Must, "section_type")
	anyVals, _ := typeCond["match"].(map[string]any)["any"].([]any)
	if len(anyVals) != 2 || anyVals[0] != "paragraph" {
		t.Fatalf("section_type any: got=%v", anyVals)
	}
}

func TestTranslateFilterMapUnsupportedOperator(t *testing.T) {
	for _, filter := range []map[string]any{
		{"score": map[string]any{"$gt": 2}},
		{"$or": []any{}},
	} {
		_, err := translateFilterMap(filter)
		var opErr *OperationError
		if !errors.As(err, &opErr) || opErr.Code != OperationErrorUnsupportedFilter {
			t.Fatalf("filter %v: want unsupported_filter, got=%v", filter, err)
		}
	}
}

func findConditionByKey(items []any, key string) map[string]any {
	for _, raw := range items {
		cond, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if condKey, _ := cond["key"].(string); condKey == key {
			return cond
		}
	}
	return nil
}

package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

const (
	filterOpIn = "$in"
	filterOpEq = "$eq"
	filterOpNe = "$ne"
)

type translatedFilter struct {
	Must    []any
	MustNot []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

// translateFilterMap converts the pinecone-style metadata filter used by callers
// ({"owner_id": "x", "section_type": {"$in": [...]}}) into qdrant conditions.
// Only field-level $eq, $ne and $in are understood.
func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	out := translatedFilter{}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field := strings.TrimSpace(key)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "$") {
			return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported top-level filter operator %q", field), nil)
		}
		if err := translateField(&out, field, filter[key]); err != nil {
			return translatedFilter{}, err
		}
	}
	return out, nil
}

func translateField(out *translatedFilter, field string, value any) error {
	ops, isOps := value.(map[string]any)
	if !isOps {
		scalar, ok := toScalarValue(value)
		if !ok {
			return opErr("filter_translate", OperationErrorValidation,
				fmt.Sprintf("field %q expects scalar value or operator object", field), nil)
		}
		out.Must = append(out.Must, matchValue(field, scalar))
		return nil
	}

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)
	for _, op := range names {
		switch strings.ToLower(strings.TrimSpace(op)) {
		case filterOpEq, filterOpNe:
			scalar, ok := toScalarValue(ops[op])
			if !ok {
				return opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects scalar value", op, field), nil)
			}
			if strings.EqualFold(op, filterOpEq) {
				out.Must = append(out.Must, matchValue(field, scalar))
			} else {
				out.MustNot = append(out.MustNot, matchValue(field, scalar))
			}
		case filterOpIn:
			values, ok := toScalarSlice(ops[op])
			if !ok || len(values) == 0 {
				return opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects a non-empty scalar array", op, field), nil)
			}
			out.Must = append(out.Must, map[string]any{
				"key":   field,
				"match": map[string]any{"any": values},
			})
		default:
			return opErr("filter_translate", OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported filter operator %q for field %q", op, field), nil)
		}
	}
	return nil
}

func matchValue(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func toScalarSlice(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, true
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			scalar, ok := toScalarValue(v)
			if !ok {
				return nil, false
			}
			out = append(out, scalar)
		}
		return out, true
	default:
		return nil, false
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string, bool, int, int64, float64:
		return typed, true
	case int32:
		return int64(typed), true
	case float32:
		return float64(typed), true
	case fmt.Stringer:
		return typed.String(), true
	default:
		return nil, false
	}
}

package content

import (
	"encoding/json"
	"math"

	"gorm.io/datatypes"
)

func EncodeEmbedding(v []float32) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	raw, _ := json.Marshal(v)
	return datatypes.JSON(raw)
}

func DecodeEmbedding(raw datatypes.JSON) ([]float32, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out []float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CosineSimilarity returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

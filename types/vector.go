package types

import "fmt"

// EmbeddingVector 定长嵌入向量。
// 不变式：len(Values) == Dimensions；仅相同维度的向量可比较。
type EmbeddingVector struct {
	Dimensions int       `json:"dimensions"`
	Values     []float64 `json:"values"`
}

// NewEmbeddingVector 根据 values 构造向量，Dimensions 取 len(values)。
func NewEmbeddingVector(values []float64) EmbeddingVector {
	return EmbeddingVector{Dimensions: len(values), Values: values}
}

// Validate 校验维度不变式。
func (v EmbeddingVector) Validate() error {
	if v.Dimensions <= 0 {
		return NewValidationError(fmt.Sprintf("embedding dimensions must be positive, got %d", v.Dimensions))
	}
	if len(v.Values) != v.Dimensions {
		return NewValidationError(fmt.Sprintf("embedding has %d values but declares %d dimensions", len(v.Values), v.Dimensions))
	}
	return nil
}

// Comparable 判断两个向量是否可以进行相似度比较。
func (v EmbeddingVector) Comparable(other EmbeddingVector) bool {
	return v.Dimensions == other.Dimensions && v.Dimensions > 0
}

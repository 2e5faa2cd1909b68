package types

// SimilarityKey 是向量存储写入 Metadata 的相似度分数键（0–100）。
// store 在 SearchSimilar 时写入，rerank 读取作为基础分数。
const SimilarityKey = "similarity"

// Document 检索文档
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Similarity 返回 Metadata 中记录的相似度分数。
// 未设置或类型不符时返回 0。
func (d Document) Similarity() float64 {
	if d.Metadata == nil {
		return 0
	}
	switch v := d.Metadata[SimilarityKey].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// WithSimilarity 返回写入了相似度分数的文档副本。
// Metadata 为浅拷贝，调用方持有的原 map 不会被修改。
func (d Document) WithSimilarity(score float64) Document {
	meta := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[SimilarityKey] = score
	d.Metadata = meta
	return d
}

// Clone 返回文档的深拷贝（Metadata 逐键复制）。
// 存储层返回副本，避免调用方修改存储内部状态。
func (d Document) Clone() Document {
	c := Document{ID: d.ID, Content: d.Content}
	if d.Metadata != nil {
		c.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

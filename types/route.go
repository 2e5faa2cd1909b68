package types

// QueryType 查询分类
type QueryType string

const (
	QuerySemantic QueryType = "semantic" // 语义查询（默认）
	QueryKeyword  QueryType = "keyword"  // 关键词查询（数字 / 技术术语）
	QueryHybrid   QueryType = "hybrid"   // 混合查询（含实体模式）
)

// RouteDecision 查询路由决定
type RouteDecision struct {
	// SourceIDs 选中的文档来源。当前实现返回全部可用来源，
	// 契约允许未来实现裁剪该集合。
	SourceIDs []string `json:"source_ids"`

	// ExpandedQuery 短查询的扩展版本；未触发扩展时为空。
	ExpandedQuery string `json:"expanded_query,omitempty"`

	// QueryType 分类结果。
	QueryType QueryType `json:"query_type"`
}

// Expanded 报告路由是否产生了扩展查询。
func (d *RouteDecision) Expanded() bool {
	return d.ExpandedQuery != ""
}

// RankedCandidate 重排序产物。
// OriginalRank 记录重排前的位置（0 起），RRF 的排名数学依赖它。
type RankedCandidate struct {
	DocID        string  `json:"doc_id"`
	Score        float64 `json:"score"` // 始终在 [0,100]
	OriginalRank int     `json:"original_rank"`
}

package rerank

// Strategy 重排序策略标签
type Strategy string

const (
	StrategyRRF            Strategy = "rrf"             // 倒数排名融合
	StrategyCrossAttention Strategy = "cross_attention" // 交叉注意力模拟
	StrategySimple         Strategy = "simple"          // 有界扰动基线
	StrategyNone           Strategy = "none"            // 不重排
)

// ParseStrategy 解析策略标签。
// 未知标签返回 (StrategySimple, false)，与 Rerank 的宽松回退一致；
// 需要严格行为的调用方据第二个返回值自行报错。
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyRRF, StrategyCrossAttention, StrategySimple, StrategyNone:
		return Strategy(s), true
	}
	return StrategySimple, false
}

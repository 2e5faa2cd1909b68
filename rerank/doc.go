// Copyright (c) RagCore Authors.
// Licensed under the MIT License.

/*
Package rerank 对向量存储返回的候选集做第二阶段相关度精排。

# 策略

策略以显式标签（封闭枚举）选择，每个变体一个处理函数：

  - StrategyRRF            — 倒数排名融合：相似度排名与词项重叠排名
    按 1/(60+rank) 求和融合，×5000 进入可读区间后截断到 100
  - StrategyCrossAttention — 交叉注意力模拟：基础相似度 + 整句命中
    加成（+15）+ 相邻词项邻近度加成（10×(1-d/50)，d≥50 时消失）
  - StrategySimple         — 基线：原分数加有界扰动。扰动来自显式
    种子的 RNG，固定种子下可复现；仅作占位/回退，非生产策略
  - StrategyNone           — 原样透传，不重排

# 契约

结果恒为输入文档集的一个排列（同一组 ID，无增删）；排序以截断前的
策略分为准，输出分数截断到 [0,100]；OriginalRank 记录重排前的位置。

# 未知策略

未知标签不报错，记 Warn 日志后回退到 StrategySimple。需要严格校验的
调用方可先用 ParseStrategy 验证标签。
*/
package rerank

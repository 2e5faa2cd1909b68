// Copyright (c) RagCore Authors.
// Licensed under the MIT License.

/*
Package types 提供 ragcore 检索管线的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 store、router、rerank、
retrieval 等上层模块提供统一的类型契约。所有跨包共享的结构体、枚举和
错误码均定义于此，以避免循环依赖。

# 核心类型

  - Document        — 检索文档（ID + Content + 开放式 Metadata）
  - EmbeddingVector — 定长嵌入向量（Dimensions + Values）
  - RankedCandidate — 重排序产物（DocID + Score + OriginalRank）
  - RouteDecision   — 查询路由决定（来源集合 + 扩展查询 + 查询类型）
  - QueryType       — 查询分类（semantic / keyword / hybrid）
  - Error/ErrorCode — 结构化错误体系，含 Retryable 标记

# 主要能力

  - 相似度约定：store 通过 Document.WithSimilarity 写入 0–100 分数，
    rerank 通过 Document.Similarity 读取
  - 错误工具链：AsError / IsErrorCode / IsRetryable
  - 常用错误构造：NewValidationError / NewEmbeddingError / NewSourceNotFoundError
*/
package types

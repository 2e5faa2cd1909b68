// Copyright (c) RagCore Authors.
// Licensed under the MIT License.

/*
Package store 提供文档向量存储：按相关度回答 "哪些文档与该查询最相关"。

# 概述

Store 接口统一两种实现：

  - KeywordStore — 关键词词频基线。查询切分为长度 > 2 的小写词项，
    对每篇文档统计词项出现次数之和，归一化到 0–100，按阈值过滤、
    降序排序并截断 Top-K。平局时按插入顺序稳定排序（先入先胜）。
  - VectorStore  — 余弦相似度存储，嵌入由 embedding.Provider 生成。
    真实嵌入后端接入后即可替换 KeywordStore，契约不变。

# 并发模型

两种实现都用 RWMutex 保护内部文档表：并发 AddDocuments / SearchSimilar
不会破坏文档表；单个 ID 的写入是原子的（不会出现半写文档）。读操作在
并发写期间可能观察到写前或写后状态，不保证快照隔离。

# 约定

SearchSimilar 返回的文档在 Metadata 中带有 types.SimilarityKey 分数；
无合格词项或无文档过阈值返回空序列而非错误。
*/
package store

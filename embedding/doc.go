// Copyright (c) RagCore Authors.
// Licensed under the MIT License.

/*
Package embedding 提供统一的嵌入生成契约与确定性占位实现。

# 概述

向量存储通过 Provider 接口获取文本嵌入。接口对批量生成保证顺序：
返回向量与输入文本一一对应，绝不返回部分填充的结果。生成失败以
types.ErrEmbeddingFailed（可重试）上报。

# 实现

  - HashProvider — 基于 FNV-1a 的确定性伪嵌入（文本相同 ⇒ 向量相同），
    是真实嵌入模型的替换点：生产部署以实现了 Provider 的真实后端
    （OpenAI / Cohere / 本地模型）替换它，管线其余部分不变
  - WithTimeout  — 在嵌入边界追加超时与取消（唯一跨进程边界的步骤）

# 确定性

占位实现刻意不引入随机性：相同输入产生相同向量，检索结果可复现，
测试无需模型后端即可断言精确分数。
*/
package embedding

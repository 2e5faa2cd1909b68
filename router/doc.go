// Copyright (c) RagCore Authors.
// Licensed under the MIT License.

/*
Package router 根据查询特性决定检索方式、来源集合与查询扩展。

# 分类启发式

  - 查询含实体模式（首字母大写 + 后续小写的词）⇒ hybrid
  - 否则含独立数字串，或命中技术术语集 {technical, code, error, function} ⇒ keyword
  - 否则 ⇒ semantic（默认）

# 查询扩展

字符数 < 10 的短查询追加一组固定的泛化补充词，提升召回；
较长查询不扩展。扩展词是合成的，重排序阶段使用原始查询计算词项重叠，
避免合成词重复计分（见 retrieval 包）。

# 来源选择

当前实现原样返回全部可用来源（已知的简化）；契约返回新切片，
允许未来实现裁剪来源集合而不影响调用方。
*/
package router

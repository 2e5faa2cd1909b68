// =============================================================================
// 📦 RagCore 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Retrieval: DefaultRetrievalConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Router:    DefaultRouterConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		LoadTest:  DefaultLoadTestConfig(),
	}
}

// DefaultRetrievalConfig 返回默认检索配置
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:           5,
		Threshold:      0,
		UseExpansion:   true,
		RerankStrategy: "none",
		RerankSeed:     1,
		CacheEnabled:   false,
		CacheTTL:       2 * time.Minute,
	}
}

// DefaultEmbeddingConfig 返回默认向量化配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:   "hash",
		Dimensions: 384,
		BatchSize:  64,
		Timeout:    10 * time.Second,
	}
}

// DefaultRouterConfig 返回默认路由配置
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		EnableCache: false,
		CacheTTL:    10 * time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:                "localhost:6379",
		Password:            "",
		DB:                  0,
		PoolSize:            10,
		MaxRetries:          3,
		HealthCheckInterval: 30 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "ragcore",
		SampleRate:   0.1,
	}
}

// DefaultLoadTestConfig 返回默认负载测试配置
func DefaultLoadTestConfig() LoadTestConfig {
	return LoadTestConfig{
		Users:           10,
		RequestsPerUser: 100,
		RampUp:          5 * time.Second,
		ThinkTime:       50 * time.Millisecond,
		RatePerSecond:   0,
		Timeout:         2 * time.Second,
	}
}

// =============================================================================
// RagLoad 主入口
// =============================================================================
// 对本地组装的检索管线执行负载测试并输出延迟分布报告
//
// 使用方法:
//
//	ragload run                        # 默认配置运行
//	ragload run --config config.yaml   # 指定配置文件
//	ragload run --docs 2000            # 指定合成语料规模
//	ragload version                    # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/ragcore"
	"github.com/BaSui01/ragcore/config"
	"github.com/BaSui01/ragcore/internal/cache"
	"github.com/BaSui01/ragcore/internal/metrics"
	"github.com/BaSui01/ragcore/internal/telemetry"
	"github.com/BaSui01/ragcore/loadgen"
	"github.com/BaSui01/ragcore/rerank"
	"github.com/BaSui01/ragcore/retrieval"
	"github.com/BaSui01/ragcore/types"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runLoad(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🚀 run 命令
// =============================================================================

func runLoad(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	docCount := fs.Int("docs", 1000, "Synthetic corpus size")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting RagLoad",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProvider, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector("ragcore", prometheus.DefaultRegisterer, logger)

	opts := []ragcore.Option{
		ragcore.WithConfig(cfg),
		ragcore.WithLogger(logger),
		ragcore.WithKeywordSource("keyword"),
		ragcore.WithVectorSource("vector"),
		ragcore.WithMetrics(collector),
	}

	if cfg.Retrieval.CacheEnabled {
		manager, cacheErr := cache.NewManager(cache.Config{
			Addr:                cfg.Redis.Addr,
			Password:            cfg.Redis.Password,
			DB:                  cfg.Redis.DB,
			DefaultTTL:          cfg.Retrieval.CacheTTL,
			MaxRetries:          cfg.Redis.MaxRetries,
			PoolSize:            cfg.Redis.PoolSize,
			HealthCheckInterval: cfg.Redis.HealthCheckInterval,
		}, logger)
		if cacheErr != nil {
			logger.Warn("result cache unavailable, continuing without it", zap.Error(cacheErr))
		} else {
			defer manager.Close()
			opts = append(opts, ragcore.WithResultCache(manager, cfg.Retrieval.CacheTTL))
		}
	}

	retriever, err := ragcore.New(opts...)
	if err != nil {
		logger.Fatal("Failed to assemble pipeline", zap.Error(err))
	}

	ctx := context.Background()
	queries := seedCorpus(ctx, retriever, *docCount, logger)

	report := execute(ctx, cfg, retriever, queries, logger)
	printReport(report)
}

// =============================================================================
// 🌱 合成语料
// =============================================================================

// corpusTopics 合成文档的主题词池。
var corpusTopics = []string{
	"redis", "cache", "eviction", "cluster", "latency", "throughput",
	"index", "shard", "replica", "snapshot", "compaction", "journal",
	"retrieval", "ranking", "embedding", "vector", "keyword", "query",
}

// seedCorpus 向所有已注册来源灌入合成语料，返回压测查询集。
func seedCorpus(ctx context.Context, r *retrieval.Retriever, count int, logger *zap.Logger) []string {
	docs := make([]types.Document, count)
	for i := 0; i < count; i++ {
		a := corpusTopics[i%len(corpusTopics)]
		b := corpusTopics[(i/len(corpusTopics))%len(corpusTopics)]
		docs[i] = types.Document{
			ID: fmt.Sprintf("doc-%06d", i),
			Content: fmt.Sprintf(
				"Reference note %d covering %s and %s behavior under sustained load.",
				i, a, b),
			Metadata: map[string]any{"topic": a},
		}
	}

	// 来源在 ragcore.New 里刚注册，这里查不到属于配置错误，直接终止
	for _, id := range r.SourceIDs() {
		if err := seedSource(ctx, r, id, docs); err != nil {
			logger.Fatal("failed to seed source",
				zap.String("source_id", id), zap.Error(err))
		}
	}

	logger.Info("synthetic corpus ready",
		zap.Int("documents", count),
		zap.Int("sources", len(r.SourceIDs())))

	queries := make([]string, 0, len(corpusTopics))
	for i, topic := range corpusTopics {
		queries = append(queries, fmt.Sprintf("%s %s behavior", topic, corpusTopics[(i+1)%len(corpusTopics)]))
	}
	return queries
}

func seedSource(ctx context.Context, r *retrieval.Retriever, id string, docs []types.Document) error {
	s, err := r.Source(id)
	if err != nil {
		return err
	}
	return s.AddDocuments(ctx, docs)
}

// =============================================================================
// 🔥 负载执行
// =============================================================================

func execute(ctx context.Context, cfg *config.Config, retriever *retrieval.Retriever, queries []string, logger *zap.Logger) *loadgen.Report {
	strategy, _ := rerank.ParseStrategy(cfg.Retrieval.RerankStrategy)

	retrieveOpts := retrieval.Options{
		TopK:           cfg.Retrieval.TopK,
		Threshold:      cfg.Retrieval.Threshold,
		UseExpansion:   cfg.Retrieval.UseExpansion,
		RerankStrategy: strategy,
	}

	var seq atomic.Uint64
	target := func(ctx context.Context, requestID string) error {
		// 轮转查询集，避免单查询被缓存完全吸收
		i := int(seq.Add(1) % uint64(len(queries)))
		_, err := retriever.Retrieve(ctx, queries[i], retrieveOpts)
		return err
	}

	runner, err := loadgen.NewRunner(loadgen.Config{
		Users:           cfg.LoadTest.Users,
		RequestsPerUser: cfg.LoadTest.RequestsPerUser,
		RampUp:          cfg.LoadTest.RampUp,
		ThinkTime:       cfg.LoadTest.ThinkTime,
		RatePerSecond:   cfg.LoadTest.RatePerSecond,
		Timeout:         cfg.LoadTest.Timeout,
	}, target, logger)
	if err != nil {
		logger.Fatal("Failed to create load runner", zap.Error(err))
	}

	report, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("Load test failed", zap.Error(err))
	}
	return report
}

// printReport 输出人类可读的报告。
func printReport(report *loadgen.Report) {
	fmt.Println("=== Load Test Report ===")
	fmt.Printf("Total requests : %d\n", report.Total)
	fmt.Printf("Succeeded      : %d\n", report.Succeeded)
	fmt.Printf("Failed         : %d\n", report.Failed)
	fmt.Printf("Success rate   : %.2f%%\n", report.SuccessRate*100)
	fmt.Printf("Duration       : %s\n", report.Duration)
	fmt.Printf("Throughput     : %.1f req/s\n", report.Throughput)
	fmt.Println("Latency:")
	fmt.Printf("  min  : %s\n", report.Latency.Min)
	fmt.Printf("  mean : %s\n", report.Latency.Mean)
	fmt.Printf("  p50  : %s\n", report.Latency.P50)
	fmt.Printf("  p90  : %s\n", report.Latency.P90)
	fmt.Printf("  p95  : %s\n", report.Latency.P95)
	fmt.Printf("  p99  : %s\n", report.Latency.P99)
	fmt.Printf("  max  : %s\n", report.Latency.Max)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("RagLoad %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`RagLoad - Retrieval Pipeline Load Tester

Usage:
  ragload <command> [options]

Commands:
  run       Assemble the pipeline, seed a synthetic corpus and run the load test
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>   Path to configuration file (YAML)
  --docs <n>        Synthetic corpus size (default 1000)

Examples:
  ragload run
  ragload run --config /etc/ragcore/config.yaml --docs 5000`)
}

// Package telemetry 封装检索管线的分布式追踪初始化。
// 指标走 internal/metrics 的 Prometheus 通道，这里只负责 trace：
// 关闭时不创建任何 exporter，全局 provider 保持 noop。
package telemetry

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/BaSui01/ragcore/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracerName 检索管线 span 的统一 tracer 名。
const TracerName = "github.com/BaSui01/ragcore/retrieval"

// =============================================================================
// 🏷️ span 属性约定
// =============================================================================

// 检索 span 的属性键，编排器与下游组件共用同一套命名。
var (
	AttrTopK       = attribute.Key("ragcore.top_k")
	AttrStrategy   = attribute.Key("ragcore.rerank_strategy")
	AttrQueryType  = attribute.Key("ragcore.query_type")
	AttrCandidates = attribute.Key("ragcore.candidates")
	AttrResults    = attribute.Key("ragcore.results")
	AttrCacheHit   = attribute.Key("ragcore.cache_hit")
)

// =============================================================================
// 🔭 SDK 初始化
// =============================================================================

// Provider 持有 trace SDK 的 TracerProvider。
// 关闭状态下 tp 为 nil，Shutdown 是 no-op。
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Init 初始化 trace SDK。cfg.Enabled 为 false 时返回 noop Provider，
// 不连接任何外部服务。
func Init(cfg config.TelemetryConfig, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("telemetry disabled, using noop tracer")
		return &Provider{}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(buildVersion()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	// ParentBased：上游已决定采样的链路全量跟随，根 span 按比例采样
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry initialized",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sample_rate", cfg.SampleRate),
	)

	return &Provider{tp: tp}, nil
}

// Tracer 从全局 provider 取检索管线 tracer。未初始化时为 noop。
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Shutdown 刷出未导出的 span 并关闭 exporter。对 noop Provider 安全。
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}

// buildVersion 从构建信息取模块版本，取不到时退回 "dev"。
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Package loadgen 对检索管线施加可控并发负载并汇总延迟分布。
package loadgen

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BaSui01/ragcore/types"
)

// Target 被压测的操作。requestID 唯一标识单次请求，便于下游日志关联。
type Target func(ctx context.Context, requestID string) error

// Config 负载测试配置
type Config struct {
	// Users 并发虚拟用户数，至少 1。
	Users int `json:"users" yaml:"users"`
	// RequestsPerUser 每用户请求数，至少 1。
	RequestsPerUser int `json:"requests_per_user" yaml:"requests_per_user"`
	// RampUp 用户启动的爬坡总时长，均匀错开。
	RampUp time.Duration `json:"ramp_up" yaml:"ramp_up"`
	// ThinkTime 同一用户相邻请求间的停顿。
	ThinkTime time.Duration `json:"think_time" yaml:"think_time"`
	// RatePerSecond 全局速率上限（req/s），0 不限速。
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
	// Timeout 单请求超时，0 不限。
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig 返回默认负载配置。
func DefaultConfig() Config {
	return Config{
		Users:           10,
		RequestsPerUser: 100,
		RampUp:          5 * time.Second,
		ThinkTime:       50 * time.Millisecond,
		RatePerSecond:   0,
		Timeout:         2 * time.Second,
	}
}

// Validate 校验负载配置。
func (c Config) Validate() error {
	if c.Users < 1 {
		return types.NewValidationError("users must be at least 1")
	}
	if c.RequestsPerUser < 1 {
		return types.NewValidationError("requests per user must be at least 1")
	}
	if c.RatePerSecond < 0 {
		return types.NewValidationError("rate per second must not be negative")
	}
	return nil
}

// LatencyStats 延迟分布统计（单位纳秒的 time.Duration）
type LatencyStats struct {
	Min  time.Duration `json:"min"`
	Mean time.Duration `json:"mean"`
	Max  time.Duration `json:"max"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}

// Report 负载测试汇总
type Report struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"success_rate"`
	Duration    time.Duration `json:"duration"`
	// Throughput 实际吞吐（req/s）
	Throughput float64      `json:"throughput"`
	Latency    LatencyStats `json:"latency"`
}

// Runner 负载执行器
type Runner struct {
	config  Config
	target  Target
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRunner 创建负载执行器。
func NewRunner(config Config, target Target, logger *zap.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, types.NewValidationError("target must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if config.RatePerSecond > 0 {
		burst := int(config.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), burst)
	}

	return &Runner{
		config:  config,
		target:  target,
		limiter: limiter,
		logger:  logger.With(zap.String("component", "loadgen")),
	}, nil
}

// sample 单请求观测值
type sample struct {
	latency time.Duration
	err     error
}

// Run 执行完整负载并汇总报告。
// ctx 取消时提前终止，已完成的请求仍计入报告。
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	total := r.config.Users * r.config.RequestsPerUser
	samples := make([]sample, 0, total)
	var mu sync.Mutex

	r.logger.Info("load test starting",
		zap.Int("users", r.config.Users),
		zap.Int("requests_per_user", r.config.RequestsPerUser),
		zap.Duration("ramp_up", r.config.RampUp),
		zap.Float64("rate_per_second", r.config.RatePerSecond))

	started := time.Now()

	var stagger time.Duration
	if r.config.Users > 1 {
		stagger = r.config.RampUp / time.Duration(r.config.Users)
	}

	g, gctx := errgroup.WithContext(ctx)
	for u := 0; u < r.config.Users; u++ {
		delay := stagger * time.Duration(u)
		g.Go(func() error {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return r.runUser(gctx, &mu, &samples)
		})
	}

	runErr := g.Wait()
	elapsed := time.Since(started)

	mu.Lock()
	report := buildReport(samples, elapsed)
	mu.Unlock()

	r.logger.Info("load test finished",
		zap.Int("total", report.Total),
		zap.Int("failed", report.Failed),
		zap.Float64("success_rate", report.SuccessRate),
		zap.Float64("throughput", report.Throughput),
		zap.Duration("p99", report.Latency.P99))

	if runErr != nil && runErr != context.Canceled && runErr != context.DeadlineExceeded {
		return report, runErr
	}
	return report, nil
}

// runUser 单虚拟用户的请求循环。
func (r *Runner) runUser(ctx context.Context, mu *sync.Mutex, samples *[]sample) error {
	for i := 0; i < r.config.RequestsPerUser; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		s := r.fire(ctx)
		mu.Lock()
		*samples = append(*samples, s)
		mu.Unlock()

		if r.config.ThinkTime > 0 && i < r.config.RequestsPerUser-1 {
			select {
			case <-time.After(r.config.ThinkTime):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// fire 发出单个请求并测量延迟。
func (r *Runner) fire(ctx context.Context) sample {
	requestID := uuid.NewString()

	reqCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	begin := time.Now()
	err := r.target(reqCtx, requestID)
	latency := time.Since(begin)

	if err != nil {
		r.logger.Debug("request failed",
			zap.String("request_id", requestID), zap.Error(err))
	}
	return sample{latency: latency, err: err}
}

// buildReport 汇总观测值。
func buildReport(samples []sample, elapsed time.Duration) *Report {
	report := &Report{
		Total:    len(samples),
		Duration: elapsed,
	}
	if len(samples) == 0 {
		return report
	}

	latencies := make([]time.Duration, 0, len(samples))
	var sum time.Duration
	for _, s := range samples {
		if s.err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
		latencies = append(latencies, s.latency)
		sum += s.latency
	}

	report.SuccessRate = float64(report.Succeeded) / float64(report.Total)
	if elapsed > 0 {
		report.Throughput = float64(report.Total) / elapsed.Seconds()
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	report.Latency = LatencyStats{
		Min:  latencies[0],
		Max:  latencies[len(latencies)-1],
		Mean: sum / time.Duration(len(latencies)),
		P50:  percentile(latencies, 0.50),
		P90:  percentile(latencies, 0.90),
		P95:  percentile(latencies, 0.95),
		P99:  percentile(latencies, 0.99),
	}
	return report
}

// percentile 最近秩法取分位数，latencies 必须已升序。
func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	idx := int(p*float64(len(latencies))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(latencies) {
		idx = len(latencies) - 1
	}
	return latencies[idx]
}

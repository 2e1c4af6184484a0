package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthStatus 健康状态
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck 单项检查结果
type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
}

// HealthReport 健康报告
type HealthReport struct {
	Status      HealthStatus  `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
	Uptime      time.Duration `json:"uptime"`
	Checks      []HealthCheck `json:"checks"`
	Version     string        `json:"version"`
	Environment string        `json:"environment"`
}

type dependency struct {
	name     string
	critical bool // 失败时整体为 unhealthy，否则为 degraded
	check    func(ctx context.Context) error
}

// HealthChecker 管理后台使用的详细健康报告
type HealthChecker struct {
	mu           sync.RWMutex
	dependencies []dependency
	gauges       []func(*Metrics)

	metrics   *Metrics
	logger    *zap.Logger
	startTime time.Time
	version   string
	env       string
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(metrics *Metrics, logger *zap.Logger, version, env string) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{
		metrics:   metrics,
		logger:    logger,
		startTime: time.Now(),
		version:   version,
		env:       env,
	}
}

// AddDependency 注册依赖检查
func (hc *HealthChecker) AddDependency(name string, critical bool, check func(ctx context.Context) error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.dependencies = append(hc.dependencies, dependency{name: name, critical: critical, check: check})
}

// AddGauge 注册周期刷新的指标
func (hc *HealthChecker) AddGauge(update func(*Metrics)) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.gauges = append(hc.gauges, update)
}

// CheckHealth 执行健康检查
func (hc *HealthChecker) CheckHealth(ctx context.Context) *HealthReport {
	hc.mu.RLock()
	deps := append([]dependency(nil), hc.dependencies...)
	hc.mu.RUnlock()

	report := &HealthReport{
		Status:      HealthStatusHealthy,
		Timestamp:   time.Now(),
		Uptime:      time.Since(hc.startTime),
		Version:     hc.version,
		Environment: hc.env,
		Checks:      make([]HealthCheck, 0, len(deps)+1),
	}

	for _, dep := range deps {
		check := hc.runDependency(ctx, dep)
		report.Checks = append(report.Checks, check)
		report.Status = worse(report.Status, check.Status)
	}

	system := hc.checkSystem()
	report.Checks = append(report.Checks, system)
	report.Status = worse(report.Status, system.Status)
	return report
}

func (hc *HealthChecker) runDependency(ctx context.Context, dep dependency) HealthCheck {
	start := time.Now()
	check := HealthCheck{Name: dep.name, LastChecked: start, Status: HealthStatusHealthy}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := dep.check(ctx); err != nil {
		check.Status = HealthStatusDegraded
		if dep.critical {
			check.Status = HealthStatusUnhealthy
		}
		check.Message = err.Error()
	}
	check.Duration = time.Since(start)
	return check
}

// checkSystem 检查内存与 goroutine 数量
func (hc *HealthChecker) checkSystem() HealthCheck {
	start := time.Now()
	check := HealthCheck{Name: "system", LastChecked: start, Status: HealthStatusHealthy}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryMB := float64(m.Alloc) / 1024 / 1024
	goroutines := runtime.NumGoroutine()

	check.Message = fmt.Sprintf("memory %.2f MB, goroutines %d", memoryMB, goroutines)
	if memoryMB > 1024 || goroutines > 5000 {
		check.Status = HealthStatusDegraded
	}
	check.Duration = time.Since(start)
	return check
}

// Uptime 运行时长
func (hc *HealthChecker) Uptime() time.Duration {
	return time.Since(hc.startTime)
}

// Run 定期检查并刷新指标，直到 ctx 结束
func (hc *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.refresh(ctx)
		}
	}
}

func (hc *HealthChecker) refresh(ctx context.Context) {
	report := hc.CheckHealth(ctx)

	if hc.metrics != nil {
		hc.metrics.UpdateSystemUptime(report.Uptime)
		hc.mu.RLock()
		gauges := slices.Clone(hc.gauges)
		hc.mu.RUnlock()
		for _, update := range gauges {
			update(hc.metrics)
		}
	}

	switch report.Status {
	case HealthStatusUnhealthy:
		hc.logger.Error("system health check failed", zap.Any("checks", report.Checks))
	case HealthStatusDegraded:
		hc.logger.Warn("system health check degraded", zap.Any("checks", report.Checks))
	default:
		hc.logger.Debug("system health check passed", zap.Duration("uptime", report.Uptime))
	}
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

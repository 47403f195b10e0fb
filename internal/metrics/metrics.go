package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// 合同生成结果
const (
	OutcomeGenerated       = "generated"
	OutcomeBlocked         = "blocked"
	OutcomeGapsUnconfirmed = "gaps_unconfirmed"
	OutcomeFailed          = "failed"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 合同生成次数
	contractGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_generations_total",
			Help: "Total number of contract generation attempts",
		},
		[]string{"outcome"}, // generated, blocked, gaps_unconfirmed, failed
	)

	// 编译耗时
	templateCompileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "template_compile_duration_seconds",
			Help:    "Template compile duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	// 替换为空串的占位符数
	unresolvedTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "template_unresolved_tokens_total",
			Help: "Total number of placeholders replaced with an empty string",
		},
	)

	// 不在内置表中的系统值
	unknownSystemValuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_unknown_system_values_total",
			Help: "Total number of unknown system value names echoed during compile",
		},
		[]string{"name"},
	)

	// 合同作废数
	contractsVoidedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contracts_voided_total",
			Help: "Total number of contracts voided",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 合同状态分布
	contractsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contracts_by_status",
			Help: "Number of contracts by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(contractGenerationsTotal)
	prometheus.MustRegister(templateCompileDuration)
	prometheus.MustRegister(unresolvedTokensTotal)
	prometheus.MustRegister(unknownSystemValuesTotal)
	prometheus.MustRegister(contractsVoidedTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(contractsByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标，如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordGeneration 记录一次合同生成的结果
func RecordGeneration(outcome string) {
	contractGenerationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCompile 记录编译耗时
func ObserveCompile(d time.Duration) {
	templateCompileDuration.Observe(d.Seconds())
}

// RecordUnresolvedTokens 记录替换为空串的占位符
func RecordUnresolvedTokens(count int) {
	if count > 0 {
		unresolvedTokensTotal.Add(float64(count))
	}
}

// RecordUnknownSystemValue 记录未知系统值名称
func RecordUnknownSystemValue(name string) {
	unknownSystemValuesTotal.WithLabelValues(name).Inc()
}

// RecordContractVoided 记录合同作废
func RecordContractVoided() {
	contractsVoidedTotal.Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateContractsByStatus 更新合同状态分布指标
func UpdateContractsByStatus(status string, count float64) {
	contractsByStatus.WithLabelValues(status).Set(count)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ==================== 拼团指标 ====================
//
// 通过 go-zero Prometheus 配置暴露在 /metrics

const namespace = "groupbuy"

var (
	// TeamTransitions 团状态流转次数
	TeamTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_transitions_total",
			Help:      "Team terminal transitions by target status",
		},
		[]string{"status"}, // succeeded | failed
	)

	// JoinResults 参团结果
	JoinResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_results_total",
			Help:      "Join attempts by result",
		},
		[]string{"result"},
	)

	// PaymentCallbacks 支付回调处理结果
	PaymentCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callbacks_total",
			Help:      "Payment confirmations by outcome",
		},
		[]string{"outcome"}, // paid | completed | duplicate | late_refund | error
	)

	// CompensationSteps Saga 补偿步骤结果
	CompensationSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensation_steps_total",
			Help:      "Saga compensation steps by kind and result",
		},
		[]string{"kind", "result"}, // kind: refund | cancel_order
	)

	// SweepTeams 过期扫描处理的团数
	SweepTeams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_teams_total",
			Help:      "Expired teams processed by the sweep",
		},
		[]string{"result"}, // succeeded | failed
	)

	// SweepDuration 单次扫描耗时
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one expiry sweep",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(
		TeamTransitions,
		JoinResults,
		PaymentCallbacks,
		CompensationSteps,
		SweepTeams,
		SweepDuration,
	)
}

// Result 把 error 转成标签值
func Result(err error) string {
	if err != nil {
		return "failed"
	}
	return "succeeded"
}

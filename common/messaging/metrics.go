package messaging

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "publish_total",
			Help:      "Total number of published messages",
		},
		[]string{"topic", "status"},
	)

	processTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "process_total",
			Help:      "Total number of consumed messages",
		},
		[]string{"handler", "status"},
	)

	processDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "messaging",
			Name:      "process_duration_seconds",
			Help:      "Message process duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.MustRegister(publishTotal, processTotal, processDuration)
}

func recordPublish(topic string, err error) {
	publishTotal.WithLabelValues(topic, statusLabel(err)).Inc()
}

// metricsMiddleware 记录消费结果与耗时
func metricsMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		handler := message.HandlerNameFromCtx(msg.Context())
		start := time.Now()
		msgs, err := h(msg)
		processDuration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
		processTotal.WithLabelValues(handler, statusLabel(err)).Inc()
		return msgs, err
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

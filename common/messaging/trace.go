package messaging

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/trace"
)

// MetadataTraceID 消息元数据中的 trace_id 键
const MetadataTraceID = "trace_id"

// InjectTraceID 将当前链路的 trace_id 写入消息元数据
func InjectTraceID(ctx context.Context, msg *message.Message) {
	if traceID := trace.TraceIDFromContext(ctx); traceID != "" {
		msg.Metadata.Set(MetadataTraceID, traceID)
	}
}

// traceMiddleware 消费侧把上游 trace_id 带入日志上下文
func traceMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		if traceID := msg.Metadata.Get(MetadataTraceID); traceID != "" {
			ctx := logx.ContextWithFields(msg.Context(), logx.Field("upstream_trace_id", traceID))
			msg.SetContext(ctx)
		}
		return h(msg)
	}
}

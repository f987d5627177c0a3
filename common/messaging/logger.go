package messaging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/zeromicro/go-zero/core/logx"
)

// watermillLogger 把 Watermill 日志接到 go-zero logx
type watermillLogger struct {
	fields []logx.LogField
}

func newWatermillLogger(serviceName string) watermill.LoggerAdapter {
	return &watermillLogger{
		fields: []logx.LogField{logx.Field("component", "watermill"), logx.Field("service", serviceName)},
	}
}

func (l *watermillLogger) with(fields watermill.LogFields) []logx.LogField {
	out := make([]logx.LogField, 0, len(l.fields)+len(fields))
	out = append(out, l.fields...)
	for k, v := range fields {
		out = append(out, logx.Field(k, v))
	}
	return out
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	logx.Errorw(msg, append(l.with(fields), logx.Field("error", err))...)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	logx.Infow(msg, l.with(fields)...)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	logx.Debugw(msg, l.with(fields)...)
}

// Trace 级别日志量过大，降为 Debug
func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	logx.Debugw(msg, l.with(fields)...)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.with(fields)}
}

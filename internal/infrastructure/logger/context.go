package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

// Context keys used to correlate log entries across layers.
const (
	LoggerKey     contextKey = "logger"
	RequestIDKey  contextKey = "request_id"
	CustomerIDKey contextKey = "customer_id"
)

// WithContext attaches the logger to the context.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored in the context, or a no-op
// logger when none is present.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID in the context and returns the
// logger tagged with it.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	tagged := logger.With(zap.String(string(RequestIDKey), requestID))
	return WithContext(ctx, tagged), tagged
}

// WithCustomerID stores the authenticated customer ID in the context
// and returns the logger tagged with it.
func WithCustomerID(ctx context.Context, logger *zap.Logger, customerID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, CustomerIDKey, customerID)
	tagged := logger.With(zap.String(string(CustomerIDKey), customerID))
	return WithContext(ctx, tagged), tagged
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID returns the request ID stored in the context, if any.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetCustomerID returns the customer ID stored in the context, if any.
func GetCustomerID(ctx context.Context) string {
	return stringValue(ctx, CustomerIDKey)
}

// ContextLogger pairs a logger with a context so every entry picks up
// the request and customer correlation fields automatically.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L builds a ContextLogger around whatever logger the context carries.
//
//	logger.L(ctx).Info("order placed", zap.String("order_number", n))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger builds a ContextLogger around an explicit logger, ignoring
// any logger the context may hold.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger}
}

// With returns a child ContextLogger carrying the extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...)}
}

func (cl *ContextLogger) tagged() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	if id := GetRequestID(cl.ctx); id != "" {
		l = l.With(zap.String(string(RequestIDKey), id))
	}
	if id := GetCustomerID(cl.ctx); id != "" {
		l = l.With(zap.String(string(CustomerIDKey), id))
	}
	return l
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.tagged().Debug(msg, fields...) }

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) { cl.tagged().Info(msg, fields...) }

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) { cl.tagged().Warn(msg, fields...) }

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.tagged().Error(msg, fields...) }

// Fatal logs the message and exits the process.
func (cl *ContextLogger) Fatal(msg string, fields ...zap.Field) { cl.tagged().Fatal(msg, fields...) }

// Zap exposes the underlying logger with correlation fields applied,
// for call sites that need a plain *zap.Logger.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.tagged()
}

// Sugar returns the sugared form with correlation fields applied.
func (cl *ContextLogger) Sugar() *zap.SugaredLogger {
	return cl.tagged().Sugar()
}

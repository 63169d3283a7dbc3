package obs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

// Init builds the process-wide structured logger. Safe to call once from
// the composition root; before Init, Log falls back to a no-op logger.
func Init() *zap.SugaredLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	config.EncoderConfig = encoderConfig

	logger, _ := config.Build()

	mu.Lock()
	log = logger.Sugar()
	mu.Unlock()

	return Log()
}

// Log returns the process logger.
func Log() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// WithRequestID threads a request id through the context for Time and
// request logging.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID extracts the request id, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time measures one named operation, logging its duration and recording it
// in the operation metrics. Use as:
//
//	defer obs.Time(ctx, "osrm.OptimizeTrip")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)
		OpDuration.WithLabelValues(name).Observe(dur.Seconds())

		if errp != nil && *errp != nil {
			OpErrors.WithLabelValues(name).Inc()
			Log().Errorw("operation failed", "req_id", reqID, "op", name, "dur_ms", dur.Milliseconds(), "err", *errp)
			return
		}
		Log().Debugw("operation done", "req_id", reqID, "op", name, "dur_ms", dur.Milliseconds())
	}
}

package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logging records each request on entry and its status and duration on exit.
func Logging(log *zap.Logger) Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		log.Info("request started",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("query", req.Query.Encode()),
			zap.String("requestId", req.RequestID))
		start := time.Now()

		resp, err := next(ctx, req)

		duration := time.Since(start)
		status := statusFor(err)
		if err == nil && resp != nil {
			status = resp.StatusCode
		}
		log.Info("request completed",
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("requestId", req.RequestID))
		return resp, err
	})
}

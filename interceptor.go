// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bankrpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
)

// RequestIDHeader carries the per-call id added by RequestIDInterceptor.
const RequestIDHeader = "x-request-id"

// Interceptor wraps the unary exchange.
type Interceptor func(next Invoker) Invoker

// Chain composes interceptors; the first one is outermost.
func Chain(interceptors ...Interceptor) Interceptor {
	return func(next Invoker) Invoker {
		for i := len(interceptors) - 1; i >= 0; i-- {
			next = interceptors[i](next)
		}
		return next
	}
}

// LoggingInterceptor logs each exchange with its duration.
func LoggingInterceptor(logger *zap.Logger) Interceptor {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) ([]byte, error) {
			start := time.Now()
			resp, err := next(ctx, inv)
			fields := []zap.Field{
				zap.Stringer("method", inv.Descriptor),
				zap.Duration("duration", time.Since(start)),
				zap.Int("request_bytes", len(inv.Body)),
			}
			if id, ok := inv.Metadata.Get(RequestIDHeader); ok {
				fields = append(fields, zap.String("request_id", id))
			}
			if err != nil {
				logger.Warn("call failed", append(fields, zap.Error(err))...)
				return nil, err
			}
			logger.Debug("call finished", append(fields, zap.Int("response_bytes", len(resp)))...)
			return resp, nil
		}
	}
}

// TimeoutInterceptor bounds the exchange. An expired deadline surfaces as a
// TransportError with codes.DeadlineExceeded.
func TimeoutInterceptor(timeout time.Duration) Interceptor {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) ([]byte, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			resp, err := next(ctx, inv)
			if err != nil && ctx.Err() == context.DeadlineExceeded {
				return nil, &TransportError{
					Path:    inv.Descriptor.Path(),
					Code:    codes.DeadlineExceeded,
					Message: "deadline exceeded after " + timeout.String(),
					Err:     err,
				}
			}
			return resp, err
		}
	}
}

// RateLimitInterceptor rejects calls over r per second (token bucket with
// the given burst) without touching the network.
func RateLimitInterceptor(r float64, burst int) Interceptor {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) ([]byte, error) {
			if !limiter.Allow() {
				return nil, &TransportError{
					Path:    inv.Descriptor.Path(),
					Code:    codes.ResourceExhausted,
					Message: "client rate limit exceeded",
				}
			}
			return next(ctx, inv)
		}
	}
}

// RequestIDInterceptor tags each call with a random x-request-id unless the
// caller already set one.
func RequestIDInterceptor() Interceptor {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) ([]byte, error) {
			if _, ok := inv.Metadata.Get(RequestIDHeader); ok {
				return next(ctx, inv)
			}
			tagged := *inv
			tagged.Metadata = inv.Metadata.With(RequestIDHeader, uuid.NewString())
			return next(ctx, &tagged)
		}
	}
}

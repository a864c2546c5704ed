package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"financeflow/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID carries the request ID to the API.
	HeaderRequestID = "X-Request-ID"
)

// Transport tags outbound requests with a request ID and logs their outcome.
type Transport struct {
	next    http.RoundTripper
	logger  *log.Logger
	metrics *Metrics
}

// Metrics tracks outbound request metrics
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime int64 // in microseconds, moving average
}

// NewTransport wraps next. A nil next means http.DefaultTransport.
func NewTransport(next http.RoundTripper, logger *log.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Transport{
		next:    next,
		logger:  logger.WithComponent(log.ComponentTrace),
		metrics: &Metrics{},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = GenerateRequestID()
		ctx = WithRequestID(ctx, requestID)
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(ctx)
	req.Header.Set(HeaderRequestID, requestID)

	t.logger.DebugContext(ctx, "HTTP request started",
		log.FieldRequestID, requestID,
		log.FieldMethod, req.Method,
		log.FieldURL, req.URL.Redacted())

	atomic.AddInt64(&t.metrics.TotalRequests, 1)

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(start)
	t.recordDuration(duration)

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		t.logger.WarnContext(ctx, "HTTP request failed",
			log.FieldRequestID, requestID,
			log.FieldMethod, req.Method,
			log.FieldPath, req.URL.Path,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldError, err)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		level = slog.LevelWarn
	} else if resp.StatusCode >= 500 {
		level = slog.LevelError
	}
	if resp.StatusCode >= 400 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
	}

	t.logger.Log(ctx, level, "HTTP request completed",
		log.FieldRequestID, requestID,
		log.FieldMethod, req.Method,
		log.FieldPath, req.URL.Path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, duration.Milliseconds(),
		log.FieldDurationHuman, duration.String(),
		log.FieldSuccess, resp.StatusCode < 400)

	return resp, nil
}

func (t *Transport) recordDuration(d time.Duration) {
	us := d.Microseconds()
	for {
		old := atomic.LoadInt64(&t.metrics.AverageResponseTime)
		next := us
		if old != 0 {
			next = (old*7 + us) / 8
		}
		if atomic.CompareAndSwapInt64(&t.metrics.AverageResponseTime, old, next) {
			return
		}
	}
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// WithRequestID stores a request ID in ctx so that a whole user action can
// share one ID across its requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests:      atomic.LoadInt64(&t.metrics.FailedRequests),
		AverageResponseTime: atomic.LoadInt64(&t.metrics.AverageResponseTime),
	}
}

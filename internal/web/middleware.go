package web

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	commonhttp "applicant-portal/internal/common/http"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.statusWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the HTTP status code
func (w *statusRecorder) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// WithRequestID makes sure every request and response carries an X-Request-ID.
func WithRequestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(commonhttp.HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(commonhttp.HeaderRequestID, id)
			}
			w.Header().Set(commonhttp.HeaderRequestID, id)
			next.ServeHTTP(w, r)
		})
	}
}

// WithTracing continues an incoming trace or starts a new one for each request.
func WithTracing(name string) mux.MiddlewareFunc {
	tracer := otel.Tracer(name)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(
				ctx,
				"http."+routeName(r),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", routeName(r)),
					attribute.String("http.request_id", r.Header.Get(commonhttp.HeaderRequestID)),
				),
			)
			defer span.End()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLogger logs one line per request and counts it by route, method and status.
func WithLogger(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			reqFields := map[string]interface{}{"requestId": r.Header.Get(commonhttp.HeaderRequestID)}
			if span := trace.SpanFromContext(r.Context()); span.SpanContext().IsValid() {
				reqFields["traceId"] = span.SpanContext().TraceID().String()
			}
			next.ServeHTTP(rec, r.WithContext(logger.WithRequestFields(r.Context(), reqFields)))

			route := routeName(r)
			status := rec.Status()
			metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"route":      route,
				"status":     status,
				"durationMs": time.Since(start).Milliseconds(),
			}
			for k, v := range reqFields {
				fields[k] = v
			}
			switch {
			case status >= 500:
				log.Error("request completed", fields)
			case status >= 400:
				log.Warn("request completed", fields)
			default:
				log.Info("request completed", fields)
			}
		})
	}
}

// WithRecovery turns a handler panic into a 500 response.
func WithRecovery(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					route := routeName(r)
					metrics.HTTPPanics.WithLabelValues(route).Inc()
					log.Error("handler panic", map[string]interface{}{
						"route":     route,
						"panic":     fmt.Sprint(rec),
						"stack":     string(debug.Stack()),
						"requestId": r.Header.Get(commonhttp.HeaderRequestID),
					})
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package fakegateway

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bawes/myfatoorah/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// sensitiveHeaders are header name fragments masked in request logs.
var sensitiveHeaders = []string{
	"authorization",
	"cookie",
	"token",
	"secret",
}

var sensitiveElements = regexp.MustCompile(`(?s)<(merchant_password|merchant_username)>.*?</(merchant_password|merchant_username)>`)

// RequestID tags the request context logger with a trace id, taken from the
// caller when present, and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(traceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.From(r.Context())

		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		log.Info("incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote_addr", r.RemoteAddr,
			"headers", filterSensitiveHeaders(r.Header),
			"body", filterSensitiveBody(bodyBytes))

		ww := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(ww, r)

		statusCode := ww.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		level := slog.LevelInfo
		if statusCode >= 400 && statusCode < 500 {
			level = slog.LevelWarn
		} else if statusCode >= 500 {
			level = slog.LevelError
		}

		log.Log(r.Context(), level, "response",
			"status_code", statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"response_size", ww.size)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, values := range headers {
		lowerName := strings.ToLower(name)

		isSensitive := false
		for _, fragment := range sensitiveHeaders {
			if strings.Contains(lowerName, fragment) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			filtered[name] = "[FILTERED]"
		} else {
			filtered[name] = strings.Join(values, ", ")
		}
	}
	return filtered
}

// filterSensitiveBody masks merchant credentials inside SOAP payloads.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	return sensitiveElements.ReplaceAllString(string(body), "<$1>[FILTERED]</$1>")
}

// RecoveryMiddleware turns a panic into a SOAP receiver fault.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.From(r.Context()).Error("panic recovered",
					"error", err,
					"method", r.Method,
					"url", r.URL.String(),
					"stack", string(debug.Stack()))

				_ = writeFault(w, "soap:Receiver", fmt.Sprintf("internal error: %v", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

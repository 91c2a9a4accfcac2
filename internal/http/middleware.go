package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"buchhaltung/internal/log"
)

// withAuth enforces the API key. Requests carry it either as a Bearer token
// or in the X-API-Key header. A server without a configured key refuses all
// API traffic rather than running open.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "API key not configured"})
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			auth := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
				key = after
			}
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing API key"})
			return
		}
		next(w, r)
	}
}

// withRequestLog stamps security headers, applies the per-IP rate limit and
// logs the request with a generated ID.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)

		clientIP := extractClientIP(r)
		if !s.limiter.allow(clientIP) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		s.logger.InfoContext(r.Context(), "Request handled",
			log.FieldRequestID, generateRequestID(),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldClientIP, clientIP,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/utils"
)

const (
	tokenHeader     = "api-token"
	requestIDHeader = "X-Request-Id"
)

var (
	errAdminDisabled = errors.New("admin access disabled")
	errUnauthorized  = errors.New("invalid or missing token")
)

// requestLogger assigns a request id, puts a request scoped logger into the context
// and logs the outcome of each request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		l := s.l.With(log.String("requestId", id))
		r = r.WithContext(log.AddToContext(r.Context(), l))

		m := httpsnoop.CaptureMetrics(next, w, r)
		l.Debug("request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", m.Code),
			log.Int64("bytes", m.Written),
			log.Duration("duration", m.Duration))
		s.requests.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", r.Pattern),
			attribute.Int("status", m.Code)))
	})
}

// requireAdmin accepts the admin token either in the api-token header or as bearer token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			s.writeError(w, r, http.StatusForbidden, errAdminDisabled)
			return
		}
		token := r.Header.Get(tokenHeader)
		if token == "" {
			token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if !utils.TokenEquals(token, s.adminToken) {
			s.writeError(w, r, http.StatusUnauthorized, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Package localapi serves the workshop API on a local HTTP port the way API
// Gateway fronts it: preflight on every resource, request body validation
// before the handler, and a 403 for anything outside the route table.
package localapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dineshpithiya/cdk-workshop/internal/api"
	"github.com/dineshpithiya/cdk-workshop/internal/handler"
	"github.com/dineshpithiya/cdk-workshop/internal/routes"
)

// MaxBodyBytes is the largest request body the emulator accepts.
const MaxBodyBytes = 10 << 20

// TooLargeMessage is the message of a 413 response, as API Gateway words it.
const TooLargeMessage = "Request Entity Too Large"

// MetricsPrefix prefixes every emulator metric.
const MetricsPrefix = "cdk_workshop_local"

// Invoker runs a proxy event through a Lambda handler.
type Invoker interface {
	Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// Server emulates the REST API of the workshop stack.
type Server struct {
	def    *api.Definition
	invoke Invoker
	log    zerolog.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	rejected *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates an emulator for def that forwards accepted requests to invoke.
func New(def *api.Definition, invoke Invoker, log zerolog.Logger) *Server {
	s := &Server{
		def:      def,
		invoke:   invoke,
		log:      log,
		registry: prometheus.NewRegistry(),
	}

	s.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	s.rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "_validation_failures_total",
			Help: "Total number of request bodies rejected by a model",
		},
		[]string{"route", "model"},
	)
	s.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricsPrefix + "_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	s.registry.MustRegister(s.requests, s.rejected, s.duration)

	return s
}

// Registry returns the registry the emulator's metrics live in.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Router returns the emulator's HTTP router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Options("/", s.preflight)
	for _, path := range s.def.Routes().Paths() {
		r.Options(path, s.preflight)
	}
	for _, route := range s.def.Routes() {
		r.Method(route.Method, route.Path, s.proxy(route))
	}

	r.NotFound(s.missingToken)
	r.MethodNotAllowed(s.missingToken)

	return r
}

// ListenAndServe serves the emulator on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("stage", s.def.StageName()).Msg("local api listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) preflight(w http.ResponseWriter, r *http.Request) {
	for name, value := range s.def.CORS().PreflightHeaders() {
		w.Header().Set(name, value)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) missingToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusForbidden, handler.ErrorResponse{Message: "Missing Authentication Token"})
}

func (s *Server) proxy(route routes.RouteEntry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, handler.ErrorResponse{Message: TooLargeMessage})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, handler.ErrorResponse{Message: handler.InvalidBodyMessage})
			return
		}

		if route.Validated() {
			schema, _ := s.def.Schema(route.Validator)
			if result := schema.Validate(body); !result.Valid {
				s.rejected.WithLabelValues(route.Path, route.Validator).Inc()
				writeJSON(w, http.StatusBadRequest, handler.ErrorResponse{
					Message:    handler.InvalidBodyMessage,
					Violations: result.Violations,
				})
				return
			}
		}

		resp, err := s.invoke.Handle(r.Context(), s.event(route, r, body))
		if err != nil {
			s.log.Error().Err(err).Str("route", route.String()).Msg("handler failed")
			writeJSON(w, http.StatusBadGateway, handler.ErrorResponse{Message: "Internal server error"})
			return
		}

		if err := writeProxyResponse(w, resp); err != nil {
			s.log.Error().Err(err).Str("route", route.String()).Msg("malformed handler response")
			writeJSON(w, http.StatusBadGateway, handler.ErrorResponse{Message: "Internal server error"})
		}
	}
}

func (s *Server) event(route routes.RouteEntry, r *http.Request, body []byte) events.APIGatewayProxyRequest {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = values[0]
	}
	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		query[name] = values[0]
	}

	return events.APIGatewayProxyRequest{
		Resource:                        route.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               r.Header,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: r.URL.Query(),
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:    requestID,
			Stage:        s.def.StageName(),
			ResourcePath: route.Path,
			HTTPMethod:   r.Method,
			Path:         "/" + s.def.StageName() + r.URL.Path,
		},
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/metrics" {
			return
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		s.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) error {
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return err
		}
		body = decoded
	}

	for name, values := range resp.MultiValueHeaders {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

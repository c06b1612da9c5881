package graspplanning

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.viam.com/utils"
	goji "goji.io"
	"goji.io/pat"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"go.viam.com/graspplanner/logging"
)

// Paths served by the Server.
const (
	QueryPath   = "/manipulation_planning_query"
	SessionPath = "/session"
	MetricsPath = "/metrics"
)

// maxInFlight is the number of queries the server hands to the service at once.
const maxInFlight = 2

type requestIDKeyType int

const requestIDKey = requestIDKeyType(iota)

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id attached to ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Server exposes a Service over HTTP with JSON bodies.
type Server struct {
	svc      Service
	logger   logging.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	handler  http.Handler

	mu      sync.Mutex
	serving bool
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimit rejects queries arriving faster than perSecond on average, allowing bursts of up
// to burst queries. A non-positive perSecond means no limit.
func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewServer returns a Server for svc. Metrics are served from gatherer when it is non-nil.
func NewServer(svc Service, metrics *Metrics, gatherer prometheus.Gatherer, logger logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		svc:      svc,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		sem:      semaphore.NewWeighted(maxInFlight),
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := goji.NewMux()
	mux.HandleFunc(pat.Post(QueryPath), s.handleQuery)
	mux.HandleFunc(pat.Get(SessionPath), s.handleSession)
	if gatherer != nil {
		mux.Handle(pat.Get(MetricsPath), promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.handler = cors.AllowAll().Handler(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := WithRequestID(r.Context(), requestID)
	if r.URL.Query().Get("debug") == "true" {
		ctx = logging.EnableDebugMode(ctx, requestID)
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, requestID, ErrRateLimited)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, requestID, errors.Wrap(ErrInvalidRequest, err.Error()))
		return
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, requestID, err)
		return
	}
	defer s.sem.Release(1)

	start := time.Now()
	resp, err := s.svc.PlanningQuery(ctx, &req)
	if err != nil {
		status := http.StatusInternalServerError
		switch Kind(err) {
		case KindInvalidRequest, KindGraspTypeUnresolved:
			status = http.StatusBadRequest
		case KindCanceled:
			status = http.StatusServiceUnavailable
		default:
		}
		s.writeError(w, status, requestID, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveResponse(resp, time.Since(start))
	}
	s.logger.CDebugw(ctx, "handled planning query", "request_id", requestID, "branch", resp.Branch, "success", resp.Success)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.svc.Session(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) writeError(w http.ResponseWriter, status int, requestID string, err error) {
	s.logger.Warnw("rejected planning query", "request_id", requestID, "error", err)
	resp := &Response{RequestID: requestID}
	resp.Fail(err)
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("error writing response", "error", err)
	}
}

// Serve accepts connections on listener until ctx is done, Close is called, or the listener fails.
// The server can serve again once Serve has returned.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	if s.serving {
		s.mu.Unlock()
		return errors.New("server already serving")
	}
	s.serving = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	// a listener error must also release the shutdown goroutine
	defer func() {
		cancel()
		s.workers.Wait()
		s.mu.Lock()
		s.serving = false
		s.mu.Unlock()
	}()

	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.workers.Add(1)
	utils.PanicCapturingGo(func() {
		defer s.workers.Done()
		<-ctx.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			s.logger.Errorw("error shutting down", "error", err)
		}
	})
	s.logger.Infow("serving", "url", "http://"+listener.Addr().String())
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Close stops serving and closes the service.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.workers.Wait()
	return s.svc.Close(ctx)
}

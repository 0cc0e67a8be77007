package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/internal/tracing"
	"github.com/harun/quill/pkg/auth"
	"github.com/harun/quill/pkg/commandqueue"
	"github.com/harun/quill/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// Server exposes the tool catalog over MCP on HTTP and WebSocket
type Server struct {
	addr       string
	server     *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
	clients    *ClientRegistry
	dispatcher *Dispatcher
	executor   *toolexecutor.Executor
	queue      *commandqueue.CommandQueue
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	wsRequestsPerMinute int
	wsMaxConcurrent     int

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Executor *toolexecutor.Executor
	Queue    *commandqueue.CommandQueue
	Metrics  *metrics.Metrics
	Info     ServerInfo
	Logger   zerolog.Logger

	// Per-connection WebSocket limits
	WSRequestsPerMinute int
	WSMaxConcurrent     int
}

// NewServer creates a new Server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.Info.Name == "" {
		cfg.Info.Name = "quill"
	}

	s := &Server{
		addr:                net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		clients:             NewClientRegistry(),
		dispatcher:          NewDispatcher(cfg.Executor, cfg.Metrics, cfg.Info, cfg.Logger),
		executor:            cfg.Executor,
		queue:               cfg.Queue,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger,
		wsRequestsPerMinute: cfg.WSRequestsPerMinute,
		wsMaxConcurrent:     cfg.WSMaxConcurrent,
		upgrader: websocket.Upgrader{
			// Browsers are not the intended clients; the bearer token gates access.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.server = &http.Server{
		Handler:           s.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Routes builds the HTTP handler tree
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.traceMiddleware)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Post("/mcp", s.handleMCP)
	r.Get("/ws", s.handleWebSocket)

	return r
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting MCP server")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("MCP server error")
		}
	}()
	return nil
}

// Addr returns the bound address once started, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop refuses new work, waits for in-flight requests until ctx ends and
// closes every WebSocket connection.
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down MCP server")

	err := s.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	for _, client := range s.clients.GetAll() {
		deadline := time.Now().Add(time.Second)
		_ = client.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		client.Conn.Close()
	}

	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info().Msg("MCP server stopped")
	return nil
}

// Clients describes the open WebSocket connections
func (s *Server) Clients() []ClientInfo {
	return s.clients.Snapshot()
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShuttingDown
}

// authenticate checks the bearer token on r. On failure it has already
// written the 401 response.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, transport string) (string, bool) {
	token := auth.TokenFromRequest(r)
	if _, ok := s.executor.Authenticate(token); ok {
		return token, true
	}

	s.metrics.AuthFailure(transport)
	logger := tracing.LoggerFromContext(r.Context(), s.logger)
	logger.Warn().
		Str("transport", transport).
		Str("ip", r.RemoteAddr).
		Msg("Rejected request with invalid bearer token")

	w.Header().Set("WWW-Authenticate", `Bearer realm="quill", error="invalid_token"`)
	writeJSON(w, http.StatusUnauthorized, errorResponse(nil, AuthenticationRequired, "invalid or missing bearer token", nil))
	return "", false
}

// handleMCP handles one JSON-RPC message sent via HTTP POST
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	token, ok := s.authenticate(w, r, "http")
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, ParseError, "failed to read request body", nil))
		return
	}
	if len(body) > MaxRequestBodySize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(nil, InvalidRequest, "request body too large", nil))
		return
	}

	req, errResp := Decode(body)
	if errResp != nil {
		writeJSON(w, http.StatusBadRequest, errResp)
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), "http", token, req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	status := http.StatusOK
	if resp.Error != nil && resp.Error.Code == AuthenticationRequired {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]interface{}{
		"status":      "ok",
		"tools":       s.executor.Registry().Len(),
		"connections": s.clients.Count(),
	}
	if s.queue != nil {
		status["queue"] = s.queue.GetStats()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.FromRequest(r)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = tracing.WithRequestID(ctx, reqID)
		}
		w.Header().Set(tracing.TraceHeader, tracing.GetTraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger := tracing.LoggerFromContext(r.Context(), s.logger)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

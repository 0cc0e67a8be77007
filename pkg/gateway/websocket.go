package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harun/quill/internal/tracing"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// handleWebSocket upgrades an authenticated request. Each text frame on the
// connection carries one JSON-RPC message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	token, ok := s.authenticate(w, r, "ws")
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}
	conn.SetReadLimit(MaxRequestBodySize)

	clientID, err := gonanoid.New()
	if err != nil {
		clientID = tracing.NewTraceID()
	}
	now := time.Now()
	client := &Client{
		ID:           clientID,
		Conn:         conn,
		Token:        token,
		ConnectedAt:  now,
		LastActivity: now,
		IPAddress:    r.RemoteAddr,
		RateLimiter:  NewClientRateLimiter(s.wsRequestsPerMinute, s.wsMaxConcurrent),
	}

	s.clients.Add(client)
	s.metrics.WSConnected(1)

	s.logger.Info().
		Str("clientId", clientID).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	// the request context ends when this handler returns
	ctx := tracing.WithConnID(tracing.Detach(r.Context()), clientID)
	go s.handleClient(ctx, client)
}

// handleClient reads messages until the connection closes. Calls still in
// flight are cancelled when it does.
func (s *Server) handleClient(ctx context.Context, client *Client) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		client.Conn.Close()
		s.clients.Remove(client.ID)
		s.metrics.WSConnected(-1)
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			return
		}

		s.clients.Touch(client.ID)
		s.handleMessage(ctx, client, message)
	}
}

// handleMessage decodes one message and dispatches it on its own goroutine
func (s *Server) handleMessage(ctx context.Context, client *Client, message []byte) {
	req, errResp := Decode(message)
	if errResp != nil {
		s.send(client, errResp)
		return
	}

	allowed, reason := client.RateLimiter.Acquire()
	if !allowed {
		s.logger.Warn().Str("clientId", client.ID).Str("reason", reason).Msg("Request refused")
		if !req.IsNotification() {
			s.send(client, errorResponse(req.ID, rateLimitCode(reason), reason, nil))
		}
		return
	}

	// Add must not race with Stop's Wait
	s.shutdownMu.RLock()
	closing := s.isShuttingDown
	if !closing {
		s.inFlightReqs.Add(1)
	}
	s.shutdownMu.RUnlock()
	if closing {
		client.RateLimiter.Release()
		if !req.IsNotification() {
			s.send(client, errorResponse(req.ID, InternalError, "server is shutting down", nil))
		}
		return
	}

	go func() {
		defer s.inFlightReqs.Done()
		defer client.RateLimiter.Release()

		reqCtx := tracing.WithTraceID(ctx, tracing.NewTraceID())
		if resp := s.dispatcher.Dispatch(reqCtx, "ws", client.Token, req); resp != nil {
			s.send(client, resp)
		}
	}()
}

func (s *Server) send(client *Client, resp *Response) {
	if err := client.WriteJSON(resp); err != nil {
		s.logger.Error().
			Err(err).
			Str("clientId", client.ID).
			Msg("Failed to send response")
	}
}

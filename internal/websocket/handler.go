package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"strakdash/internal/config"
	"strakdash/internal/infrastructure"
)

// Handler upgrades HTTP requests and attaches the connection to the hub
type Handler struct {
	hub        *Hub
	dispatcher Dispatcher
	timings    Timings
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates the /ws endpoint. Browsers are accepted only from
// allowedOrigins; requests without an Origin header are always accepted.
func NewHandler(hub *Hub, dispatcher Dispatcher, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.handler"))

	h := &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		timings:    TimingsFrom(cfg),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     originChecker(allowedOrigins),
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			logger.WarnContext(r.Context(), "WebSocket upgrade failed",
				slog.Int("status", status),
				slog.String("error", reason.Error()))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP upgrades the connection and starts the client pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}

	client := NewClient(h.hub, WrapConn(conn), h.dispatcher, h.timings, traceID, h.logger)
	h.hub.Register(client)

	go h.pump(client.WritePump, client, "write")
	go h.pump(client.ReadPump, client, "read")
}

func (h *Handler) pump(run func(), client *Client, name string) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("WebSocket pump panicked",
				slog.String("pump", name),
				slog.String("client_id", client.id),
				slog.Any("panic", rec))
		}
	}()
	run()
}

package game

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/auth"
	httperrors "github.com/mkunboxing/mathletes/pkg/http/errors"
	"github.com/mkunboxing/mathletes/pkg/http/ws"
)

// WSHandler upgrades authenticated HTTP requests to game WebSocket
// connections. Browsers cannot set headers on WebSocket requests, so the
// token rides in the query string.
type WSHandler struct {
	authSvc  *auth.Service
	handler  *Handler
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWSHandler creates the WebSocket entry point.
func NewWSHandler(authSvc *auth.Service, handler *Handler, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		authSvc: authSvc,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "ws_handler").Logger(),
	}
}

// ServeHTTP handles GET /ws/game?token=...
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Missing token")
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := ws.NewConnection(wsConn, h.logger)
	h.handler.HandleConnection(claims.UserID, claims.Username, conn)
}

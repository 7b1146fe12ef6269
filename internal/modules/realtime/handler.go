package realtime

import (
	"log"
	"net/http"

	"parkservices/internal/modules/orders"
	"parkservices/internal/pkg/jwt"
	"parkservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// views are served from other origins; the token query parameter authenticates
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SnapshotSource supplies the snapshot a new connection starts from.
type SnapshotSource interface {
	Snapshot() orders.Snapshot
}

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
	source     SnapshotSource
}

func NewHandler(hub *Hub, jwtService *jwt.Service, source SnapshotSource) *Handler {
	return &Handler{hub: hub, jwtService: jwtService, source: source}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/orders", h.HandleWebSocket)
}

// HandleWebSocket streams order snapshots.
//
// Endpoint: GET /ws/orders?token=JWT_TOKEN
//
// Browsers cannot set headers on the upgrade request, so the token travels in the query.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("realtime_upgrade_failed user_id=%s error=%q", claims.UserID, err)
		return
	}

	log.Printf("realtime_connected user_id=%s role=%s", claims.UserID, claims.Role)
	h.hub.ServeWS(conn, claims.UserID, &WSEvent{Type: orders.EventSnapshot, Payload: h.source.Snapshot()})
	log.Printf("realtime_disconnected user_id=%s", claims.UserID)
}

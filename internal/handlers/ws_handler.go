package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"consult-service/internal/services"
	"consult-service/internal/ws"
	"consult-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const pongWait = 60 * time.Second

type WSHandler struct {
	hub        *ws.Hub
	jwtService services.IJWTService
	upgrader   websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, jwtService services.IJWTService) *WSHandler {
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// auth happens via the signed token, not the origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/ws", h.Connect)
}

// Connect authenticates via the token query parameter (browsers cannot set
// headers on websocket upgrades), upgrades the connection, and keeps it
// registered on the hub until the client goes away.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, utils.CreateErrorResponse("UNAUTHORIZED", "missing token"))
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.CreateErrorResponse("UNAUTHORIZED", "invalid or expired token"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	actorID := claims.UserID
	h.hub.Register(actorID, conn)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.readLoop(actorID, conn)
}

// readLoop drains client frames so control messages are processed; the
// push path is server-to-client only. Exiting deregisters the connection.
func (h *WSHandler) readLoop(actorID string, conn *websocket.Conn) {
	defer func() {
		h.hub.Deregister(actorID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

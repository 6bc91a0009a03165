package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"metrika/internal/middleware"
	"metrika/internal/realtime"
)

type WSHandler struct {
	presence *realtime.Presence
}

func NewWSHandler(presence *realtime.Presence) *WSHandler {
	return &WSHandler{presence: presence}
}

type wsFrame struct {
	Type string `json:"type"`
}

// GET /ws?token=
func (h *WSHandler) Serve(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	claims, err := middleware.ParseToken(token)
	if token == "" || err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		log.Printf("[ws][upgrade][err] user=%d: %v", claims.UserID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.presence.Join(claims.UserID)
	log.Printf("[ws][open] user=%d", claims.UserID)
	defer func() {
		h.presence.Leave(claims.UserID)
		_ = conn.Close()
		log.Printf("[ws][close] user=%d", claims.UserID)
	}()

	if err := conn.WriteJSON(wsFrame{Type: "hello"}); err != nil {
		return
	}
	for {
		var in wsFrame
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Type == "ping" {
			if err := conn.WriteJSON(wsFrame{Type: "pong"}); err != nil {
				return
			}
		}
	}
}

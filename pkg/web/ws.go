package web

import (
	"github.com/gofiber/websocket/v2"

	"github.com/tacolabs/hungry-agent/pkg/hub"
	"github.com/tacolabs/hungry-agent/pkg/protocol"
)

// handleWS upgrades a dashboard connection, sends an initial status
// snapshot, then streams hub broadcasts until the client goes away.
func (s *Server) handleWS(conn *websocket.Conn) {
	if msg, err := protocol.NewSystemStatusMessage(s.systemStatus()); err == nil {
		if data, err := msg.Bytes(); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}

	client := hub.NewClient(s.cfg.Hub, conn)
	client.Run()
}

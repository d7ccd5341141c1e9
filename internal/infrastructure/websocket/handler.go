package websocket

import (
	"net/http"

	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is the reverse proxy's job
	},
}

// Handler upgrades subscription requests and registers the connection
// with the manager. The stream is one way: server to client; inbound
// frames are drained and dropped.
type Handler struct {
	connManager *ConnectionManager
	log         logger.Logger
}

func NewHandler(connManager *ConnectionManager, log logger.Logger) *Handler {
	return &Handler{connManager: connManager, log: log}
}

// HandleConnection serves /ws/auctions/{auctionID}. The user_id query
// parameter identifies the client; request authentication happens
// upstream.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auctionID := vars["auctionID"]

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewConnection(conn, userID, auctionID, h.log)
	h.connManager.Register(wsConn)

	go h.drain(wsConn)
}

func (h *Handler) drain(conn *Connection) {
	defer func() {
		h.connManager.Unregister(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			return
		}
	}
}

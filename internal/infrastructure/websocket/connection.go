package websocket

import (
	"sync"

	"auction-marketplace/pkg/logger"

	"github.com/gorilla/websocket"
)

// Connection is one client subscription, scoped to an auction room
// (empty auction id means the lobby, which sees created/closed events
// only).
type Connection struct {
	conn      *websocket.Conn
	userID    string
	auctionID string
	writeMu   sync.Mutex
	log       logger.Logger
}

func NewConnection(conn *websocket.Conn, userID, auctionID string, log logger.Logger) *Connection {
	return &Connection{
		conn:      conn,
		userID:    userID,
		auctionID: auctionID,
		log:       log,
	}
}

// Send writes one text message. Gorilla connections allow a single
// concurrent writer, hence the mutex.
func (c *Connection) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) UserID() string    { return c.userID }
func (c *Connection) AuctionID() string { return c.auctionID }

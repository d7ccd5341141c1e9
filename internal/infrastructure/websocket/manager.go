package websocket

import (
	"encoding/json"
	"sync"

	"auction-marketplace/pkg/logger"
)

// ConnectionManager tracks live client connections by auction room and
// by user, and fans messages out to them. Send failures are logged and
// skipped; a dead client never blocks a broadcast.
type ConnectionManager struct {
	connections map[string]map[string]*Connection // auctionID -> userID -> connection
	userConns   map[string][]*Connection          // userID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]*Connection),
		userConns:   make(map[string][]*Connection),
		log:         log,
	}
}

func (cm *ConnectionManager) Register(conn *Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionID, userID := conn.AuctionID(), conn.UserID()
	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[string]*Connection)
	}
	cm.connections[auctionID][userID] = conn
	cm.userConns[userID] = append(cm.userConns[userID], conn)

	cm.log.Info("Connection registered", "user_id", userID, "auction_id", auctionID)
}

func (cm *ConnectionManager) Unregister(conn *Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionID, userID := conn.AuctionID(), conn.UserID()
	// The room slot may already hold a replacement connection for the
	// same user; only the registered pointer itself is evicted.
	if auctionConns, exists := cm.connections[auctionID]; exists && auctionConns[userID] == conn {
		delete(auctionConns, userID)
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	if userConnections, exists := cm.userConns[userID]; exists {
		var remaining []*Connection
		for _, existing := range userConnections {
			if existing != conn {
				remaining = append(remaining, existing)
			}
		}
		if len(remaining) == 0 {
			delete(cm.userConns, userID)
		} else {
			cm.userConns[userID] = remaining
		}
	}

	cm.log.Info("Connection unregistered", "user_id", userID, "auction_id", auctionID)
}

// BroadcastToAuction sends a message to every client in one room.
func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	cm.mutex.RLock()
	conns := make([]*Connection, 0, len(cm.connections[auctionID]))
	for _, conn := range cm.connections[auctionID] {
		conns = append(conns, conn)
	}
	cm.mutex.RUnlock()

	cm.send(conns, payload)
	return nil
}

// BroadcastAll sends a message to every connected client.
func (cm *ConnectionManager) BroadcastAll(message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	cm.mutex.RLock()
	var conns []*Connection
	for _, room := range cm.connections {
		for _, conn := range room {
			conns = append(conns, conn)
		}
	}
	cm.mutex.RUnlock()

	cm.send(conns, payload)
	return nil
}

// NotifyUser sends a message to every connection opened by one user.
func (cm *ConnectionManager) NotifyUser(userID string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	cm.mutex.RLock()
	conns := make([]*Connection, len(cm.userConns[userID]))
	copy(conns, cm.userConns[userID])
	cm.mutex.RUnlock()

	cm.send(conns, payload)
	return nil
}

func (cm *ConnectionManager) send(conns []*Connection, payload []byte) {
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			cm.log.Error("Failed to send message",
				"user_id", conn.UserID(), "auction_id", conn.AuctionID(), "error", err)
		}
	}
}

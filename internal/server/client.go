package server

import (
	"encoding/json"
	"time"

	"presidents-game/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Client represents a single WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ID   string // Unique identifier for the client/player
	Name string // Player's chosen name
}

// ReadPump handles incoming messages from the WebSocket connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	log := c.hub.log.WithField("client", c.ID)
	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("Unexpected close error: %v", err)
			} else {
				log.Debugf("Read loop ended: %v", err)
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Debugf("Error unmarshalling message: %v", err)
			continue
		}

		if msg.Type != protocol.TypePing {
			log.Debugf("Received message type '%s' from %s", msg.Type, c.Name)
		}
		c.hub.handleMessage(c, msg)
	}
}

// WritePump handles outgoing messages to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.log.WithField("client", c.ID).Debugf("Write error: %v", err)
			break
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

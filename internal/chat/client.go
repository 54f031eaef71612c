package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	errEmptyBody   = errors.New("message body is empty")
	errBodyTooLong = errors.New("message body is too long")
)

type inbound struct {
	Body string `json:"body"`
}

type client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan Message
	participant Participant
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.hub.wg.Done()
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.logger.Warn("chat read failed", "userId", c.participant.ID, "error", err)
			}
			return
		}

		body, err := parseBody(data)
		if err != nil {
			c.hub.logger.Debug("ignoring chat frame", "userId", c.participant.ID, "error", err)
			continue
		}

		c.hub.Broadcast(Message{
			ID:         uuid.NewString(),
			SenderID:   c.participant.ID,
			SenderName: c.participant.Name,
			Body:       body,
			SentAt:     c.hub.now(),
		})
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.wg.Done()
	}()

	writeWait := c.hub.cfg.WriteWait
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.logger.Warn("chat write failed", "userId", c.participant.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseBody(data []byte) (string, error) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return "", err
	}
	body := strings.TrimSpace(in.Body)
	switch n := utf8.RuneCountInString(body); {
	case n == 0:
		return "", errEmptyBody
	case n > MaxBodyLength:
		return "", errBodyTooLong
	}
	return body, nil
}

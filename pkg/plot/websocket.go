package plot

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/logger"
)

// WebSocketManager relays chart events to the controller and pushes
// state changes back to every connected page
type WebSocketManager struct {
	sync.RWMutex
	clients       map[*websocket.Conn]struct{}
	upgrader      websocket.Upgrader
	broadcastChan chan WebSocketMessage
	closeMu       sync.RWMutex
	closed        bool
	log           logger.Logger
	chart         *Chart
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager(log logger.Logger, chart *Chart) *WebSocketManager {
	manager := &WebSocketManager{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		broadcastChan: make(chan WebSocketMessage, 100),
		log:           log,
		chart:         chart,
	}

	go manager.handleBroadcasts()

	return manager
}

// handleBroadcasts processes messages from the broadcast channel
func (m *WebSocketManager) handleBroadcasts() {
	for msg := range m.broadcastChan {
		m.RLock()
		for conn := range m.clients {
			if err := conn.WriteJSON(msg); err != nil {
				m.log.Error("Error sending WebSocket message: ", err)
				// the read loop notices the closed connection and unregisters it
				conn.Close()
			}
		}
		m.RUnlock()
	}
}

// HandleWebSocket handles WebSocket connections
func (m *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Error("Failed to upgrade connection to WebSocket: ", err)
		return
	}

	if err := conn.WriteJSON(WebSocketMessage{Type: "records", Payload: m.chart.State()}); err != nil {
		m.log.Error("Error sending initial data: ", err)
		conn.Close()
		return
	}

	m.Lock()
	m.clients[conn] = struct{}{}
	clientCount := len(m.clients)
	m.Unlock()

	m.log.Info("Total WebSocket clients: ", clientCount)

	go m.handleClient(conn)
}

// handleClient reads chart events from a client until it disconnects
func (m *WebSocketManager) handleClient(conn *websocket.Conn) {
	defer func() {
		m.Lock()
		delete(m.clients, conn)
		m.log.Info("WebSocket client disconnected, remaining: ", len(m.clients))
		m.Unlock()
		conn.Close()
	}()

	conn.SetPingHandler(func(string) error {
		return conn.WriteControl(websocket.PongMessage, []byte{}, time.Now().Add(10*time.Second))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Error("WebSocket read error: ", err)
			}
			return
		}

		if err := m.dispatch(msg); err != nil {
			m.log.WithField("type", msg.Type).WithError(err).Warn("invalid chart event")
		}
	}
}

// dispatch routes one chart event to the controller
func (m *WebSocketManager) dispatch(msg inboundMessage) error {
	controller := m.chart.controller

	switch msg.Type {
	case "hover":
		var ev PointerEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return err
		}
		controller.PointerMove(ev)
	case "leave":
		controller.PointerLeave()
	case "click":
		var ev ClickEvent
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				return err
			}
		}
		controller.Click(ev)
	case "key":
		var key keyPayload
		if err := json.Unmarshal(msg.Payload, &key); err != nil {
			return err
		}
		controller.Key(key.Key)
	case "mode":
		var mode modePayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &mode); err != nil {
				return err
			}
		}
		m.chart.setMode(mode)
	default:
		m.log.Debug("ignoring chart event ", msg.Type)
	}

	return nil
}

// BroadcastHover pushes hover feedback. It is dropped when the queue is full.
func (m *WebSocketManager) BroadcastHover(point *core.HoverPoint) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.broadcastChan <- WebSocketMessage{Type: "hover", Payload: point}:
	default:
		m.log.Debug("dropping hover feedback")
	}
}

// BroadcastState pushes the chart state to all clients
func (m *WebSocketManager) BroadcastState(state State) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return
	}

	m.broadcastChan <- WebSocketMessage{Type: "records", Payload: state}
}

// ClientCount returns the number of connected clients
func (m *WebSocketManager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

// Close stops the broadcast loop
func (m *WebSocketManager) Close() {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.broadcastChan)
	}
}

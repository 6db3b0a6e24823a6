package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/realtime/internal/identity"
	"github.com/appetiteclub/realtime/internal/rooms"
	"github.com/appetiteclub/realtime/pkg/event"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sourceService = "realtime"

// Message is the inbound client message shape.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type handlerFunc func(c *Client, ident identity.Identity, data json.RawMessage)

// Gateway drives the per-connection lifecycle: authenticate within a bounded
// window, join the identity's rooms, then dispatch inbound messages until
// the transport closes.
type Gateway struct {
	authenticator *Authenticator
	hub           *Hub
	tracker       *Tracker
	publisher     events.Publisher
	logger        apt.Logger
	upgrader      websocket.Upgrader

	// Dispatch table, built once at construction.
	handlers map[string]handlerFunc
}

func NewGateway(authenticator *Authenticator, hub *Hub, tracker *Tracker, publisher events.Publisher, logger apt.Logger) *Gateway {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	g := &Gateway{
		authenticator: authenticator,
		hub:           hub,
		tracker:       tracker,
		publisher:     publisher,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Tokens, not origins, are the trust boundary here.
				return true
			},
		},
	}
	g.handlers = map[string]handlerFunc{
		"order.join":             g.handleOrderJoin,
		"order.leave":            g.handleOrderLeave,
		"ping":                   g.handlePing,
		"admin.connection_stats": g.handleConnectionStats,
	}
	return g
}

// ServeWS upgrades the HTTP request and runs the connection session.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	g.serve(conn)
}

func (g *Gateway) serve(conn *websocket.Conn) {
	ident, err := g.awaitAuth(conn)
	if err != nil {
		g.reject(conn, err)
		return
	}

	connectionID := uuid.New().String()
	ident.ConnectionID = connectionID

	client := newClient(connectionID, conn)
	g.hub.Add(client)
	g.tracker.Register(connectionID, *ident)

	joined := rooms.RoomsFor(*ident)
	for _, room := range joined {
		g.hub.Join(connectionID, room)
	}

	go client.writePump(g.logger)

	g.send(client, ident.TenantID, "connection.success", map[string]interface{}{
		"connection_id": connectionID,
		"user_id":       ident.UserID,
		"tenant_id":     ident.TenantID,
		"role":          string(ident.Role),
		"rooms":         joined,
	})

	g.publishPresence(event.EventClientConnected, *ident)
	g.logger.Info("client connected",
		"connection_id", connectionID,
		"tenant_id", ident.TenantID,
		"role", string(ident.Role),
	)

	client.readPump(
		func(msg []byte) { g.handleMessage(client, *ident, msg) },
		func() { g.disconnect(*ident) },
	)
}

// awaitAuth reads the handshake. The first message must be an auth message
// and must arrive within authWait, otherwise the connection is dropped.
func (g *Gateway) awaitAuth(conn *websocket.Conn) (*identity.Identity, error) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(authWait))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("parse handshake: %w", err)
	}
	if msg.Event != "auth" {
		return nil, fmt.Errorf("expected auth message, got %q", msg.Event)
	}

	var hs Handshake
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &hs); err != nil {
			return nil, fmt.Errorf("parse handshake payload: %w", err)
		}
	}

	return g.authenticator.Authenticate(hs)
}

// reject reports the authentication failure and forcibly closes the
// transport. No tracker entry or room membership exists at this point.
func (g *Gateway) reject(conn *websocket.Conn, authErr error) {
	g.logger.Info("authentication rejected", "error", authErr)

	env := event.Envelope{
		Event:     "connection.error",
		Data:      map[string]interface{}{"error": authErr.Error()},
		Timestamp: time.Now().UTC(),
		Metadata:  event.Metadata{SourceService: sourceService},
	}
	if data, err := json.Marshal(env); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
	}
	conn.Close()
}

func (g *Gateway) disconnect(ident identity.Identity) {
	g.hub.Remove(ident.ConnectionID)
	g.tracker.Remove(ident.ConnectionID)
	g.publishPresence(event.EventClientDisconnected, ident)
	g.logger.Info("client disconnected", "connection_id", ident.ConnectionID, "tenant_id", ident.TenantID)
}

func (g *Gateway) handleMessage(c *Client, ident identity.Identity, raw []byte) {
	g.tracker.Touch(c.ID)

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.send(c, ident.TenantID, "error", map[string]interface{}{
			"success": false,
			"error":   "invalid message",
		})
		return
	}

	handler, ok := g.handlers[msg.Event]
	if !ok {
		g.send(c, ident.TenantID, "error", map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("unknown event: %s", msg.Event),
		})
		return
	}

	handler(c, ident, msg.Data)
}

type orderRoomRequest struct {
	OrderID string `json:"order_id"`
}

func (g *Gateway) handleOrderJoin(c *Client, ident identity.Identity, data json.RawMessage) {
	var req orderRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.OrderID == "" {
		g.send(c, ident.TenantID, "order.join", map[string]interface{}{
			"success": false,
			"error":   "order_id is required",
		})
		return
	}

	// The room name is built from the connection's own tenant, so a join
	// can never cross the tenant boundary regardless of the payload.
	g.hub.Join(c.ID, rooms.OrderRoom(ident.TenantID, req.OrderID))
	g.send(c, ident.TenantID, "order.join", map[string]interface{}{
		"success":  true,
		"order_id": req.OrderID,
	})
}

func (g *Gateway) handleOrderLeave(c *Client, ident identity.Identity, data json.RawMessage) {
	var req orderRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.OrderID == "" {
		g.send(c, ident.TenantID, "order.leave", map[string]interface{}{
			"success": false,
			"error":   "order_id is required",
		})
		return
	}

	g.hub.Leave(c.ID, rooms.OrderRoom(ident.TenantID, req.OrderID))
	g.send(c, ident.TenantID, "order.leave", map[string]interface{}{
		"success":  true,
		"order_id": req.OrderID,
	})
}

func (g *Gateway) handlePing(c *Client, ident identity.Identity, _ json.RawMessage) {
	g.send(c, ident.TenantID, "pong", map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

type statsRequest struct {
	TenantID string `json:"tenant_id,omitempty"`
}

func (g *Gateway) handleConnectionStats(c *Client, ident identity.Identity, data json.RawMessage) {
	if !ident.CanViewStats() {
		g.send(c, ident.TenantID, "admin.connection_stats", map[string]interface{}{
			"success": false,
			"error":   "forbidden",
		})
		return
	}

	var req statsRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			g.send(c, ident.TenantID, "admin.connection_stats", map[string]interface{}{
				"success": false,
				"error":   "invalid payload",
			})
			return
		}
	}

	tenantID := ident.TenantID
	if req.TenantID != "" {
		// Owners are confined to their own tenant; platform admins may
		// inspect any.
		if req.TenantID != ident.TenantID && ident.Role != identity.RoleAdmin {
			g.send(c, ident.TenantID, "admin.connection_stats", map[string]interface{}{
				"success": false,
				"error":   "forbidden",
			})
			return
		}
		tenantID = req.TenantID
	}

	g.send(c, ident.TenantID, "admin.connection_stats", g.StatsPayload(tenantID))
}

// StatsPayload builds the connection statistics body shared by the socket
// message and the REST endpoint.
func (g *Gateway) StatsPayload(tenantID string) map[string]interface{} {
	byRole := make(map[string]int)
	for role, count := range g.tracker.CountByTenantAndRole(tenantID) {
		byRole[string(role)] = count
	}
	total := 0
	for _, count := range byRole {
		total += count
	}
	return map[string]interface{}{
		"tenant_id": tenantID,
		"stats": map[string]interface{}{
			"total":   total,
			"by_role": byRole,
		},
	}
}

// send queues a control message onto the client's send channel using the
// same envelope shape as room broadcasts.
func (g *Gateway) send(c *Client, tenantID, eventName string, data interface{}) {
	env := event.Envelope{
		Event:     eventName,
		Data:      data,
		Timestamp: time.Now().UTC(),
		Metadata:  event.Metadata{TenantID: tenantID, SourceService: sourceService},
	}
	payload, err := json.Marshal(env)
	if err != nil {
		g.logger.Errorf("cannot marshal %s message: %v", eventName, err)
		return
	}
	select {
	case c.send <- payload:
	default:
		g.logger.Info("send buffer full, dropping control message",
			"connection_id", c.ID,
			"event", eventName,
		)
	}
}

func (g *Gateway) publishPresence(eventType string, ident identity.Identity) {
	if g.publisher == nil {
		return
	}
	payload := event.PresenceEvent{
		EventType:    eventType,
		OccurredAt:   time.Now().UTC(),
		TenantID:     ident.TenantID,
		ConnectionID: ident.ConnectionID,
		Role:         string(ident.Role),
	}
	data, _ := json.Marshal(payload)
	if err := g.publisher.Publish(context.Background(), event.PresenceTopic, data); err != nil {
		g.logger.Errorf("failed to publish presence event: %v", err)
	}
}

package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Message types
	TypeStockUpdate  MessageType = "stock_update"
	TypeOrderNew     MessageType = "order_new"
	TypeRecipeUpdate MessageType = "recipe_update"
	TypeNotification MessageType = "notification"
	TypeHeartbeat    MessageType = "heartbeat"
	TypeAuthResponse MessageType = "auth_response"
)

// ClientType represents the type of connected client
type ClientType string

const (
	ClientDesktop   ClientType = "desktop"
	ClientCompanion ClientType = "companion"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType     `json:"type"`
	ClientID  string          `json:"client_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID          string
	Type        ClientType
	Connection  *websocket.Conn
	Send        chan []byte
	Server      *Server
	ConnectedAt time.Time
	RemoteAddr  string
}

// Server is the WebSocket hub plus the REST API for companion apps. It also
// implements the services.EventPublisher interface so that committed inventory
// changes reach every connected client.
type Server struct {
	clients      map[string]*Client
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *Client
	upgrader     websocket.Upgrader
	mu           sync.RWMutex
	port         string
	restHandlers *RESTHandlers
	mdnsShutdown chan bool
}

// NewServer creates a new WebSocket server
func NewServer(port string) *Server {
	return &Server{
		clients:      make(map[string]*Client),
		broadcast:    make(chan []byte),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		port:         port,
		mdnsShutdown: make(chan bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from local network
				return true
			},
		},
	}
}

// SetRESTHandlers sets the handlers that expose the service layer over HTTP
func (s *Server) SetRESTHandlers(handlers *RESTHandlers) {
	s.restHandlers = handlers
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	// Start the hub
	go s.run()

	s.registerRoutes(http.DefaultServeMux)

	// Start mDNS service announcement
	go s.startMDNS()

	log.Printf("WebSocket server starting on port %s", s.port)
	return http.ListenAndServe(s.port, nil)
}

// registerRoutes attaches the hub endpoints and the REST API to the mux
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/clients/", s.handleClientByID)

	// REST API endpoints for companion apps
	if s.restHandlers != nil {
		s.restHandlers.Register(mux)
		log.Println("WebSocket server: REST API endpoints registered")
	}
}

// startMDNS announces the inventory server via mDNS/Zeroconf
func (s *Server) startMDNS() {
	// Extract port number from ":8090" format
	portStr := strings.TrimPrefix(s.port, ":")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Printf("mDNS: Invalid port format %s: %v", s.port, err)
		return
	}

	server, err := zeroconf.Register(
		"Inventory Server",
		"_inventoryapp._tcp",
		"local.",
		port,
		[]string{"version=1.0"},
		nil,
	)
	if err != nil {
		log.Printf("mDNS: Failed to register service: %v", err)
		return
	}

	log.Println("mDNS: Inventory Server announced on _inventoryapp._tcp.local")

	// Wait for shutdown signal
	<-s.mdnsShutdown
	if server != nil {
		server.Shutdown()
		log.Println("mDNS: Service announcement stopped")
	}
}

// Stop stops the WebSocket server
func (s *Server) Stop() {
	// Stop mDNS announcement
	select {
	case s.mdnsShutdown <- true:
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, client := range s.clients {
		close(client.Send)
		client.Connection.Close()
	}
}

// run handles the main server loop
func (s *Server) run() {
	ticker := time.NewTicker(30 * time.Second) // Heartbeat every 30 seconds
	defer ticker.Stop()

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			log.Printf("Client registered: %s (type: %s)", client.ID, client.Type)
			s.sendAuthResponse(client, true, "Connected successfully")

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				s.mu.Unlock()

				// Close channel safely
				go func(c *Client) {
					defer func() {
						if r := recover(); r != nil {
							// Channel already closed, ignore
						}
					}()
					close(c.Send)
				}(client)

				log.Printf("Client unregistered: %s", client.ID)
			} else {
				s.mu.Unlock()
			}

		case message := <-s.broadcast:
			s.mu.Lock()
			for id, client := range s.clients {
				select {
				case client.Send <- message:
				default:
					// Client buffer is full, disconnect
					delete(s.clients, id)
					go func(c *Client) {
						defer func() {
							if r := recover(); r != nil {
								// Channel already closed, ignore
							}
						}()
						close(c.Send)
					}(client)
				}
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.sendHeartbeat()
		}
	}
}

// handleWebSocket handles WebSocket connection upgrades
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientType := ClientType(r.URL.Query().Get("type"))
	if clientType == "" {
		clientType = ClientDesktop
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:          generateClientID(),
		Type:        clientType,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Server:      s,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	response := map[string]interface{}{
		"status":  "healthy",
		"clients": clientCount,
		"time":    time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleStatus reports the hub state and the connected client roster
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"server":  s.GetServerStatus(),
		"clients": s.GetConnectedClients(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleClientByID handles DELETE /api/clients/{id} to force-disconnect a client
func (s *Server) handleClientByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID := strings.TrimPrefix(r.URL.Path, "/api/clients/")
	if clientID == "" {
		http.Error(w, "Missing client id", http.StatusBadRequest)
		return
	}

	if err := s.DisconnectClient(clientID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Client methods

// readPump handles reading messages from the client
func (c *Client) readPump() {
	defer func() {
		c.Server.unregister <- c
		c.Connection.Close()
	}()

	c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Connection.SetPongHandler(func(string) error {
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log.Printf("Error parsing message: %v", err)
			continue
		}

		c.handleMessage(&message)
	}
}

// writePump handles writing messages to the client
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Connection.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages from clients. The server owns all
// state changes through the service layer, so inbound traffic is limited to
// heartbeats and notifications relayed between clients.
func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case TypeHeartbeat:
		c.sendMessage(Message{
			Type:      TypeHeartbeat,
			Timestamp: time.Now(),
			Data:      json.RawMessage(`{"status":"alive"}`),
		})

	case TypeNotification:
		c.Server.BroadcastMessage(*message)

	default:
		log.Printf("Unknown message type: %s", message.Type)
	}
}

// sendMessage sends a message to the client
func (c *Client) sendMessage(message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}

// Server broadcast methods

// BroadcastMessage broadcasts a message to all connected clients
func (s *Server) BroadcastMessage(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	s.broadcast <- data
}

// broadcastToAll broadcasts a message to all clients
func (s *Server) broadcastToAll(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("Failed to send to client %s", client.ID)
		}
	}
}

// sendHeartbeat sends heartbeat to all clients
func (s *Server) sendHeartbeat() {
	message := Message{
		Type:      TypeHeartbeat,
		Timestamp: time.Now(),
		Data:      json.RawMessage(`{"ping":"pong"}`),
	}

	s.broadcastToAll(&message)
}

// sendAuthResponse sends authentication response to a client
func (s *Server) sendAuthResponse(client *Client, success bool, message string) {
	response := map[string]interface{}{
		"success":   success,
		"message":   message,
		"client_id": client.ID,
	}

	data, _ := json.Marshal(response)

	msg := Message{
		Type:      TypeAuthResponse,
		Timestamp: time.Now(),
		Data:      json.RawMessage(data),
	}

	client.sendMessage(msg)
}

// Event publishing (services.EventPublisher)

// PublishStockUpdate notifies clients that an item's stock level changed
func (s *Server) PublishStockUpdate(itemID uint) {
	s.publishEvent(TypeStockUpdate, map[string]interface{}{
		"item_id": itemID,
		"time":    time.Now(),
	})
}

// PublishOrderPlaced notifies clients that an order was placed
func (s *Server) PublishOrderPlaced(orderID uint) {
	s.publishEvent(TypeOrderNew, map[string]interface{}{
		"order_id": orderID,
		"time":     time.Now(),
	})
}

// PublishRecipeUpdate notifies clients that a recipe or its cost changed
func (s *Server) PublishRecipeUpdate(recipeID uint) {
	s.publishEvent(TypeRecipeUpdate, map[string]interface{}{
		"recipe_id": recipeID,
		"time":      time.Now(),
	})
}

func (s *Server) publishEvent(msgType MessageType, data map[string]interface{}) {
	dataBytes, _ := json.Marshal(data)

	message := Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      json.RawMessage(dataBytes),
	}

	s.broadcastToAll(&message)
}

// GetConnectedClients returns list of connected clients
func (s *Server) GetConnectedClients() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]map[string]interface{}, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, map[string]interface{}{
			"id":           client.ID,
			"type":         string(client.Type),
			"connected_at": client.ConnectedAt.Format(time.RFC3339),
			"remote_addr":  client.RemoteAddr,
		})
	}

	return clients
}

// GetServerStatus returns current server status
func (s *Server) GetServerStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	desktopCount := 0
	companionCount := 0

	for _, client := range s.clients {
		switch client.Type {
		case ClientDesktop:
			desktopCount++
		case ClientCompanion:
			companionCount++
		}
	}

	return map[string]interface{}{
		"running":           true,
		"port":              s.port,
		"total_clients":     len(s.clients),
		"desktop_clients":   desktopCount,
		"companion_clients": companionCount,
	}
}

// GetPort returns the server port
func (s *Server) GetPort() string {
	return s.port
}

// DisconnectClient disconnects a specific client
func (s *Server) DisconnectClient(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, exists := s.clients[clientID]
	if !exists {
		return fmt.Errorf("client not found: %s", clientID)
	}

	client.Connection.Close()
	delete(s.clients, clientID)

	return nil
}

// Helper functions

func generateClientID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

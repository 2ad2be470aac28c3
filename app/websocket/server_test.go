package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addFakeClient(s *Server, id string, clientType ClientType) *Client {
	client := &Client{
		ID:          id,
		Type:        clientType,
		Send:        make(chan []byte, 8),
		Server:      s,
		ConnectedAt: time.Now(),
		RemoteAddr:  "127.0.0.1:12345",
	}
	s.mu.Lock()
	s.clients[id] = client
	s.mu.Unlock()
	return client
}

func TestStatusEndpoint(t *testing.T) {
	server := NewServer(":0")
	addFakeClient(server, "desktop-1", ClientDesktop)
	addFakeClient(server, "companion-1", ClientCompanion)
	addFakeClient(server, "companion-2", ClientCompanion)

	mux := http.NewServeMux()
	server.registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Server  map[string]interface{}   `json:"server"`
		Clients []map[string]interface{} `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, true, body.Server["running"])
	assert.Equal(t, ":0", body.Server["port"])
	assert.Equal(t, 3.0, body.Server["total_clients"])
	assert.Equal(t, 1.0, body.Server["desktop_clients"])
	assert.Equal(t, 2.0, body.Server["companion_clients"])
	assert.Len(t, body.Clients, 3)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDisconnectUnknownClient(t *testing.T) {
	server := NewServer(":0")

	err := server.DisconnectClient("no-such-client")
	require.Error(t, err)

	mux := http.NewServeMux()
	server.registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/clients/no-such-client", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/no-such-client", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBroadcastMessageReachesClients(t *testing.T) {
	server := NewServer(":0")
	client := addFakeClient(server, "companion-1", ClientCompanion)
	go server.run()

	server.BroadcastMessage(Message{
		Type:      TypeNotification,
		Timestamp: time.Now(),
		Data:      json.RawMessage(`{"text":"low stock"}`),
	})

	select {
	case data := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, TypeNotification, msg.Type)
		assert.JSONEq(t, `{"text":"low stock"}`, string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast message was not delivered")
	}
}

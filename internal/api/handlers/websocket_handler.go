package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	ws "github.com/taskhive/taskhive-be/internal/websocket"
)

// WebSocketHandler handles upgrading HTTP connections to WebSocket
// connections for the live update feed.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request. An optional ?list={id}
// query parameter subscribes the client to a single list's events.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, r.URL.Query().Get("list"))
	h.hub.Register <- client

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingWSMessage)
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		h.hub.Unregister <- client
	}()
}

// handleIncomingWSMessage processes messages received from a websocket
// client. Clients may switch their list subscription after connecting.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	switch msg.Action {
	case "subscribe":
		listID, ok := h.listIDFromPayload(msg)
		if !ok {
			client.Send <- ws.NewErrorMessage("Invalid payload for subscribe")
			return
		}
		h.hub.Subscribe(client, listID)

	case "unsubscribe":
		listID, ok := h.listIDFromPayload(msg)
		if !ok {
			client.Send <- ws.NewErrorMessage("Invalid payload for unsubscribe")
			return
		}
		h.hub.Unsubscribe(client, listID)

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.Send <- ws.NewErrorMessage("Unknown action: " + msg.Action)
	}
}

func (h *WebSocketHandler) listIDFromPayload(msg ws.Message) (string, bool) {
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		return "", false
	}
	listID, ok := payload["list"].(string)
	if !ok || listID == "" {
		return "", false
	}
	return listID, true
}

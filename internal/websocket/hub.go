package websocket

import "github.com/rs/zerolog/log"

// broadcastRequest targets either every client (ListID "") or the clients
// subscribed to a single list.
type broadcastRequest struct {
	ListID  string
	Message []byte
}

// subscribeRequest changes a client's list subscription.
type subscribeRequest struct {
	Client *Client
	ListID string
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All state is owned by the Run loop; external callers talk through channels.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	broadcast   chan broadcastRequest
	subscribe   chan subscribeRequest
	unsubscribe chan subscribeRequest

	// A map of list IDs to the set of clients subscribed to them.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		broadcast:     make(chan broadcastRequest, 16),
		subscribe:     make(chan subscribeRequest),
		unsubscribe:   make(chan subscribeRequest),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			// If the client asked for a list on connect, subscribe it.
			if client.ListID != "" {
				h.addSubscription(client, client.ListID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscriptions(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case req := <-h.subscribe:
			h.addSubscription(req.Client, req.ListID)
		case req := <-h.unsubscribe:
			if subs, ok := h.subscriptions[req.ListID]; ok {
				delete(subs, req.Client)
				if len(subs) == 0 {
					delete(h.subscriptions, req.ListID)
				}
			}
		case req := <-h.broadcast:
			if req.ListID == "" {
				for client := range h.clients {
					h.deliver(client, req.Message)
				}
				continue
			}
			for client := range h.subscriptions[req.ListID] {
				h.deliver(client, req.Message)
			}
		}
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- broadcastRequest{Message: message}
}

// BroadcastTo sends a message to all clients subscribed to a specific list.
func (h *Hub) BroadcastTo(listID string, message []byte) {
	h.broadcast <- broadcastRequest{ListID: listID, Message: message}
}

// Subscribe adds a list subscription for a connected client.
func (h *Hub) Subscribe(client *Client, listID string) {
	h.subscribe <- subscribeRequest{Client: client, ListID: listID}
}

// Unsubscribe removes a list subscription for a connected client.
func (h *Hub) Unsubscribe(client *Client, listID string) {
	h.unsubscribe <- subscribeRequest{Client: client, ListID: listID}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
		h.removeSubscriptions(client)
	}
}

func (h *Hub) addSubscription(client *Client, listID string) {
	if h.subscriptions[listID] == nil {
		h.subscriptions[listID] = make(map[*Client]bool)
	}
	h.subscriptions[listID][client] = true
}

func (h *Hub) removeSubscriptions(client *Client) {
	for listID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, listID)
			}
		}
	}
}

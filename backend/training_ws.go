package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type TrainingClient struct {
	hub  *TrainingHub
	conn *websocket.Conn
	send chan []byte
}

// TrainingHub fans out training progress snapshots and model update events to
// subscribed websocket clients. Publishing never blocks the training loop.
type TrainingHub struct {
	mu                sync.Mutex
	clients           map[*TrainingClient]struct{}
	broadcastProgress chan TrainingSnapshot
	broadcastModel    chan ModelUpdate
}

func NewTrainingHub() *TrainingHub {
	return &TrainingHub{
		clients:           make(map[*TrainingClient]struct{}),
		broadcastProgress: make(chan TrainingSnapshot, 64),
		broadcastModel:    make(chan ModelUpdate, 16),
	}
}

func (h *TrainingHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcastProgress:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "training_progress", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		case payload := <-h.broadcastModel:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "model_updated", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *TrainingHub) PublishProgress(snapshot TrainingSnapshot) {
	select {
	case h.broadcastProgress <- snapshot:
	default:
	}
}

func (h *TrainingHub) PublishModelUpdate(update ModelUpdate) {
	select {
	case h.broadcastModel <- update:
	default:
	}
}

func (h *TrainingHub) Register(c *TrainingClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *TrainingHub) Unregister(c *TrainingClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *TrainingClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveTrainingWS(hub *TrainingHub, trainer *Trainer, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &TrainingClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	// New subscribers get the current state right away.
	client.sendJSON(wsMessage{Type: "training_progress", Payload: mustMarshal(trainer.Status())})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}

// Package ws is the websocket transport for read-only agents: it broadcasts
// state reports and accepts destination updates.
package ws

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"readonly-sim/internal/state"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxFrameSize = 16 * 1024
	queueSize    = 64
)

//go:embed destination.schema.json
var destinationSchema string

// DestinationSink receives validated destination updates. It reports false
// when the agent is unknown.
type DestinationSink interface {
	SetDestination(agent, dest string) bool
}

type client struct {
	id  string
	out chan []byte
}

// Hub fans state reports out to every connected client.
type Hub struct {
	sink     DestinationSink
	log      *slog.Logger
	schema   *jsonschema.Schema
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

// NewHub creates a hub delivering inbound destinations to sink.
func NewHub(sink DestinationSink, logger *slog.Logger) (*Hub, error) {
	schema, err := jsonschema.CompileString("destination.schema.json", destinationSchema)
	if err != nil {
		return nil, fmt.Errorf("compile destination schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sink:   sink,
		log:    logger,
		schema: schema,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}, nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts a report. Clients whose queue is full miss it.
func (h *Hub) Publish(rec state.Record) error {
	b, err := json.Marshal(StateMsg{Type: TypeState, State: rec})
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.out <- b:
		default:
			h.log.Debug("dropping state frame for slow client", "client", c.id, "agent", rec.Name, "seq", rec.Seq)
		}
	}
	return nil
}

// Handler upgrades the request and serves one client until it disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{id: uuid.New().String(), out: make(chan []byte, queueSize)}
		h.add(c)
		defer h.remove(c)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			ping := time.NewTicker(pingPeriod)
			defer ping.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				case <-ping.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		conn.SetReadLimit(maxFrameSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if reason := h.handleInbound(msg); reason != "" {
				h.reply(c, reason)
			}
		}
	}
}

func (h *Hub) handleInbound(msg []byte) string {
	var raw any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return "invalid JSON"
	}
	if err := h.schema.Validate(raw); err != nil {
		return fmt.Sprintf("invalid destination message: %v", err)
	}
	var m DestinationMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return "invalid JSON"
	}
	if !h.sink.SetDestination(m.Agent, m.Destination) {
		return fmt.Sprintf("unknown agent %q", m.Agent)
	}
	h.log.Info("destination received", "agent", m.Agent, "destination", m.Destination)
	return ""
}

func (h *Hub) reply(c *client, reason string) {
	b, err := json.Marshal(ErrorMsg{Type: TypeError, Error: reason})
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.Info("ws client connected", "client", c.id, "clients", h.Clients())
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	h.log.Info("ws client disconnected", "client", c.id, "clients", h.Clients())
}

// SinkFunc adapts a function to DestinationSink.
type SinkFunc func(agent, dest string) bool

// SetDestination calls f.
func (f SinkFunc) SetDestination(agent, dest string) bool {
	return f(agent, dest)
}

// Package server coordinates client attach and detach, protocol dispatch and
// room-scoped fan-out for the GoChat Rooms WebSocket system via the Hub type.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/identity"
	"github.com/Tyrowin/gochat-rooms/internal/protocol"
	"github.com/Tyrowin/gochat-rooms/internal/state"
	"github.com/Tyrowin/gochat-rooms/internal/version"
)

// Hub is the single serialization point of the server. One goroutine running
// Run consumes attach, detach and inbound-frame events in order, so no two
// handlers ever interleave their updates to the shared state, and messages
// fanned out to a room reach its members in dispatch order. A client's detach
// travels on the same queue as its frames, so frames read before the
// transport closed are dispatched first.
type Hub struct {
	state         *state.State
	identity      identity.Strategy
	log           logrus.FieldLogger
	now           func() time.Time
	maxNickLength int

	clients map[uuid.UUID]*Client
	mutex   sync.RWMutex

	register chan *Client
	inbound  chan inboundFrame

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub over st that identifies connections with strategy.
func NewHub(st *state.State, strategy identity.Strategy, log logrus.FieldLogger, maxNickLength int) *Hub {
	if maxNickLength <= 0 {
		maxNickLength = defaultMaxNickLength
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		state:         st,
		identity:      strategy,
		log:           log,
		now:           time.Now,
		maxNickLength: maxNickLength,
		clients:       make(map[uuid.UUID]*Client),
		register:      make(chan *Client),
		inbound:       make(chan inboundFrame, 256),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

// Register hands a new client to the hub. It returns false once the hub has
// shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister asks the hub to detach client once every frame it submitted
// earlier has been dispatched. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.inbound <- inboundFrame{client: client, detach: true}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) submit(client *Client, payload []byte) bool {
	select {
	case h.inbound <- inboundFrame{client: client, payload: payload}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// ClientCount returns the number of clients with a live transport.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main event loop. It should be called in a separate
// goroutine and returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}
			h.attach(client)

		case frame := <-h.inbound:
			if frame.detach {
				h.detach(frame.client)
				continue
			}
			h.dispatch(frame.client, frame.payload)
		}
	}
}

// attach records the client in the default room, starts its pumps and sends
// the initial snapshot before anything else can be queued for it.
func (h *Hub) attach(client *Client) {
	record, err := h.state.Attach(state.Connection{
		ID:         client.id,
		Identity:   client.identity,
		Addr:       client.addr,
		AttachedAt: h.now(),
	})
	if err != nil {
		h.log.WithError(err).WithField("conn", client.id).Error("Failed to attach client")
		client.closeTransport()
		return
	}

	h.mutex.Lock()
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.log.WithFields(logrus.Fields{
		"conn": client.id,
		"addr": client.addr,
		"nick": record.Identity,
	}).Infof("Client attached. Total clients: %d", clientCount)

	if client.conn != nil {
		h.wg.Add(2)
		go func() {
			defer h.wg.Done()
			client.writePump()
		}()
		go func() {
			defer h.wg.Done()
			client.readPump()
		}()
	}

	h.sendSystem(record.ID, fmt.Sprintf("Welcome to GoChat Rooms %s", version.GetVersion()))
	h.send(record.ID, protocol.NewRoomCurrent(record.Room))
	h.send(record.ID, protocol.NewRoomList(h.state.Rooms()))
	h.send(record.ID, protocol.NewUserList(record.Room, h.state.UsersIn(record.Room)))

	if record.Identified() {
		h.roomcast(record.Room, protocol.NewSystemNotice(joinedText(record.Identity, record.Room)), record.ID)
		h.roomcast(record.Room, protocol.NewUserList(record.Room, h.state.UsersIn(record.Room)), record.ID)
	}
}

// detach removes the client and tells the room it left. A client that was
// already detached is ignored.
func (h *Hub) detach(client *Client) {
	h.mutex.Lock()
	if current, ok := h.clients[client.id]; ok && current == client {
		delete(h.clients, client.id)
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	client.closeSend()

	record, ok := h.state.Detach(client.id)
	if !ok {
		return
	}

	h.log.WithFields(logrus.Fields{
		"conn": client.id,
		"addr": client.addr,
		"room": record.Room,
	}).Infof("Client detached. Total clients: %d", clientCount)

	if record.Identified() {
		h.roomcast(record.Room, protocol.NewSystemNotice(leftText(record.Identity, record.Room)), uuid.Nil)
	}
	h.roomcast(record.Room, protocol.NewUserList(record.Room, h.state.UsersIn(record.Room)), uuid.Nil)
	h.broadcastRoomList()
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.mutex.Unlock()

	for _, client := range clients {
		client.closeSend()
		client.closeTransport()
		h.state.Detach(client.id)
	}

	h.log.Infof("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

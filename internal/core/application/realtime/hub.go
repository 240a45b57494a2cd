// Package realtime fans delivery events out to live subscribers. Subscribers
// join the group of one delivery or the global group; nothing is replayed to
// subscribers that join late.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"
)

const (
	defaultQueueSize        = 64
	defaultSendTimeout      = 5 * time.Second
	defaultVersionCacheSize = 10_000

	globalGroup = "*"
)

var (
	ErrHubIsClosed        = errors.New("realtime hub is closed")
	ErrConnectionIsClosed = errors.New("realtime connection is closed")
)

// Subscriber is the transport end of a connection.
type Subscriber interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Message is what a subscriber receives. Seq is the delivery version the
// event carries, so it grows in commit order for one delivery.
type Message struct {
	Seq   uint64
	Event delivery.Event
}

// Observer is told about hub activity; metrics hook in here.
type Observer interface {
	ConnectionsChanged(n int)
	EventPublished(eventType delivery.EventType)
	EventDropped()
	EventSuperseded()
	SubscriberFailed()
}

type nopObserver struct{}

func (nopObserver) ConnectionsChanged(int)            {}
func (nopObserver) EventPublished(delivery.EventType) {}
func (nopObserver) EventDropped()                     {}
func (nopObserver) EventSuperseded()                  {}
func (nopObserver) SubscriberFailed()                 {}

// HubOption customizes Hub construction.
type HubOption func(*Hub)

// WithQueueSize bounds the number of undelivered messages per connection.
func WithQueueSize(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.queueSize = size
		}
	}
}

// WithSendTimeout bounds a single Send call.
func WithSendTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.sendTimeout = d
		}
	}
}

// WithVersionCacheSize bounds how many deliveries the hub remembers the last
// published version for. The oldest entry is forgotten first.
func WithVersionCacheSize(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.versions = newVersionCache(size)
		}
	}
}

func WithObserver(o Observer) HubOption {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// Hub routes events to connections. Every connection owns a bounded queue
// drained by a single goroutine, so a connection sees events in publish order
// and a slow connection only ever loses its own messages.
type Hub struct {
	mu          sync.RWMutex
	groups      map[string]map[*Connection]struct{}
	connections map[*Connection]struct{}
	closed      bool

	publishMu sync.Mutex
	versions  *versionCache

	queueSize   int
	sendTimeout time.Duration
	observer    Observer
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		groups:      map[string]map[*Connection]struct{}{},
		connections: map[*Connection]struct{}{},
		versions:    newVersionCache(defaultVersionCacheSize),
		queueSize:   defaultQueueSize,
		sendTimeout: defaultSendTimeout,
		observer:    nopObserver{},
		logger:      logger.With("component", "RealtimeHub"),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Connection is a subscriber attached to the hub.
type Connection struct {
	sub    Subscriber
	queue  chan Message
	done   chan struct{}
	groups map[string]struct{}
	once   sync.Once
}

// Done is closed once the connection has been detached.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Attach registers sub and starts delivering to it. The connection is in no
// group until it joins one.
func (h *Hub) Attach(sub Subscriber) (*Connection, error) {
	c := &Connection{
		sub:    sub,
		queue:  make(chan Message, h.queueSize),
		done:   make(chan struct{}),
		groups: map[string]struct{}{},
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubIsClosed
	}
	h.connections[c] = struct{}{}
	n := len(h.connections)
	h.wg.Add(1)
	h.mu.Unlock()

	h.observer.ConnectionsChanged(n)
	go h.drain(c)

	return c, nil
}

// Join adds c to the group of one delivery.
func (h *Hub) Join(c *Connection, deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}
	return h.join(c, deliveryGroup(deliveryID))
}

// JoinAll adds c to the global group, which receives every event.
func (h *Hub) JoinAll(c *Connection) error {
	return h.join(c, globalGroup)
}

// Leave removes c from the group of one delivery. Leaving a group the
// connection is not in does nothing.
func (h *Hub) Leave(c *Connection, deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}
	return h.leave(c, deliveryGroup(deliveryID))
}

// LeaveAll removes c from the global group.
func (h *Hub) LeaveAll(c *Connection) error {
	return h.leave(c, globalGroup)
}

func (h *Hub) join(c *Connection, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[c]; !ok {
		return ErrConnectionIsClosed
	}
	members := h.groups[group]
	if members == nil {
		members = map[*Connection]struct{}{}
		h.groups[group] = members
	}
	members[c] = struct{}{}
	c.groups[group] = struct{}{}
	return nil
}

func (h *Hub) leave(c *Connection, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[c]; !ok {
		return ErrConnectionIsClosed
	}
	h.removeFromGroup(c, group)
	return nil
}

func (h *Hub) removeFromGroup(c *Connection, group string) {
	if members := h.groups[group]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	delete(c.groups, group)
}

// Detach removes c from every group, stops its delivery goroutine and closes
// the subscriber. It is safe to call more than once.
func (h *Hub) Detach(c *Connection) {
	h.mu.Lock()
	_, attached := h.connections[c]
	if attached {
		for group := range c.groups {
			h.removeFromGroup(c, group)
		}
		delete(h.connections, c)
	}
	n := len(h.connections)
	h.mu.Unlock()

	c.once.Do(func() {
		close(c.done)
		if err := c.sub.Close(); err != nil {
			h.logger.Debug("closing subscriber", "error", err)
		}
	})

	if attached {
		h.observer.ConnectionsChanged(n)
	}
}

// Publish queues event for every connection in the delivery's group or the
// global group. A connection in both gets it once. An event whose version is
// not newer than the last one published for its delivery arrived after a
// later commit and is discarded. Publish never waits for a subscriber: when
// a queue is full the message is dropped for that connection only.
func (h *Hub) Publish(ctx context.Context, event delivery.Event) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	seq := uint64(max(event.Version, 0))
	if last, ok := h.versions.get(event.DeliveryID); ok && seq <= last {
		h.observer.EventSuperseded()
		h.logger.DebugContext(ctx, "event is superseded, discarding",
			"deliveryId", event.DeliveryID.String(),
			"eventType", string(event.Type),
			"version", seq,
			"lastVersion", last)
		return
	}
	h.versions.put(event.DeliveryID, seq)
	msg := Message{Seq: seq, Event: event}

	h.mu.RLock()
	targets := h.snapshot(deliveryGroup(event.DeliveryID), globalGroup)
	h.mu.RUnlock()

	h.observer.EventPublished(event.Type)

	for _, c := range targets {
		select {
		case <-c.done:
		case c.queue <- msg:
		default:
			h.observer.EventDropped()
			h.logger.WarnContext(ctx, "subscriber queue is full, dropping event",
				"deliveryId", event.DeliveryID.String(),
				"eventType", string(event.Type),
				"seq", seq)
		}
	}
}

func (h *Hub) snapshot(groups ...string) []*Connection {
	seen := map[*Connection]struct{}{}
	out := make([]*Connection, 0)
	for _, group := range groups {
		for c := range h.groups[group] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) drain(c *Connection) {
	defer h.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-h.ctx.Done():
			return
		case msg := <-c.queue:
			if err := h.send(c, msg); err != nil {
				h.observer.SubscriberFailed()
				h.logger.Info("subscriber failed, detaching",
					"deliveryId", msg.Event.DeliveryID.String(),
					"error", err)
				h.Detach(c)
				return
			}
		}
	}
}

func (h *Hub) send(c *Connection, msg Message) error {
	ctx, cancel := context.WithTimeout(h.ctx, h.sendTimeout)
	defer cancel()
	return c.sub.Send(ctx, msg)
}

// Connections reports how many connections are attached.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close detaches every connection and waits for their goroutines to stop.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	h.cancel()
	for _, c := range conns {
		h.Detach(c)
	}
	h.wg.Wait()
}

func deliveryGroup(id kernel.UUID) string {
	return "delivery:" + id.String()
}

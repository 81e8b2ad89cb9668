// Package realtime fans tenant-scoped cache-invalidation events out to
// connected dashboard clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"leadcatcher/metrics"
)

const (
	EventLeadNew     = "lead:new"
	EventLeadUpdated = "lead:updated"
	EventStatsUpdate = "stats:update"
)

const defaultBuffer = 16

// Notifier publishes an event to every subscriber of one agency. It never blocks
// on slow subscribers and never fails the caller.
type Notifier interface {
	Publish(agencyID uint, event string, payload interface{})
}

// Message is the frame written to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// envelope carries an encoded frame between instances over the relay channel.
type envelope struct {
	AgencyID uint            `json:"agencyId"`
	Frame    json.RawMessage `json:"frame"`
}

type Subscription struct {
	C <-chan []byte

	ch       chan []byte
	hub      *Hub
	agencyID uint
	once     sync.Once
}

// Close detaches the subscription and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Subscription]struct{}

	buffer  int
	relay   *redis.Client
	channel string
	log     *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		rooms:  make(map[uint]map[*Subscription]struct{}),
		buffer: defaultBuffer,
		log:    log,
	}
}

// WithRelay routes every publish through a Redis channel so subscribers on all
// instances receive it. Run must be started to consume the channel.
func (h *Hub) WithRelay(client *redis.Client, channel string) *Hub {
	h.relay = client
	h.channel = channel
	return h
}

func (h *Hub) Subscribe(agencyID uint) *Subscription {
	ch := make(chan []byte, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h, agencyID: agencyID}

	h.mu.Lock()
	room, ok := h.rooms[agencyID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[agencyID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeClients.Inc()
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if room, ok := h.rooms[sub.agencyID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, sub.agencyID)
		}
	}
	close(sub.ch)
	h.mu.Unlock()

	metrics.RealtimeClients.Dec()
}

// Subscribers is the number of live subscriptions of an agency.
func (h *Hub) Subscribers(agencyID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[agencyID])
}

func (h *Hub) Publish(agencyID uint, event string, payload interface{}) {
	frame, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("Failed to encode realtime event")
		return
	}

	if h.relay == nil {
		h.deliver(agencyID, frame)
		return
	}

	env, err := json.Marshal(envelope{AgencyID: agencyID, Frame: frame})
	if err != nil {
		h.log.WithError(err).Error("Failed to encode relay envelope")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.relay.Publish(ctx, h.channel, env).Err(); err != nil {
			h.log.WithError(err).Warn("Relay publish failed, delivering locally")
			h.deliver(agencyID, frame)
		}
	}()
}

// deliver never blocks: a full subscriber buffer drops the frame.
func (h *Hub) deliver(agencyID uint, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[agencyID] {
		select {
		case sub.ch <- frame:
		default:
			metrics.RealtimeDropped.Inc()
		}
	}
}

// Run consumes the relay channel until ctx is cancelled. Without a relay it
// just waits for cancellation.
func (h *Hub) Run(ctx context.Context) error {
	if h.relay == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := h.relay.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	h.log.WithField("channel", h.channel).Info("Realtime relay subscribed")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.WithError(err).Warn("Dropping malformed relay message")
				continue
			}
			h.deliver(env.AgencyID, env.Frame)
		}
	}
}

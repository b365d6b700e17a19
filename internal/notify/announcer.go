package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"editor/internal/utils"
)

// Channel carries room lifecycle events between service instances.
const Channel = "editor:rooms"

// Event is a room lifecycle announcement published over Redis.
type Event struct {
	Type         string    `json:"type"` // "room-created", "room-destroyed", "user-joined", "user-left"
	RoomID       string    `json:"roomId"`
	ConnectionID string    `json:"connectionId,omitempty"`
	InstanceID   string    `json:"instanceId"`
	Timestamp    time.Time `json:"timestamp"`
}

// Announcer publishes room lifecycle events to Redis and can feed events
// from other instances to a local handler. Publishing is asynchronous:
// Announce never blocks the caller, and events are dropped rather than
// queued without bound when Redis is slow.
type Announcer struct {
	log        *utils.Logger
	rdb        *redis.Client
	instanceID string
	events     chan Event
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewAnnouncer(redisAddr string, log *utils.Logger) *Announcer {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Announcer{
		log:        log,
		rdb:        redis.NewClient(&redis.Options{Addr: redisAddr}),
		instanceID: uuid.New().String(),
		events:     make(chan Event, 256),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go a.publishLoop()
	return a
}

func (a *Announcer) InstanceID() string { return a.instanceID }

// Announce queues a lifecycle event for publishing. Nil-safe so callers
// can hold an optional announcer.
func (a *Announcer) Announce(event, roomID, connectionID string) {
	if a == nil {
		return
	}
	e := Event{
		Type:         event,
		RoomID:       roomID,
		ConnectionID: connectionID,
		InstanceID:   a.instanceID,
		Timestamp:    time.Now(),
	}
	select {
	case a.events <- e:
	default:
		a.log.Warn("announcer queue full, dropping event", "type", event, "room", roomID)
	}
}

func (a *Announcer) publishLoop() {
	defer close(a.done)
	for {
		select {
		case <-a.ctx.Done():
			return
		case e := <-a.events:
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := a.rdb.Publish(a.ctx, Channel, data).Err(); err != nil {
				a.log.Warn("failed to publish lifecycle event", "type", e.Type, "error", err.Error())
			}
		}
	}
}

// Subscribe listens for lifecycle events published by other instances and
// invokes handler for each. Events from this instance are ignored. Blocks
// until the announcer is closed; run it on its own goroutine.
func (a *Announcer) Subscribe(handler func(Event)) {
	pubsub := a.rdb.Subscribe(a.ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	a.log.Info("subscribed to room lifecycle events", "instance", a.instanceID)

	for {
		select {
		case <-a.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				a.log.Warn("failed to parse lifecycle event", "error", err.Error())
				continue
			}
			if e.InstanceID == a.instanceID {
				continue
			}
			handler(e)
		}
	}
}

// Close stops the publish loop and releases the Redis client.
func (a *Announcer) Close() {
	if a == nil {
		return
	}
	a.cancel()
	<-a.done
	_ = a.rdb.Close()
}

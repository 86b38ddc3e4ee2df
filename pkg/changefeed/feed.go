package changefeed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haulbid/bidboard-backend/pkg/metrics"
)

// Entity keys the feed's fan-out. Subscribers pick the entities they care
// about and only see matching events.
type Entity string

const (
	EntityAuction      Entity = "auction"
	EntityBid          Entity = "bid"
	EntityAward        Entity = "award"
	EntityNotification Entity = "notification"
)

// Event is one change published on the feed. Seq is assigned per entity and
// is strictly increasing, so a subscriber can detect gaps after drops.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Entity     Entity          `json:"entity"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	Seq        uint64          `json:"seq"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Feed is an in-process broadcast hub. Publish never blocks: each
// subscription owns a bounded buffer and sheds its oldest event when full,
// so one stalled consumer cannot hold up producers or its peers.
type Feed struct {
	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	seqByKind  map[Entity]uint64
	bufferSize int
	closed     bool
	metrics    *metrics.FeedMetrics
}

// Options tunes feed construction.
type Options struct {
	// SubscriberBuffer is the per-subscription queue depth. Zero uses
	// DefaultSubscriberBuffer.
	SubscriberBuffer int
	Metrics          *metrics.FeedMetrics
}

const DefaultSubscriberBuffer = 64

// New constructs an empty feed.
func New(opts Options) *Feed {
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}
	return &Feed{
		subs:       make(map[*Subscription]struct{}),
		seqByKind:  make(map[Entity]uint64),
		bufferSize: opts.SubscriberBuffer,
		metrics:    opts.Metrics,
	}
}

// Subscription receives events for a set of entities. Callers must drain
// Events and Close when done.
type Subscription struct {
	feed     *Feed
	entities map[Entity]struct{}

	mu      sync.Mutex
	queue   []Event
	wake    chan struct{}
	out     chan Event
	done    chan struct{}
	dropped uint64
	max     int
}

// Subscribe registers a consumer for the given entities. An empty entity
// list subscribes to everything.
func (f *Feed) Subscribe(entities ...Entity) *Subscription {
	sub := &Subscription{
		feed: f,
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
		done: make(chan struct{}),
		max:  f.bufferSize,
	}
	if len(entities) > 0 {
		sub.entities = make(map[Entity]struct{}, len(entities))
		for _, e := range entities {
			sub.entities[e] = struct{}{}
		}
	}
	go sub.pump()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(sub.done)
		return sub
	}
	f.subs[sub] = struct{}{}
	return sub
}

// Publish stamps the event with the next per-entity sequence number and
// hands it to every matching subscription. It returns the stamped event.
func (f *Feed) Publish(event Event) Event {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return event
	}
	f.seqByKind[event.Entity]++
	event.Seq = f.seqByKind[event.Entity]
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	subs := make([]*Subscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	f.metrics.IncPublished(string(event.Entity))
	for _, sub := range subs {
		if sub.wants(event.Entity) {
			if sub.enqueue(event) {
				continue
			}
			f.metrics.IncDropped(string(event.Entity))
		}
	}
	return event
}

// Close tears down the feed and every open subscription.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	subs := make([]*Subscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.subs = make(map[*Subscription]struct{})
	f.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

func (s *Subscription) wants(entity Entity) bool {
	if s.entities == nil {
		return true
	}
	_, ok := s.entities[entity]
	return ok
}

// enqueue appends the event, shedding the oldest queued event when the
// buffer is full. It reports false when a shed happened.
func (s *Subscription) enqueue(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return true
	default:
	}
	kept := true
	if len(s.queue) >= s.max {
		s.queue = s.queue[1:]
		s.dropped++
		kept = false
	}
	s.queue = append(s.queue, event)
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return kept
}

// pump moves queued events to the out channel in arrival order.
func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		var next *Event
		if len(s.queue) > 0 {
			next = &s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if next == nil {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				close(s.out)
				return
			}
		}

		select {
		case s.out <- *next:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// Events yields this subscription's stream. The channel closes after Close.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Dropped reports how many events were shed because the consumer lagged.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close detaches the subscription from the feed.
func (s *Subscription) Close() {
	if s.feed != nil {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
	}
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
}

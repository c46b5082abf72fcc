// Package notification fans playback notifications out to stream subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/videoview/internal/app/playback"
)

const (
	defaultQueueSize   = 256
	defaultSendTimeout = 500 * time.Millisecond
)

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

type subscription struct {
	id     string
	stream Stream
}

// Option configures a Manager.
type Option func(*Manager)

// WithQueueSize sets how many notifications may wait for Run before new ones are dropped.
func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queue = make(chan *Notification, n)
		}
	}
}

// WithSendTimeout sets the per-subscriber send timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.sendTimeout = d
		}
	}
}

// Manager manages notification subscriptions and broadcasting.
//
// It implements playback.Listener and playback.StateObserver. Callbacks only
// enqueue; Run delivers them so the state machine is never blocked by a slow
// subscriber.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	state         playback.State

	sequenceNo   uint64
	sequenceNoMu sync.Mutex

	queue       chan *Notification
	sendTimeout time.Duration
	now         func() time.Time
}

var (
	_ playback.Listener      = (*Manager)(nil)
	_ playback.StateObserver = (*Manager)(nil)
)

// NewManager creates a new notification manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		subscriptions: make(map[string]*subscription),
		queue:         make(chan *Notification, defaultQueueSize),
		sendTimeout:   defaultSendTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	zlog.Debug().Msgf("notification: subscribed: %s", id)
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// State returns the last state reported through OnStateChanged.
func (m *Manager) State() playback.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Snapshot builds an unsequenced state notification for a new subscriber.
func (m *Manager) Snapshot() *Notification {
	return m.newNotification(TypeState)
}

// Run delivers queued notifications until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-m.queue:
			m.Broadcast(n)
		}
	}
}

// Broadcast stamps a sequence number and sends the notification to all
// subscribers. Each send runs in its own goroutine bounded by the send
// timeout; subscribers whose stream fails are removed.
func (m *Manager) Broadcast(notification *Notification) {
	notification.SequenceNo = m.NextSequenceNo()

	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(notification)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Msgf("notification: dropping subscriber %s", s.id)
					m.Unsubscribe(s.id)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send to %s timed out", s.id)
			}
		}(sub)
	}
	wg.Wait()
}

// Send sends a notification to a specific subscriber.
func (m *Manager) Send(subscriptionID string, notification *Notification) error {
	m.mu.RLock()
	sub, ok := m.subscriptions[subscriptionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return sub.stream.Send(notification)
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}

// OnStart implements playback.Listener.
func (m *Manager) OnStart() { m.publish(m.newNotification(TypeStart)) }

// OnEnded implements playback.Listener.
func (m *Manager) OnEnded() { m.publish(m.newNotification(TypeEnded)) }

// OnError implements playback.Listener.
func (m *Manager) OnError() { m.publish(m.newNotification(TypeError)) }

// OnBuffering implements playback.Listener.
func (m *Manager) OnBuffering(percent int) {
	n := m.newNotification(TypeBuffering)
	n.Percent = percent
	m.publish(n)
}

// OnPosition implements playback.Listener.
func (m *Manager) OnPosition(pos time.Duration) {
	n := m.newNotification(TypePosition)
	n.PositionMs = pos.Milliseconds()
	m.publish(n)
}

// OnStateChanged implements playback.StateObserver.
func (m *Manager) OnStateChanged(from, to playback.State) {
	m.mu.Lock()
	m.state = to
	m.mu.Unlock()

	n := m.newNotification(TypeState)
	n.PreviousState = from.String()
	m.publish(n)
}

func (m *Manager) newNotification(t Type) *Notification {
	return &Notification{
		Type:  t,
		State: m.State().String(),
		At:    m.now(),
	}
}

func (m *Manager) publish(n *Notification) {
	select {
	case m.queue <- n:
	default:
		zlog.Warn().Msgf("notification: queue full, dropping %s", n.Type)
	}
}

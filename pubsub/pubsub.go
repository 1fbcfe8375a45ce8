// Package pubsub fans messages out to any number of subscribers without
// ever blocking the publisher.
package pubsub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var plog zerolog.Logger

func init() {
	plog = log.With().Str("component", "pubsub").Logger()
}

type SubscriptionID = uuid.UUID

type Option[T any] func(*Pubsub[T])

// WithDropHandler registers fn to be called whenever a message is dropped
// because a subscriber's channel is full.
func WithDropHandler[T any](fn func(SubscriptionID, T)) Option[T] {
	return func(ps *Pubsub[T]) {
		ps.onDrop = fn
	}
}

type Pubsub[T any] struct {
	subscribers map[SubscriptionID]chan T
	onDrop      func(SubscriptionID, T)
	mu          sync.RWMutex
}

func New[T any](opts ...Option[T]) *Pubsub[T] {
	ps := &Pubsub[T]{
		subscribers: make(map[SubscriptionID]chan T),
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// Subscribe registers a subscriber whose channel buffers up to buffer
// messages. The channel is closed by Unsubscribe.
func (ps *Pubsub[T]) Subscribe(buffer int) (SubscriptionID, <-chan T) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan T, buffer)
	id := uuid.New()

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.subscribers[id] = ch
	plog.Debug().Str("subscription_id", id.String()).Msg("Subscribed")

	return id, ch
}

func (ps *Pubsub[T]) Unsubscribe(id SubscriptionID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch, ok := ps.subscribers[id]
	if !ok {
		return
	}

	delete(ps.subscribers, id)
	close(ch)
	plog.Debug().Str("subscription_id", id.String()).Msg("Unsubscribed")
}

// Publish hands msg to every subscriber that has room for it.
func (ps *Pubsub[T]) Publish(msg T) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for id, ch := range ps.subscribers {
		select {
		case ch <- msg:
		default:
			plog.Warn().
				Str("subscription_id", id.String()).
				Msg("Message dropped, channel full")
			if ps.onDrop != nil {
				ps.onDrop(id, msg)
			}
		}
	}
}

// Len returns the number of active subscribers.
func (ps *Pubsub[T]) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.subscribers)
}

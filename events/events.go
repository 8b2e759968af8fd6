package events

import (
	"context"
	"sync"

	"stakeforge/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated   EventType = "user_created"
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeStakeCreated  EventType = "stake_created"
	EventTypeStakeResolved EventType = "stake_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user registration
type UserCreatedEvent struct {
	UserID        int64
	Role          models.Role
	StartingCoins int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BalanceChangeEvent represents a coin balance change that occurred
type BalanceChangeEvent struct {
	UserID       int64
	ChangeAmount int64
	Reason       string
	StakeID      int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// StakeCreatedEvent represents a new escrow placed against an issue
type StakeCreatedEvent struct {
	StakeID    int64
	UserID     int64
	IssueID    int64
	Repository string
	Amount     int64
}

func (e StakeCreatedEvent) Type() EventType {
	return EventTypeStakeCreated
}

// StakeResolvedEvent represents a stake reaching a terminal status
type StakeResolvedEvent struct {
	StakeID     int64
	UserID      int64
	Status      models.StakeStatus
	XPEarned    int64
	CoinsEarned int64
}

func (e StakeResolvedEvent) Type() EventType {
	return EventTypeStakeResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and only
// forwards them to the underlying bus once the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit. Events are emitted on a
// background context so they outlive the request that produced them.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback to drop any stashed events.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

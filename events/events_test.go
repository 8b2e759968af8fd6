package events

import (
	"context"
	"testing"
	"time"

	"stakeforge/models"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	received := make(chan BalanceChangeEvent, 1)
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if change, ok := event.(BalanceChangeEvent); ok {
			received <- change
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:       7,
		ChangeAmount: -30,
		Reason:       "stake_escrow",
		StakeID:      42,
	}
	bus.Emit(context.Background(), testEvent)

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered within timeout")
	}
}

func TestBusIgnoresUnrelatedEventTypes(t *testing.T) {
	bus := NewBus()

	received := make(chan Event, 1)
	bus.Subscribe(EventTypeStakeCreated, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), BalanceChangeEvent{UserID: 7})

	select {
	case <-received:
		t.Fatal("handler received an event type it never subscribed to")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	received := make(chan struct{}, 1)
	bus.Subscribe(EventTypeStakeResolved, func(ctx context.Context, event Event) {
		panic("handler bug")
	})
	bus.Subscribe(EventTypeStakeResolved, func(ctx context.Context, event Event) {
		received <- struct{}{}
	})

	bus.Emit(context.Background(), StakeResolvedEvent{
		StakeID: 42,
		UserID:  7,
		Status:  models.StakeStatusAccepted,
	})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler was not invoked after sibling panicked")
	}
}

func TestTransactionalBusFlushDelivers(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	received := make(chan Event, 2)
	mainBus.Subscribe(EventTypeStakeCreated, func(ctx context.Context, event Event) {
		received <- event
	})
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		received <- event
	})

	txBus.Publish(StakeCreatedEvent{StakeID: 42, UserID: 7, Amount: 30})
	txBus.Publish(BalanceChangeEvent{UserID: 7, ChangeAmount: -30})

	// Nothing leaves the transactional bus before Flush
	select {
	case <-received:
		t.Fatal("event escaped before the transaction committed")
	case <-time.After(100 * time.Millisecond):
	}

	txBus.Flush(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("pending event was not delivered after flush")
		}
	}
}

func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	received := make(chan Event, 1)
	mainBus.Subscribe(EventTypeStakeCreated, func(ctx context.Context, event Event) {
		received <- event
	})

	txBus.Publish(StakeCreatedEvent{StakeID: 42})
	txBus.Discard()
	txBus.Flush(context.Background())

	select {
	case <-received:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

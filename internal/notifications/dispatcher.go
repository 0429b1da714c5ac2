package notifications

import (
	"context"

	"festreg/internal/bookings"
)

// Dispatcher adapts the Kafka producer to the allocator's Notifier
// contract. It runs strictly outside the booking transaction.
type Dispatcher struct {
	producer Producer
}

func NewDispatcher(producer Producer) *Dispatcher {
	return &Dispatcher{producer: producer}
}

// BookingStatusChanged publishes the status change for delivery.
func (d *Dispatcher) BookingStatusChanged(ctx context.Context, n bookings.StatusNotification) error {
	message := NewMessage(n.Email, n.EventName, n.SlotLabel, string(n.Status))
	return d.producer.Publish(ctx, message)
}

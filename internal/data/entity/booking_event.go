package entity

import "github.com/google/uuid"

type BookingEventKind string

const (
	BookingEventStatus  BookingEventKind = "status"
	BookingEventPayment BookingEventKind = "payment"
)

// BookingEvent records one applied transition for audit.
type BookingEvent struct {
	BaseSimple
	BookingID uuid.UUID        `db:"booking_id"`
	ActorID   uuid.UUID        `db:"actor_id"`
	Kind      BookingEventKind `db:"kind"`
	From      string           `db:"from_state"`
	To        string           `db:"to_state"`
}

package workflow

import (
	"fmt"

	"lab-booking/internal/authz"
	"lab-booking/internal/data/entity"
)

type TransitionKind string

const (
	TransitionStatus  TransitionKind = "status"
	TransitionPayment TransitionKind = "payment"
)

// Transition is a requested change to a booking. Status changes set
// TargetStatus (plus Attachment for report_uploaded); payment changes set
// TargetPayment.
type Transition struct {
	Kind          TransitionKind
	TargetStatus  entity.BookingStatus
	TargetPayment entity.PaymentStatus
	Attachment    Attachment
}

func StatusTransition(target entity.BookingStatus) Transition {
	return Transition{Kind: TransitionStatus, TargetStatus: target}
}

func PaymentTransition(target entity.PaymentStatus) Transition {
	return Transition{Kind: TransitionPayment, TargetPayment: target}
}

type EffectKind string

const (
	EffectPersistBooking EffectKind = "persist_booking"
	EffectNotifyOwner    EffectKind = "notify_owner"
)

type Event string

const (
	EventBookingConfirmed Event = "booking_confirmed"
	EventSampleCollected  Event = "sample_collected"
	EventResultPublished  Event = "result_published"
	EventBookingCompleted Event = "booking_completed"
	EventBookingCancelled Event = "booking_cancelled"
	EventPaymentReceived  Event = "payment_received"
	EventPaymentRefunded  Event = "payment_refunded"
)

// SideEffect is work the caller must perform after a transition is applied.
type SideEffect struct {
	Kind      EffectKind
	BookingID string
	OwnerID   string
	Event     Event
}

// Applied is the outcome of a successful Execute.
type Applied struct {
	Booking      entity.Booking
	PriorStatus  entity.BookingStatus
	PriorPayment entity.PaymentStatus
	Transition   Transition
	SideEffects  []SideEffect
}

var statusEvents = map[entity.BookingStatus]Event{
	entity.BookingStatusConfirmed:       EventBookingConfirmed,
	entity.BookingStatusSampleCollected: EventSampleCollected,
	entity.BookingStatusResultPublished: EventResultPublished,
	entity.BookingStatusCompleted:       EventBookingCompleted,
	entity.BookingStatusCancelled:       EventBookingCancelled,
}

var paymentEvents = map[entity.PaymentStatus]Event{
	entity.PaymentStatusCompleted: EventPaymentReceived,
	entity.PaymentStatusRefunded:  EventPaymentRefunded,
}

type Orchestrator struct {
	policy Policy
}

func NewOrchestrator(policy Policy) *Orchestrator {
	return &Orchestrator{policy: policy}
}

// Execute authorizes p against the booking's lab, then applies t. It returns
// *authz.DenialError or *RejectionError on failure and performs no I/O, so a
// failed call can be retried freely.
func (o *Orchestrator) Execute(p *authz.Principal, b entity.Booking, t Transition) (*Applied, error) {
	decision := authz.AuthorizeOperator(p, authz.Resource{LabID: b.LabID})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	var (
		next  entity.Booking
		err   error
		event Event
	)
	switch t.Kind {
	case TransitionStatus:
		next, err = ApplyTransition(b, t.TargetStatus, t.Attachment, o.policy)
		event = statusEvents[t.TargetStatus]
	case TransitionPayment:
		next, err = ApplyPayment(b, t.TargetPayment)
		event = paymentEvents[t.TargetPayment]
	default:
		return nil, fmt.Errorf("unknown transition kind %q", t.Kind)
	}
	if err != nil {
		return nil, err
	}

	effects := []SideEffect{{Kind: EffectPersistBooking, BookingID: b.ID.String()}}
	if event != "" {
		effects = append(effects, SideEffect{
			Kind:      EffectNotifyOwner,
			BookingID: b.ID.String(),
			OwnerID:   b.UserID.String(),
			Event:     event,
		})
	}

	return &Applied{
		Booking:      next,
		PriorStatus:  b.Status,
		PriorPayment: b.PaymentStatus,
		Transition:   t,
		SideEffects:  effects,
	}, nil
}

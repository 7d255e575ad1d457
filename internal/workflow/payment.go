package workflow

import (
	"lab-booking/internal/data/entity"
)

var paymentEdges = map[entity.PaymentStatus]map[entity.PaymentStatus]guard{
	entity.PaymentStatusPending: {
		entity.PaymentStatusCompleted: requirePayLater,
		entity.PaymentStatusFailed:    nil,
		entity.PaymentStatusRefunded:  nil,
	},
	entity.PaymentStatusCompleted: {},
	entity.PaymentStatusFailed:    {},
	entity.PaymentStatusRefunded:  {},
}

// Upfront payments are settled out of band; only counter payments are
// confirmed here.
func requirePayLater(b *entity.Booking, _ Attachment, _ Policy) string {
	if b.PaymentMethod != entity.PaymentMethodPayLater {
		return "only pay_later bookings take a counter payment confirmation"
	}
	return ""
}

// ApplyPayment moves the payment status of b to target without touching the
// booking status.
func ApplyPayment(b entity.Booking, target entity.PaymentStatus) (entity.Booking, error) {
	from, to := string(b.PaymentStatus), string(target)
	if IsTerminal(b.Status) {
		return b, &RejectionError{
			Kind:    KindNoSuchEdge,
			From:    from,
			To:      to,
			Message: "booking is " + string(b.Status),
		}
	}

	edges, ok := paymentEdges[b.PaymentStatus]
	if !ok {
		return b, noSuchEdge(from, to)
	}
	g, ok := edges[target]
	if !ok {
		return b, noSuchEdge(from, to)
	}
	if g != nil {
		if msg := g(&b, Attachment{}, Policy{}); msg != "" {
			return b, guardFailed(from, to, msg)
		}
	}

	next := cloneBooking(b)
	next.PaymentStatus = target
	return next, nil
}

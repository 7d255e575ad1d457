package notify

import (
	"context"
	"fmt"

	"lab-booking/internal/data/entity"
	"lab-booking/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserFinder is the slice of the user repository the notifier needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

var messages = map[workflow.Event]string{
	workflow.EventBookingConfirmed: "Your booking has been confirmed.",
	workflow.EventSampleCollected:  "Your sample has been collected.",
	workflow.EventResultPublished:  "Your test results are ready.",
	workflow.EventBookingCompleted: "Your booking is complete.",
	workflow.EventBookingCancelled: "Your booking has been cancelled.",
	workflow.EventPaymentReceived:  "We have received your payment.",
	workflow.EventPaymentRefunded:  "Your payment has been refunded.",
}

// LogNotifier resolves the booking owner and writes the notification to the
// log. It stands in for an email or SMS gateway.
type LogNotifier struct {
	users UserFinder
	log   *zap.Logger
}

func NewLogNotifier(users UserFinder, log *zap.Logger) *LogNotifier {
	return &LogNotifier{
		users: users,
		log:   log.With(zap.String("component", "notifier")),
	}
}

func (n *LogNotifier) Notify(ctx context.Context, effect workflow.SideEffect) error {
	if effect.Kind != workflow.EffectNotifyOwner {
		return nil
	}

	ownerID, err := uuid.Parse(effect.OwnerID)
	if err != nil {
		return fmt.Errorf("notify owner %q: %w", effect.OwnerID, err)
	}

	owner, err := n.users.FindByID(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("find owner %s: %w", ownerID, err)
	}
	if owner == nil {
		n.log.Warn("Notification dropped, owner not found",
			zap.String("booking_id", effect.BookingID),
			zap.String("owner_id", effect.OwnerID),
		)
		return nil
	}

	message, ok := messages[effect.Event]
	if !ok {
		message = fmt.Sprintf("Your booking was updated (%s).", effect.Event)
	}

	n.log.Info("Notification sent",
		zap.String("booking_id", effect.BookingID),
		zap.String("owner_id", effect.OwnerID),
		zap.String("email", owner.Email),
		zap.String("event", string(effect.Event)),
		zap.String("message", message),
	)
	return nil
}

package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is a ledger row written whenever a booking's payment status moves.
type Payment struct {
	BaseSimple
	BookingID     uuid.UUID       `db:"booking_id"`
	Method        PaymentMethod   `db:"method"`
	Amount        decimal.Decimal `db:"amount"`
	Status        PaymentStatus   `db:"status"`
	RecordedBy    uuid.UUID       `db:"recorded_by"`
	TransactionID *string         `db:"transaction_id"`
}

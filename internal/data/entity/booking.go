package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "pending"
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusInProgress      BookingStatus = "in_progress"
	BookingStatusSampleCollected BookingStatus = "sample_collected"
	BookingStatusReportUploaded  BookingStatus = "report_uploaded"
	BookingStatusResultPublished BookingStatus = "result_published"
	BookingStatusCompleted       BookingStatus = "completed"
	BookingStatusCancelled       BookingStatus = "cancelled"
)

// BookingStatuses lists every status in lifecycle order, cancelled last.
var BookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusSampleCollected,
	BookingStatusReportUploaded,
	BookingStatusResultPublished,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// Rank is the position of s along the clinical path; cancelled and unknown
// statuses return -1.
func (s BookingStatus) Rank() int {
	for i, st := range BookingStatuses[:len(BookingStatuses)-1] {
		if st == s {
			return i
		}
	}
	return -1
}

type PaymentMethod string

const (
	PaymentMethodPayLater PaymentMethod = "pay_later"
	PaymentMethodUpfront  PaymentMethod = "upfront"
)

type LineItem struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type TestResult struct {
	TestID         *uuid.UUID `json:"test_id,omitempty"`
	Name           string     `json:"name"`
	Value          string     `json:"value"`
	Unit           string     `json:"unit,omitempty"`
	ReferenceRange string     `json:"reference_range,omitempty"`
	Flag           string     `json:"flag,omitempty"`
}

type Booking struct {
	BaseNoDelete
	OrderID          string          `db:"order_id"`
	UserID           uuid.UUID       `db:"user_id"`
	LabID            uuid.UUID       `db:"lab_id"`
	Status           BookingStatus   `db:"status"`
	PaymentStatus    PaymentStatus   `db:"payment_status"`
	PaymentMethod    PaymentMethod   `db:"payment_method"`
	SelectedTests    []LineItem      `db:"selected_tests"`
	SelectedPackages []LineItem      `db:"selected_packages"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	ReportFile       *string         `db:"report_file"`
	TestResults      []TestResult    `db:"test_results"`
}

// HasReport reports whether a report artifact or structured results are
// attached.
func (b *Booking) HasReport() bool {
	return (b.ReportFile != nil && *b.ReportFile != "") || len(b.TestResults) > 0
}

// SumLineItems totals the prices of every item across the given collections.
func SumLineItems(collections ...[]LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, items := range collections {
		for _, item := range items {
			total = total.Add(item.Price)
		}
	}
	return total
}

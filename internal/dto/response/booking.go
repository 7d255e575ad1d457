package response

import (
	"time"

	"lab-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type LineItemResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type BookingResponse struct {
	ID                 string                 `json:"id"`
	OrderID            string                 `json:"order_id"`
	UserID             string                 `json:"user_id"`
	LabID              string                 `json:"lab_id"`
	LabName            string                 `json:"lab_name,omitempty"`
	Status             entity.BookingStatus   `json:"status"`
	PaymentStatus      entity.PaymentStatus   `json:"payment_status"`
	PaymentMethod      entity.PaymentMethod   `json:"payment_method"`
	SelectedTests      []LineItemResponse     `json:"selected_tests"`
	SelectedPackages   []LineItemResponse     `json:"selected_packages"`
	TotalAmount        decimal.Decimal        `json:"total_amount"`
	HasReportFile      bool                   `json:"has_report_file"`
	TestResults        []entity.TestResult    `json:"test_results,omitempty"`
	AllowedTransitions []entity.BookingStatus `json:"allowed_transitions"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

type BookingEventResponse struct {
	ActorID   string                  `json:"actor_id"`
	Kind      entity.BookingEventKind `json:"kind"`
	From      string                  `json:"from"`
	To        string                  `json:"to"`
	CreatedAt time.Time               `json:"created_at"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	Method        entity.PaymentMethod `json:"method"`
	Amount        decimal.Decimal      `json:"amount"`
	Status        entity.PaymentStatus `json:"status"`
	RecordedBy    string               `json:"recorded_by"`
	TransactionID *string              `json:"transaction_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type BookingDetailResponse struct {
	BookingResponse
	History  []BookingEventResponse `json:"history"`
	Payments []PaymentResponse      `json:"payments"`
}

// Helper converters
func LineItemsToResponse(items []entity.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i, item := range items {
		out[i] = LineItemResponse{
			ID:    item.ID.String(),
			Name:  item.Name,
			Price: item.Price,
		}
	}
	return out
}

func BookingToResponse(booking *entity.Booking, labName string, allowed []entity.BookingStatus) BookingResponse {
	if allowed == nil {
		allowed = []entity.BookingStatus{}
	}
	return BookingResponse{
		ID:                 booking.ID.String(),
		OrderID:            booking.OrderID,
		UserID:             booking.UserID.String(),
		LabID:              booking.LabID.String(),
		LabName:            labName,
		Status:             booking.Status,
		PaymentStatus:      booking.PaymentStatus,
		PaymentMethod:      booking.PaymentMethod,
		SelectedTests:      LineItemsToResponse(booking.SelectedTests),
		SelectedPackages:   LineItemsToResponse(booking.SelectedPackages),
		TotalAmount:        booking.TotalAmount,
		HasReportFile:      booking.ReportFile != nil && *booking.ReportFile != "",
		TestResults:        booking.TestResults,
		AllowedTransitions: allowed,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}
}

func BookingEventToResponse(event *entity.BookingEvent) BookingEventResponse {
	return BookingEventResponse{
		ActorID:   event.ActorID.String(),
		Kind:      event.Kind,
		From:      event.From,
		To:        event.To,
		CreatedAt: event.CreatedAt,
	}
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID.String(),
		Method:        payment.Method,
		Amount:        payment.Amount,
		Status:        payment.Status,
		RecordedBy:    payment.RecordedBy.String(),
		TransactionID: payment.TransactionID,
		CreatedAt:     payment.CreatedAt,
	}
}

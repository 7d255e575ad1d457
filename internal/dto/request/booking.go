package request

type CreateBookingRequest struct {
	LabID         string   `json:"lab_id" validate:"required,uuid"`
	TestIDs       []string `json:"test_ids" validate:"required_without=PackageIDs,dive,uuid"`
	PackageIDs    []string `json:"package_ids" validate:"required_without=TestIDs,dive,uuid"`
	PaymentMethod string   `json:"payment_method" validate:"required,oneof=pay_later upfront"`
}

// UpdateStatusRequest accepts every known status so that illegal moves are
// reported by the workflow instead of the validator.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed in_progress sample_collected report_uploaded result_published completed cancelled"`
}

type TestResultRequest struct {
	TestID         *string `json:"test_id,omitempty" validate:"omitempty,uuid"`
	Name           string  `json:"name" validate:"required,max=150"`
	Value          string  `json:"value" validate:"required,max=100"`
	Unit           string  `json:"unit,omitempty" validate:"max=30"`
	ReferenceRange string  `json:"reference_range,omitempty" validate:"max=60"`
	Flag           string  `json:"flag,omitempty" validate:"omitempty,oneof=low normal high critical"`
}

type SubmitResultsRequest struct {
	Results []TestResultRequest `json:"results" validate:"required,min=1,dive"`
}

type UpdatePaymentRequest struct {
	Status        string  `json:"status" validate:"required,oneof=pending completed failed refunded"`
	TransactionID *string `json:"transaction_id,omitempty" validate:"omitempty,max=100"`
}

type LabBookingsRequest struct {
	PaginatedRequest
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed in_progress sample_collected report_uploaded result_published completed cancelled"`
}

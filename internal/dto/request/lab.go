package request

type CreateLabRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=150"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
}

type CreateCatalogItemRequest struct {
	Kind        string  `json:"kind" validate:"required,oneof=test package"`
	Name        string  `json:"name" validate:"required,min=2,max=150"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       string  `json:"price" validate:"required,money"`
}

type LabFilterRequest struct {
	PaginatedRequest
	Name *string `json:"name,omitempty"`
}

package response

import (
	"time"

	"lab-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type LabResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CatalogItemResponse struct {
	ID          string             `json:"id"`
	Kind        entity.CatalogKind `json:"kind"`
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Price       decimal.Decimal    `json:"price"`
}

type LabDetailResponse struct {
	LabResponse
	Tests    []CatalogItemResponse `json:"tests"`
	Packages []CatalogItemResponse `json:"packages"`
}

func LabToResponse(lab *entity.Lab) LabResponse {
	return LabResponse{
		ID:        lab.ID.String(),
		Name:      lab.Name,
		Address:   lab.Address,
		Phone:     lab.Phone,
		CreatedAt: lab.CreatedAt,
	}
}

func CatalogItemToResponse(item *entity.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:          item.ID.String(),
		Kind:        item.Kind,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
	}
}

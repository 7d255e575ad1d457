package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Lab struct {
	Base
	Name     string  `db:"name"`
	Address  *string `db:"address"`
	Phone    *string `db:"phone"`
	IsActive bool    `db:"is_active"`
}

type CatalogKind string

const (
	CatalogKindTest    CatalogKind = "test"
	CatalogKindPackage CatalogKind = "package"
)

// CatalogItem is an orderable test or package offered by a lab.
type CatalogItem struct {
	BaseNoDelete
	LabID       uuid.UUID       `db:"lab_id"`
	Kind        CatalogKind     `db:"kind"`
	Name        string          `db:"name"`
	Description *string         `db:"description"`
	Price       decimal.Decimal `db:"price"`
	IsActive    bool            `db:"is_active"`
}

func (c *CatalogItem) LineItem() LineItem {
	return LineItem{ID: c.ID, Name: c.Name, Price: c.Price}
}

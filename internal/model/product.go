package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name       string          `db:"name" json:"name"`
	SupplierID string          `db:"supplier_id" json:"supplier_id"`
	CategoryID string          `db:"category_id" json:"category_id"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Supplier   *Supplier       `db:"-" json:"supplier,omitempty"` // Joined data
	Category   *Category       `db:"-" json:"category,omitempty"` // Joined data
}

package dto

import "github.com/shopspring/decimal"

type ProductFilters struct {
	CategoryID string
	SupplierID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Page       int
	PageSize   int
}

type CreateProductInput struct {
	Name       string
	SupplierID string
	CategoryID string
	Price      decimal.Decimal
}

type UpdateProductInput struct {
	ID         string
	Name       string
	SupplierID string
	CategoryID string
	Price      decimal.Decimal
}

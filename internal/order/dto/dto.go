package dto

import "github.com/shopspring/decimal"

type OrderFilters struct {
	Page     int
	PageSize int
}

type OrderItemInput struct {
	ProductID     string
	Quantity      int
	PurchasePrice decimal.Decimal
}

type CreateOrderInput struct {
	BuyerID string
	Items   []OrderItemInput
}

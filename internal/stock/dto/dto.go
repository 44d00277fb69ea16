package dto

type StockFilters struct {
	ProductID string
	Page      int
	PageSize  int
}

type MovementFilters struct {
	ProductID    string
	MovementType string
	Page         int
	PageSize     int
}

type CreateStockInput struct {
	ProductID string
	Quantity  int
}

type AdjustStockInput struct {
	ProductID string
	Delta     int
	Reason    string
}

type SetStockInput struct {
	ProductID string
	Quantity  int
	Reason    string
}

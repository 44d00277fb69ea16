package dto

type SupplierFilters struct {
	Search   string
	Page     int
	PageSize int
}

type CreateSupplierInput struct {
	Name     string
	Country  string
	City     string
	Street   string
	Building string
}

type UpdateSupplierInput struct {
	ID       string
	Name     string
	Country  string
	City     string
	Street   string
	Building string
}

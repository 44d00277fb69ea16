package dto

type CategoryFilters struct {
	ParentID *string // Nil means ignore, empty string means root categories
	Page     int
	PageSize int
}

type CreateCategoryInput struct {
	ParentID *string
	Name     string
}

type UpdateCategoryInput struct {
	ID       string
	ParentID *string
	Name     string
}

package model

type Category struct {
	BaseModel
	ParentID *string    `db:"parent_id" json:"parent_id"` // Nullable, root categories have no parent
	Name     string     `db:"name" json:"name"`
	Children []Category `db:"-" json:"children,omitempty"` // For tree structure, not in DB
}

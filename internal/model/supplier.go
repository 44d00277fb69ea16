package model

type Supplier struct {
	BaseModel
	Name     string `db:"name" json:"name"`
	Country  string `db:"country" json:"country"`
	City     string `db:"city" json:"city"`
	Street   string `db:"street" json:"street"`
	Building string `db:"building" json:"building"`
}

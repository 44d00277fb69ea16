package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        string      `db:"id" json:"id"`
	BuyerID   string      `db:"buyer_id" json:"buyer_id"`
	OrderDate time.Time   `db:"order_date" json:"order_date"`
	EmailSent bool        `db:"email_sent" json:"email_sent"`
	Items     []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID            string          `db:"id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Quantity      int             `db:"quantity" json:"quantity"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchase_price"` // Snapshot at order time, immutable
	ProductName   string          `db:"-" json:"product_name,omitempty"`      // Joined data
}

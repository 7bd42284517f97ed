package models

import "time"

// Sheet names used by the market workflow.
const (
	SheetSales   = "sales"
	SheetStock   = "stock"
	SheetSurplus = "surplus"
)

// RunRecord captures everything written during one data-entry session.
type RunRecord struct {
	ID        string    `bson:"_id" json:"id"`
	Sales     Row       `bson:"sales" json:"sales"`
	Stock     Row       `bson:"stock" json:"stock"`
	Surplus   Row       `bson:"surplus" json:"surplus"`
	Projected Row       `bson:"projected" json:"projected"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

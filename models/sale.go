package models

// QuickSaleTableName marks archive rows that were sold without a table.
const QuickSaleTableName = "Hızlı Satış"

// Sale is one closed order line in the append-only sales archive. Rows are
// written when a table is closed or a quick sale completes and are never
// updated or deleted afterwards.
type Sale struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	ProductID        string  `gorm:"type:varchar(64)" json:"productId"`
	Name             string  `gorm:"type:varchar(255);not null" json:"name"`
	PriceAtOrder     float64 `gorm:"type:decimal(10,2);not null" json:"priceAtOrder"`
	Quantity         int     `gorm:"not null" json:"quantity"`
	Description      string  `gorm:"type:text" json:"description"`
	WaiterUsername   string  `gorm:"type:varchar(255)" json:"waiterUsername"`
	Timestamp        int64   `json:"timestamp"`
	TableName        string  `gorm:"type:varchar(255);not null" json:"tableName"`
	ClosingTimestamp int64   `gorm:"index" json:"closingTimestamp"`
	ClosedBy         string  `gorm:"type:varchar(255);not null" json:"closedBy"`
}

package models

const (
	TableStatusEmpty    = "empty"
	TableStatusOccupied = "occupied"
)

// Table is held in memory only; the live process is the source of truth for
// seating state and orders. Tables are not persisted across restarts.
type Table struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Status         string      `json:"status"`
	Order          []OrderLine `json:"order"`
	Total          float64     `json:"total"`
	WaiterUsername *string     `json:"waiterUsername"`
	Type           string      `json:"type"`
}

// OrderLine is one distinct entry on a table's open order. Line identity is
// the (ProductID, Description) pair: adding the same pair again bumps
// Quantity instead of appending. ProductID is either a catalog id rendered
// as a string or a synthetic "manual-<ms>" marker for off-menu items.
type OrderLine struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	PriceAtOrder   float64 `json:"priceAtOrder"`
	Quantity       int     `json:"quantity"`
	Description    string  `json:"description"`
	WaiterUsername string  `json:"waiterUsername"`
	Timestamp      int64   `json:"timestamp"`
}

package models

import "time"

type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Category  string    `gorm:"type:varchar(255);not null" json:"category"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

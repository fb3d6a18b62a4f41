package types

import (
	"time"
)

// Product is the catalog read model. The catalog itself is owned elsewhere;
// we only do keyed lookups to seed swipes and recommendation context.
type Product struct {
	ProductID   string    `gorm:"column:product_id;primaryKey" json:"product_id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Price       float64   `gorm:"column:price" json:"price"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url"`
	Tag         string    `gorm:"column:tag" json:"tag,omitempty"`
	Material    string    `gorm:"column:material" json:"material,omitempty"`
	Colour      string    `gorm:"column:colour" json:"colour,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Product) TableName() string { return "product" }

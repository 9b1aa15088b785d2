package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Variant struct {
	Name  string `bson:"name" json:"name" validate:"required"`
	Stock int    `bson:"stock" json:"stock" validate:"gte=0"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Images      []string           `bson:"images" json:"images"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductPatch carries only the fields an admin sent; nil means untouched.
type ProductPatch struct {
	Name        *string    `json:"name" validate:"omitnil,min=1"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price" validate:"omitnil,gte=0"`
	Category    *string    `json:"category"`
	Images      *[]string  `json:"images"`
	Variants    *[]Variant `json:"variants" validate:"omitnil,dive"`
	IsActive    *bool      `json:"isActive"`
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Category == nil &&
		p.Images == nil && p.Variants == nil && p.IsActive == nil
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AbandonedCartTTL is how long a captured cart survives before the TTL index drops it.
const AbandonedCartTTL = 30 * 24 * time.Hour

type CartItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Variant   string  `bson:"variant,omitempty" json:"variant,omitempty"`
}

type AbandonedCart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Items     []CartItem         `bson:"items" json:"items"`
	Total     float64            `bson:"total" json:"total"`
	Recovered bool               `bson:"recovered" json:"recovered"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

package db

import (
	"context"

	"github.com/arzan03/storefront/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CartStore struct {
	col *mongo.Collection
}

func NewCartStore(database *mongo.Database) *CartStore {
	return &CartStore{col: database.Collection(cartsCollection)}
}

func (s *CartStore) Create(ctx context.Context, cart *models.AbandonedCart) error {
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, cart)
	return translate(err)
}

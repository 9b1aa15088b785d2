package db

import (
	"context"
	"time"

	"github.com/arzan03/storefront/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductStore struct {
	col *mongo.Collection
}

func NewProductStore(database *mongo.Database) *ProductStore {
	return &ProductStore{col: database.Collection(productsCollection)}
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, p)
	return translate(err)
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID, activeOnly bool) (*models.Product, error) {
	filter := bson.M{"_id": id}
	if activeOnly {
		filter["isActive"] = true
	}
	var p models.Product
	if err := s.col.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProductStore) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

func (s *ProductStore) Newest(ctx context.Context) (*models.Product, error) {
	var p models.Product
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := s.col.FindOne(ctx, bson.M{"isActive": true}, opts).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProductStore) Patch(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Images != nil {
		set["images"] = *patch.Images
	}
	if patch.Variants != nil {
		set["variants"] = *patch.Variants
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}

	var p models.Product
	if err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, afterUpdate()).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

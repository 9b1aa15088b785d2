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

type OrderStore struct {
	col *mongo.Collection
}

func NewOrderStore(database *mongo.Database) *OrderStore {
	return &OrderStore{col: database.Collection(ordersCollection)}
}

// Create inserts the order. A clientOrderId collision surfaces as ErrDuplicate.
func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, o)
	return translate(err)
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *OrderStore) FindByClientOrderID(ctx context.Context, clientOrderID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"clientOrderId": clientOrderID})
}

func (s *OrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *OrderStore) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
		if f.Page > 1 {
			opts.SetSkip(int64((f.Page - 1) * f.Limit))
		}
	}
	return s.find(ctx, filterFor(f), opts)
}

func (s *OrderStore) Count(ctx context.Context, f models.OrderFilter) (int64, error) {
	n, err := s.col.CountDocuments(ctx, filterFor(f))
	if err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return n, nil
}

func (s *OrderStore) UpdatePayment(ctx context.Context, id primitive.ObjectID, upd models.PaymentUpdate) (*models.Order, error) {
	return s.findOneAndUpdate(ctx, id, paymentUpdateDoc(upd, time.Now()))
}

func paymentUpdateDoc(upd models.PaymentUpdate, now time.Time) bson.M {
	set := bson.M{"paymentStatus": upd.Status, "updatedAt": now}
	unset := bson.M{}

	if upd.ProofURL != "" {
		set["paymentProofUrl"] = upd.ProofURL
	}
	if upd.ProofPublicID != "" {
		set["paymentProofPublicId"] = upd.ProofPublicID
	}
	if upd.ProviderPaymentID != "" {
		set["mercadoPagoPaymentId"] = upd.ProviderPaymentID
	}
	switch {
	case upd.KeepReview:
		if upd.ClearRejection {
			unset["paymentRejectionReason"] = ""
		}
	default:
		if upd.RejectionReason != "" {
			set["paymentRejectionReason"] = upd.RejectionReason
		} else {
			unset["paymentRejectionReason"] = ""
		}
		if upd.ReviewedBy != nil {
			set["paymentReviewedBy"] = *upd.ReviewedBy
			set["paymentReviewedAt"] = upd.ReviewedAt
		} else {
			unset["paymentReviewedBy"] = ""
			unset["paymentReviewedAt"] = ""
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// UpdateFulfilment changes shipping status and/or notes; nil leaves a field alone.
func (s *OrderStore) UpdateFulfilment(ctx context.Context, id primitive.ObjectID, shippingStatus, notes *string) (*models.Order, error) {
	set := bson.M{"updatedAt": time.Now()}
	if shippingStatus != nil {
		set["shipping.status"] = *shippingStatus
	}
	if notes != nil {
		set["notes"] = *notes
	}
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func filterFor(f models.OrderFilter) bson.M {
	filter := bson.M{}
	if f.PaymentStatus != "" {
		filter["paymentStatus"] = f.PaymentStatus
	}
	if f.ShippingStatus != "" {
		filter["shipping.status"] = f.ShippingStatus
	}
	return filter
}

func (s *OrderStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	if err := s.col.FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *OrderStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return orders, nil
}

func (s *OrderStore) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Order, error) {
	var o models.Order
	if err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

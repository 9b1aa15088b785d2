package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/mailer"
	"github.com/arzan03/storefront/internal/metrics"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

type OrderService struct {
	orders   OrderStore
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewOrderService(orders OrderStore, notifier Notifier, log logrus.FieldLogger) *OrderService {
	return &OrderService{orders: orders, notifier: notifier, log: log, now: time.Now}
}

type OrderItemInput struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	Variant   string  `json:"variant"`
}

type CreateOrderInput struct {
	ClientOrderID  string           `json:"clientOrderId"`
	Name           string           `json:"name" validate:"required"`
	Email          string           `json:"email" validate:"required"`
	Phone          string           `json:"phone"`
	Address        string           `json:"address" validate:"required"`
	City           string           `json:"city"`
	Zip            string           `json:"zip"`
	ShippingMethod string           `json:"shippingMethod" validate:"omitempty,oneof=delivery pickup"`
	PaymentMethod  string           `json:"paymentMethod" validate:"omitempty,oneof=transfer mercadopago"`
	Notes          string           `json:"notes"`
	Items          []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

func (in *CreateOrderInput) normalize() {
	in.ClientOrderID = strings.TrimSpace(in.ClientOrderID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Zip = strings.TrimSpace(in.Zip)
	in.Notes = strings.TrimSpace(in.Notes)
	for i := range in.Items {
		in.Items[i].ProductID = strings.TrimSpace(in.Items[i].ProductID)
		in.Items[i].Name = strings.TrimSpace(in.Items[i].Name)
	}
}

// Create stores a new order, or returns the existing one marked Duplicated when
// the clientOrderId was already used. Totals come from the submitted lines.
func (s *OrderService) Create(ctx context.Context, buyer *Actor, in CreateOrderInput) (*models.Order, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !validEmail(in.Email) {
		return nil, apperror.BadRequest("email is invalid")
	}

	if in.ClientOrderID != "" {
		existing, err := s.orders.FindByClientOrderID(ctx, in.ClientOrderID)
		if err == nil {
			return s.duplicate(existing), nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, apperror.Internal(err, "failed to check existing order")
		}
	}

	order := s.buildOrder(buyer, in)
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, db.ErrDuplicate) && in.ClientOrderID != "" {
			// Lost a race with a retry carrying the same key.
			existing, findErr := s.orders.FindByClientOrderID(ctx, in.ClientOrderID)
			if findErr == nil {
				return s.duplicate(existing), nil
			}
		}
		return nil, apperror.Internal(err, "failed to create order")
	}

	metrics.OrderEvent("created")
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"total":    order.TotalAmount,
	}).Info("order created")
	s.notifier.Notify(mailer.OrderConfirmation(*order))
	return order, nil
}

func (s *OrderService) buildOrder(buyer *Actor, in CreateOrderInput) *models.Order {
	items := make([]models.OrderItem, 0, len(in.Items))
	var totalItems int
	var totalAmount float64
	for _, it := range in.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Variant:   strings.TrimSpace(it.Variant),
		})
		totalItems += it.Quantity
		totalAmount += it.Price * float64(it.Quantity)
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodTransfer
	}
	shippingMethod := in.ShippingMethod
	if shippingMethod == "" {
		shippingMethod = models.ShippingMethodDelivery
	}

	now := s.now()
	order := &models.Order{
		ID:            primitive.NewObjectID(),
		ClientOrderID: in.ClientOrderID,
		Customer: models.Customer{
			Name:  in.Name,
			Email: in.Email,
			Phone: in.Phone,
		},
		Shipping: models.Shipping{
			Address: in.Address,
			City:    in.City,
			Zip:     in.Zip,
			Method:  shippingMethod,
			Status:  models.ShippingPending,
		},
		Items:         items,
		TotalItems:    totalItems,
		TotalAmount:   math.Round(totalAmount*100) / 100,
		PaymentMethod: paymentMethod,
		PaymentStatus: models.PaymentPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if buyer != nil {
		uid := buyer.UserID
		order.UserID = &uid
	}
	return order
}

func (s *OrderService) duplicate(o *models.Order) *models.Order {
	metrics.OrderEvent("duplicated")
	s.log.WithField("order_id", o.ID.Hex()).Info("duplicate order submission")
	o.Duplicated = true
	return o
}

func (s *OrderService) ListMine(ctx context.Context, actor Actor) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list orders")
	}
	return orders, nil
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// List is the admin view over every order.
func (s *OrderService) List(ctx context.Context, f models.OrderFilter) (*OrderPage, error) {
	if f.PaymentStatus != "" && !validPaymentStatus(f.PaymentStatus) {
		return nil, apperror.BadRequest("invalid paymentStatus filter")
	}
	if f.ShippingStatus != "" && !models.ValidShippingStatus(f.ShippingStatus) {
		return nil, apperror.BadRequest("invalid shippingStatus filter")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultOrderPageSize
	}
	if f.Limit > maxOrderPageSize {
		f.Limit = maxOrderPageSize
	}

	results, err := utils.RunParallel(
		func() (any, error) { return s.orders.List(ctx, f) },
		func() (any, error) { return s.orders.Count(ctx, f) },
	)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list orders")
	}

	return &OrderPage{
		Orders: results[0].([]models.Order),
		Total:  results[1].(int64),
		Page:   f.Page,
		Limit:  f.Limit,
	}, nil
}

type UpdateStatusInput struct {
	ShippingStatus *string `json:"shippingStatus"`
	Notes          *string `json:"notes"`
}

// UpdateStatus moves shipping along; it does not touch payment fields.
func (s *OrderService) UpdateStatus(ctx context.Context, rawID string, in UpdateStatusInput) (*models.Order, error) {
	id, err := parseID(rawID, "order")
	if err != nil {
		return nil, err
	}
	if in.ShippingStatus == nil && in.Notes == nil {
		return nil, apperror.BadRequest("nothing to update")
	}
	if in.ShippingStatus != nil && !models.ValidShippingStatus(*in.ShippingStatus) {
		return nil, apperror.BadRequest("shippingStatus must be one of: pending shipped delivered")
	}

	order, err := s.orders.UpdateFulfilment(ctx, id, in.ShippingStatus, in.Notes)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("order not found")
		}
		return nil, apperror.Internal(err, "failed to update order")
	}
	return order, nil
}

func validPaymentStatus(s string) bool {
	switch s {
	case models.PaymentPending, models.PaymentProofUploaded, models.PaymentApproved, models.PaymentRejected:
		return true
	}
	return false
}

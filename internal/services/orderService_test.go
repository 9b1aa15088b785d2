package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/logger"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/services/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newOrderService() (*OrderService, *memstore.Orders, *memstore.Outbox) {
	orders := memstore.NewOrders()
	outbox := &memstore.Outbox{}
	return NewOrderService(orders, outbox, logger.Discard()), orders, outbox
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		Name:    "Ana Perez",
		Email:   "Ana@Example.com ",
		Address: "Calle 123",
		City:    "Cordoba",
		Items: []OrderItemInput{
			{ProductID: "p1", Name: "Mate", Price: 100, Quantity: 2},
		},
	}
}

func TestOrderCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("computes totals and defaults", func(t *testing.T) {
		svc, orders, outbox := newOrderService()

		order, err := svc.Create(ctx, nil, validOrderInput())
		require.NoError(t, err)

		assert.Equal(t, 200.0, order.TotalAmount)
		assert.Equal(t, 2, order.TotalItems)
		assert.Equal(t, models.PaymentPending, order.PaymentStatus)
		assert.Equal(t, models.ShippingPending, order.Shipping.Status)
		assert.Equal(t, models.PaymentMethodTransfer, order.PaymentMethod)
		assert.Equal(t, models.ShippingMethodDelivery, order.Shipping.Method)
		assert.Equal(t, "ana@example.com", order.Customer.Email)
		assert.Nil(t, order.UserID)
		assert.False(t, order.Duplicated)
		assert.Equal(t, 1, orders.Len())
		require.Len(t, outbox.Messages, 1)
		assert.Equal(t, "ana@example.com", outbox.Messages[0].To)
	})

	t.Run("rounds totals to cents", func(t *testing.T) {
		svc, _, _ := newOrderService()
		in := validOrderInput()
		in.Items = []OrderItemInput{
			{ProductID: "p1", Name: "A", Price: 0.1, Quantity: 3},
			{ProductID: "p2", Name: "B", Price: 19.99, Quantity: 1},
		}

		order, err := svc.Create(ctx, nil, in)
		require.NoError(t, err)
		assert.Equal(t, 20.29, order.TotalAmount)
		assert.Equal(t, 4, order.TotalItems)
	})

	t.Run("links the authenticated buyer", func(t *testing.T) {
		svc, _, _ := newOrderService()
		buyer := &Actor{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}

		order, err := svc.Create(ctx, buyer, validOrderInput())
		require.NoError(t, err)
		require.NotNil(t, order.UserID)
		assert.Equal(t, buyer.UserID, *order.UserID)
	})

	t.Run("same clientOrderId returns the stored order", func(t *testing.T) {
		svc, orders, outbox := newOrderService()
		in := validOrderInput()
		in.ClientOrderID = "checkout-42"

		first, err := svc.Create(ctx, nil, in)
		require.NoError(t, err)

		in.Items[0].Quantity = 5
		second, err := svc.Create(ctx, nil, in)
		require.NoError(t, err)

		assert.True(t, second.Duplicated)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 200.0, second.TotalAmount)
		assert.Equal(t, 1, orders.Len())
		assert.Len(t, outbox.Messages, 1)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := []struct {
			name    string
			mutate  func(*CreateOrderInput)
			message string
		}{
			{"empty items", func(in *CreateOrderInput) { in.Items = []OrderItemInput{} }, "items must not be empty"},
			{"missing items", func(in *CreateOrderInput) { in.Items = nil }, "items must not be empty"},
			{"negative price", func(in *CreateOrderInput) { in.Items[0].Price = -1 }, "items[0].price must be 0 or more"},
			{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity must be greater than 0"},
			{"missing name", func(in *CreateOrderInput) { in.Name = "  " }, "name is required"},
			{"bad email", func(in *CreateOrderInput) { in.Email = "nope" }, "email is invalid"},
			{"bad payment method", func(in *CreateOrderInput) { in.PaymentMethod = "cash" }, "paymentMethod must be one of: transfer mercadopago"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, orders, _ := newOrderService()
				in := validOrderInput()
				tc.mutate(&in)

				_, err := svc.Create(ctx, nil, in)
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
				assert.Equal(t, tc.message, err.Error())
				assert.Equal(t, 0, orders.Len())
			})
		}
	})
}

func TestOrderList(t *testing.T) {
	ctx := context.Background()
	svc, orders, _ := newOrderService()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		orders.Put(models.Order{PaymentStatus: models.PaymentPending, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	orders.Put(models.Order{PaymentStatus: models.PaymentApproved, CreatedAt: base})

	t.Run("defaults paging", func(t *testing.T) {
		page, err := svc.List(ctx, models.OrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, defaultOrderPageSize, page.Limit)
		assert.Len(t, page.Orders, 4)
	})

	t.Run("filters and pages", func(t *testing.T) {
		page, err := svc.List(ctx, models.OrderFilter{PaymentStatus: models.PaymentPending, Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		require.Len(t, page.Orders, 1)
		assert.Equal(t, base, page.Orders[0].CreatedAt)
	})

	t.Run("caps the limit", func(t *testing.T) {
		page, err := svc.List(ctx, models.OrderFilter{Limit: 10000})
		require.NoError(t, err)
		assert.Equal(t, maxOrderPageSize, page.Limit)
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := svc.List(ctx, models.OrderFilter{PaymentStatus: "paid"})
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

		_, err = svc.List(ctx, models.OrderFilter{ShippingStatus: "lost"})
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	})
}

func TestOrderListMine(t *testing.T) {
	svc, orders, _ := newOrderService()
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	orders.Put(models.Order{UserID: &me})
	orders.Put(models.Order{UserID: &other})
	orders.Put(models.Order{})

	mine, err := svc.ListMine(context.Background(), Actor{UserID: me})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].OwnedBy(me))
}

func TestOrderUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, orders, _ := newOrderService()
	stored := orders.Put(models.Order{
		PaymentStatus: models.PaymentApproved,
		Shipping:      models.Shipping{Status: models.ShippingPending},
	})

	shipped := models.ShippingShipped
	notes := "sent with tracking AB123"
	order, err := svc.UpdateStatus(ctx, stored.ID.Hex(), UpdateStatusInput{ShippingStatus: &shipped, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.ShippingShipped, order.Shipping.Status)
	assert.Equal(t, notes, order.Notes)
	assert.Equal(t, models.PaymentApproved, order.PaymentStatus)

	bogus := "teleported"
	_, err = svc.UpdateStatus(ctx, stored.ID.Hex(), UpdateStatusInput{ShippingStatus: &bogus})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = svc.UpdateStatus(ctx, stored.ID.Hex(), UpdateStatusInput{})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = svc.UpdateStatus(ctx, "not-an-id", UpdateStatusInput{Notes: &notes})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = svc.UpdateStatus(ctx, primitive.NewObjectID().Hex(), UpdateStatusInput{Notes: &notes})
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

package services

import (
	"context"
	"strings"

	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/metrics"
	"github.com/arzan03/storefront/internal/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNoPaymentID = errors.New("notification carries no payment id")

// Notification is a raw Mercado Pago webhook delivery.
type Notification struct {
	Body  []byte
	Query map[string]string
}

// Topic returns the notification type, empty when the payload doesn't say.
func (n Notification) Topic() string {
	for _, path := range []string{"type", "topic", "action"} {
		if v := gjson.GetBytes(n.Body, path); v.Exists() && v.String() != "" {
			topic := v.String()
			// "payment.created" / "payment.updated" style actions
			if i := strings.Index(topic, "."); i > 0 {
				topic = topic[:i]
			}
			return topic
		}
	}
	for _, key := range []string{"type", "topic"} {
		if v := n.Query[key]; v != "" {
			return v
		}
	}
	return ""
}

// ExtractPaymentID looks for the payment id in every shape Mercado Pago has
// been seen to send: body data.id, query data.id, a resource URL, query id, body id.
func ExtractPaymentID(n Notification) string {
	if v := gjson.GetBytes(n.Body, "data.id"); v.Exists() && v.String() != "" {
		return v.String()
	}
	if v := strings.TrimSpace(n.Query["data.id"]); v != "" {
		return v
	}
	if v := gjson.GetBytes(n.Body, "resource"); v.Exists() && v.String() != "" {
		res := strings.TrimRight(v.String(), "/")
		if i := strings.LastIndex(res, "/"); i >= 0 {
			res = res[i+1:]
		}
		if res != "" {
			return res
		}
	}
	if v := strings.TrimSpace(n.Query["id"]); v != "" {
		return v
	}
	if v := gjson.GetBytes(n.Body, "id"); v.Exists() && v.String() != "" {
		return v.String()
	}
	return ""
}

// MapProviderStatus folds Mercado Pago's payment statuses onto ours.
func MapProviderStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved":
		return models.PaymentApproved
	case "rejected":
		return models.PaymentRejected
	default:
		return models.PaymentPending
	}
}

type WebhookService struct {
	orders   OrderStore
	provider PaymentProvider
	log      logrus.FieldLogger
}

func NewWebhookService(orders OrderStore, provider PaymentProvider, log logrus.FieldLogger) *WebhookService {
	return &WebhookService{orders: orders, provider: provider, log: log}
}

// HandleMercadoPago reconciles one notification. The caller answers 200 whatever
// this returns; the error is only for logging.
func (s *WebhookService) HandleMercadoPago(ctx context.Context, n Notification) (*models.Order, error) {
	metrics.OrderEvent("webhook")

	if topic := n.Topic(); topic != "" && topic != "payment" {
		s.log.WithField("topic", topic).Debug("ignoring non-payment notification")
		return nil, nil
	}

	paymentID := ExtractPaymentID(n)
	if paymentID == "" {
		return nil, ErrNoPaymentID
	}

	payment, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch payment %s", paymentID)
	}

	order, err := s.findByReference(ctx, payment.ExternalReference)
	if err != nil {
		return nil, errors.Wrapf(err, "find order for reference %q", payment.ExternalReference)
	}

	status := MapProviderStatus(payment.Status)
	updated, err := s.orders.UpdatePayment(ctx, order.ID, models.PaymentUpdate{
		Status:            status,
		ProviderPaymentID: paymentID,
		KeepReview:        true,
		ClearRejection:    status == models.PaymentApproved,
	})
	if err != nil {
		return nil, errors.Wrap(err, "update order payment status")
	}

	s.log.WithFields(logrus.Fields{
		"order_id":        updated.ID.Hex(),
		"payment_id":      paymentID,
		"provider_status": payment.Status,
		"payment_status":  status,
	}).Info("mercado pago payment reconciled")
	return updated, nil
}

// findByReference accepts either the order id or the client order id as external reference.
func (s *WebhookService) findByReference(ctx context.Context, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, db.ErrNotFound
	}
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		order, err := s.orders.FindByID(ctx, id)
		if err == nil || !errors.Is(err, db.ErrNotFound) {
			return order, err
		}
	}
	return s.orders.FindByClientOrderID(ctx, ref)
}

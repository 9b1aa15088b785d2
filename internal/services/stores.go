package services

import (
	"context"
	"time"

	"github.com/arzan03/storefront/internal/mailer"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/payments"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are satisfied by the Mongo stores in internal/db.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	SetRole(ctx context.Context, email, role string) (*models.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, until time.Time) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID, activeOnly bool) (*models.Product, error)
	List(ctx context.Context, activeOnly bool) ([]models.Product, error)
	Newest(ctx context.Context) (*models.Product, error)
	Patch(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByClientOrderID(ctx context.Context, clientOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	Count(ctx context.Context, f models.OrderFilter) (int64, error)
	UpdatePayment(ctx context.Context, id primitive.ObjectID, upd models.PaymentUpdate) (*models.Order, error)
	UpdateFulfilment(ctx context.Context, id primitive.ObjectID, shippingStatus, notes *string) (*models.Order, error)
}

type CartStore interface {
	Create(ctx context.Context, cart *models.AbandonedCart) error
}

// ProofStore moves an uploaded temp file to its permanent home.
type ProofStore interface {
	Save(ctx context.Context, localPath, filename, contentType string) (models.StoredFile, error)
	Remove(ctx context.Context, publicID string) error
}

type Notifier interface {
	Notify(msg mailer.Message)
}

type PaymentProvider interface {
	GetPayment(ctx context.Context, paymentID string) (*payments.Payment, error)
}

// Actor is the authenticated caller as read from the bearer token.
type Actor struct {
	UserID primitive.ObjectID
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

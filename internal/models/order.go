package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentPending       = "pending"
	PaymentProofUploaded = "proof_uploaded"
	PaymentApproved      = "approved"
	PaymentRejected      = "rejected"
)

const (
	ShippingPending   = "pending"
	ShippingShipped   = "shipped"
	ShippingDelivered = "delivered"
)

const (
	PaymentMethodTransfer    = "transfer"
	PaymentMethodMercadoPago = "mercadopago"

	ShippingMethodDelivery = "delivery"
	ShippingMethodPickup   = "pickup"
)

// DefaultRejectionReason is stored when an admin rejects a proof without saying why.
const DefaultRejectionReason = "Payment proof could not be verified"

// OrderItem is a denormalised copy of the line the buyer submitted.
type OrderItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Variant   string  `bson:"variant,omitempty" json:"variant,omitempty"`
}

type Customer struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Shipping struct {
	Address string `bson:"address" json:"address"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Zip     string `bson:"zip,omitempty" json:"zip,omitempty"`
	Method  string `bson:"method" json:"method"`
	Status  string `bson:"status" json:"status"`
}

type Order struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientOrderID string              `bson:"clientOrderId,omitempty" json:"clientOrderId,omitempty"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Customer      Customer            `bson:"customer" json:"customer"`
	Shipping      Shipping            `bson:"shipping" json:"shipping"`
	Items         []OrderItem         `bson:"items" json:"items"`
	TotalItems    int                 `bson:"totalItems" json:"totalItems"`
	TotalAmount   float64             `bson:"totalAmount" json:"totalAmount"`
	PaymentMethod string              `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus string              `bson:"paymentStatus" json:"paymentStatus"`

	PaymentProofURL        string              `bson:"paymentProofUrl,omitempty" json:"paymentProofUrl,omitempty"`
	PaymentProofPublicID   string              `bson:"paymentProofPublicId,omitempty" json:"paymentProofPublicId,omitempty"`
	PaymentRejectionReason string              `bson:"paymentRejectionReason,omitempty" json:"paymentRejectionReason,omitempty"`
	PaymentReviewedAt      *time.Time          `bson:"paymentReviewedAt,omitempty" json:"paymentReviewedAt,omitempty"`
	PaymentReviewedBy      *primitive.ObjectID `bson:"paymentReviewedBy,omitempty" json:"paymentReviewedBy,omitempty"`
	MercadoPagoPaymentID   string              `bson:"mercadoPagoPaymentId,omitempty" json:"mercadoPagoPaymentId,omitempty"`

	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Duplicated is set on the response when clientOrderId matched an existing order.
	Duplicated bool `bson:"-" json:"duplicated,omitempty"`
}

func (o Order) OwnedBy(userID primitive.ObjectID) bool {
	return o.UserID != nil && *o.UserID == userID
}

func ValidShippingStatus(s string) bool {
	switch s {
	case ShippingPending, ShippingShipped, ShippingDelivered:
		return true
	}
	return false
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	PaymentStatus  string
	ShippingStatus string
	Page           int
	Limit          int
}

// PaymentUpdate describes one write to an order's payment fields.
type PaymentUpdate struct {
	Status string

	// Set only when non-empty.
	ProofURL          string
	ProofPublicID     string
	ProviderPaymentID string

	// RejectionReason is stored when non-empty and removed otherwise.
	RejectionReason string
	// ReviewedBy stamps the review with ReviewedAt; nil clears both.
	ReviewedBy *primitive.ObjectID
	ReviewedAt time.Time

	// KeepReview leaves rejection and review fields untouched.
	KeepReview bool
	// ClearRejection drops the rejection reason even when KeepReview is set.
	ClearRejection bool
}

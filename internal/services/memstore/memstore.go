// Package memstore holds in-memory versions of the storage interfaces for tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/mailer"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/payments"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
	Err  error
}

func NewUsers() *Users {
	return &Users{byID: map[primitive.ObjectID]models.User{}}
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.byID {
		if u.Email == user.Email {
			return db.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.byID[user.ID] = *user
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Users) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.ResetPasswordToken == tokenHash && u.ResetPasswordUntil != nil && u.ResetPasswordUntil.After(now) {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Users) SetRole(_ context.Context, email, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.byID {
		if u.Email == email {
			u.Role = role
			s.byID[id] = u
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Users) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return db.ErrNotFound
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordUntil = &until
	s.byID[id] = u
	return nil
}

func (s *Users) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Password = passwordHash
	u.ResetPasswordToken = ""
	u.ResetPasswordUntil = nil
	s.byID[id] = u
	return nil
}

// Get returns a copy of the stored user, for assertions.
func (s *Users) Get(id primitive.ObjectID) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

type Products struct {
	mu    sync.Mutex
	items []models.Product
}

func NewProducts(seed ...models.Product) *Products {
	return &Products{items: seed}
}

func (s *Products) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.items = append(s.items, *p)
	return nil
}

func (s *Products) FindByID(_ context.Context, id primitive.ObjectID, activeOnly bool) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.items {
		if p.ID == id && (!activeOnly || p.IsActive) {
			return &p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Products) List(_ context.Context, activeOnly bool) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.items {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Products) Newest(ctx context.Context) (*models.Product, error) {
	list, _ := s.List(ctx, true)
	if len(list) == 0 {
		return nil, db.ErrNotFound
	}
	return &list[0], nil
}

func (s *Products) Patch(_ context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.items {
		if p.ID != id {
			continue
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Images != nil {
			p.Images = *patch.Images
		}
		if patch.Variants != nil {
			p.Variants = *patch.Variants
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}
		s.items[i] = p
		return &p, nil
	}
	return nil, db.ErrNotFound
}

type Orders struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]models.Order
	Writes int
}

func NewOrders() *Orders {
	return &Orders{byID: map[primitive.ObjectID]models.Order{}}
}

func (s *Orders) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ClientOrderID != "" {
		for _, existing := range s.byID {
			if existing.ClientOrderID == o.ClientOrderID {
				return db.ErrDuplicate
			}
		}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.byID[o.ID] = *o
	s.Writes++
	return nil
}

// Put stores an order as-is, for arranging test state.
func (s *Orders) Put(o models.Order) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.byID[o.ID] = o
	return o
}

func (s *Orders) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &o, nil
}

func (s *Orders) FindByClientOrderID(_ context.Context, clientOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byID {
		if o.ClientOrderID == clientOrderID {
			return &o, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Orders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.byID {
		if o.OwnedBy(userID) {
			out = append(out, o)
		}
	}
	sortNewest(out)
	return out, nil
}

func (s *Orders) List(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(f)
	if f.Limit > 0 {
		start := 0
		if f.Page > 1 {
			start = (f.Page - 1) * f.Limit
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (s *Orders) Count(_ context.Context, f models.OrderFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filter(f))), nil
}

func (s *Orders) filter(f models.OrderFilter) []models.Order {
	out := []models.Order{}
	for _, o := range s.byID {
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.ShippingStatus != "" && o.Shipping.Status != f.ShippingStatus {
			continue
		}
		out = append(out, o)
	}
	sortNewest(out)
	return out
}

func (s *Orders) UpdatePayment(_ context.Context, id primitive.ObjectID, upd models.PaymentUpdate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	o.PaymentStatus = upd.Status
	if upd.ProofURL != "" {
		o.PaymentProofURL = upd.ProofURL
	}
	if upd.ProofPublicID != "" {
		o.PaymentProofPublicID = upd.ProofPublicID
	}
	if upd.ProviderPaymentID != "" {
		o.MercadoPagoPaymentID = upd.ProviderPaymentID
	}
	if upd.KeepReview && upd.ClearRejection {
		o.PaymentRejectionReason = ""
	}
	if !upd.KeepReview {
		o.PaymentRejectionReason = upd.RejectionReason
		if upd.ReviewedBy != nil {
			by, at := *upd.ReviewedBy, upd.ReviewedAt
			o.PaymentReviewedBy = &by
			o.PaymentReviewedAt = &at
		} else {
			o.PaymentReviewedBy = nil
			o.PaymentReviewedAt = nil
		}
	}
	o.UpdatedAt = time.Now()
	s.byID[id] = o
	s.Writes++
	return &o, nil
}

func (s *Orders) UpdateFulfilment(_ context.Context, id primitive.ObjectID, shippingStatus, notes *string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if shippingStatus != nil {
		o.Shipping.Status = *shippingStatus
	}
	if notes != nil {
		o.Notes = *notes
	}
	o.UpdatedAt = time.Now()
	s.byID[id] = o
	s.Writes++
	return &o, nil
}

func sortNewest(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}

type Carts struct {
	mu    sync.Mutex
	Saved []models.AbandonedCart
}

func (s *Carts) Create(_ context.Context, cart *models.AbandonedCart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	s.Saved = append(s.Saved, *cart)
	return nil
}

// Proofs records saved and removed proofs without touching disk.
type Proofs struct {
	mu      sync.Mutex
	Saved   []models.StoredFile
	Removed []string
	SaveErr error
}

func (s *Proofs) Save(_ context.Context, _ string, filename, contentType string) (models.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return models.StoredFile{}, s.SaveErr
	}
	id := "payment-proofs/" + primitive.NewObjectID().Hex()
	f := models.StoredFile{
		URL:         "https://files.test/" + id,
		PublicID:    id,
		Filename:    filename,
		ContentType: contentType,
	}
	s.Saved = append(s.Saved, f)
	return f, nil
}

func (s *Proofs) Remove(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, publicID)
	return nil
}

// Outbox collects notifications synchronously.
type Outbox struct {
	mu       sync.Mutex
	Messages []mailer.Message
}

func (o *Outbox) Notify(msg mailer.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Messages = append(o.Messages, msg)
}

func (o *Outbox) Subjects() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.Messages))
	for _, m := range o.Messages {
		out = append(out, m.Subject)
	}
	return out
}

// Provider serves canned Mercado Pago payments by id.
type Provider struct {
	Payments map[string]payments.Payment
	Err      error
	Calls    []string
}

func (p *Provider) GetPayment(_ context.Context, paymentID string) (*payments.Payment, error) {
	p.Calls = append(p.Calls, paymentID)
	if p.Err != nil {
		return nil, p.Err
	}
	pay, ok := p.Payments[paymentID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &pay, nil
}

package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/mailer"
	"github.com/arzan03/storefront/internal/metrics"
	"github.com/arzan03/storefront/internal/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxProofSize is the largest payment proof accepted, in bytes.
const MaxProofSize = 6 << 20

var allowedProofTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// TempFile is an uploaded file already written to local disk.
type TempFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// ValidateProof checks size and declared mime type before anything touches disk.
func ValidateProof(size int64, contentType string) error {
	if size <= 0 {
		return apperror.BadRequest("payment proof file is empty")
	}
	if size > MaxProofSize {
		return apperror.BadRequest(fmt.Sprintf("payment proof must be at most %d MB", MaxProofSize>>20))
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !allowedProofTypes[ct] {
		return apperror.BadRequest("payment proof must be a JPEG, PNG, WEBP or PDF file")
	}
	return nil
}

type PaymentService struct {
	orders     OrderStore
	proofs     ProofStore
	notifier   Notifier
	adminEmail string
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewPaymentService(orders OrderStore, proofs ProofStore, notifier Notifier, adminEmail string, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{
		orders:     orders,
		proofs:     proofs,
		notifier:   notifier,
		adminEmail: adminEmail,
		log:        log,
		now:        time.Now,
	}
}

// UploadProof attaches a transfer receipt to the order and marks it for review.
// The temp file is always removed afterwards.
func (s *PaymentService) UploadProof(ctx context.Context, actor Actor, rawID string, file TempFile) (*models.Order, error) {
	defer s.removeTemp(file.Path)

	if err := ValidateProof(file.Size, file.ContentType); err != nil {
		return nil, err
	}

	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if order.UserID != nil && !order.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, apperror.Forbidden("order belongs to another user")
	}
	if order.PaymentStatus == models.PaymentApproved {
		return nil, apperror.BadRequest("payment already approved")
	}

	stored, err := s.proofs.Save(ctx, file.Path, file.Filename, file.ContentType)
	if err != nil {
		return nil, apperror.Internal(err, "failed to store payment proof")
	}

	updated, err := s.orders.UpdatePayment(ctx, order.ID, models.PaymentUpdate{
		Status:        models.PaymentProofUploaded,
		ProofURL:      stored.URL,
		ProofPublicID: stored.PublicID,
	})
	if err != nil {
		return nil, s.updateErr(err)
	}

	if prev := order.PaymentProofPublicID; prev != "" && prev != stored.PublicID {
		if err := s.proofs.Remove(ctx, prev); err != nil {
			s.log.WithError(err).WithField("public_id", prev).Warn("failed to remove previous payment proof")
		}
	}

	metrics.OrderEvent("proof_uploaded")
	s.log.WithField("order_id", updated.ID.Hex()).Info("payment proof uploaded")
	if s.adminEmail != "" {
		s.notifier.Notify(mailer.ProofReceived(*updated, s.adminEmail))
	}
	return updated, nil
}

// Verify approves the payment. Approving twice returns the order unchanged.
func (s *PaymentService) Verify(ctx context.Context, admin Actor, rawID string) (*models.Order, error) {
	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentApproved {
		return order, nil
	}
	if order.PaymentProofURL == "" {
		return nil, apperror.BadRequest("order has no payment proof to verify")
	}

	reviewer := admin.UserID
	updated, err := s.orders.UpdatePayment(ctx, order.ID, models.PaymentUpdate{
		Status:     models.PaymentApproved,
		ReviewedBy: &reviewer,
		ReviewedAt: s.now(),
	})
	if err != nil {
		return nil, s.updateErr(err)
	}

	metrics.OrderEvent("approved")
	s.log.WithFields(logrus.Fields{"order_id": updated.ID.Hex(), "reviewer": reviewer.Hex()}).Info("payment approved")
	s.notifier.Notify(mailer.PaymentApproved(*updated))
	return updated, nil
}

type RejectInput struct {
	Reason string `json:"reason"`
}

func (s *PaymentService) Reject(ctx context.Context, admin Actor, rawID string, in RejectInput) (*models.Order, error) {
	order, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if order.PaymentProofURL == "" {
		return nil, apperror.BadRequest("order has no payment proof to reject")
	}
	if order.PaymentStatus == models.PaymentApproved {
		return nil, apperror.BadRequest("payment already approved")
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = models.DefaultRejectionReason
	}

	reviewer := admin.UserID
	updated, err := s.orders.UpdatePayment(ctx, order.ID, models.PaymentUpdate{
		Status:          models.PaymentRejected,
		RejectionReason: reason,
		ReviewedBy:      &reviewer,
		ReviewedAt:      s.now(),
	})
	if err != nil {
		return nil, s.updateErr(err)
	}

	metrics.OrderEvent("rejected")
	s.log.WithFields(logrus.Fields{"order_id": updated.ID.Hex(), "reviewer": reviewer.Hex()}).Info("payment rejected")
	s.notifier.Notify(mailer.PaymentRejected(*updated))
	return updated, nil
}

func (s *PaymentService) load(ctx context.Context, rawID string) (*models.Order, error) {
	id, err := parseID(rawID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("order not found")
		}
		return nil, apperror.Internal(err, "failed to load order")
	}
	return order, nil
}

func (s *PaymentService) updateErr(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperror.NotFound("order not found")
	}
	return apperror.Internal(err, "failed to update order")
}

func (s *PaymentService) removeTemp(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).WithField("path", path).Debug("failed to remove temp upload")
	}
}

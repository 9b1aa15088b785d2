package services

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/logger"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/services/memstore"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentFixture struct {
	svc    *PaymentService
	orders *memstore.Orders
	proofs *memstore.Proofs
	outbox *memstore.Outbox
	now    time.Time
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		orders: memstore.NewOrders(),
		proofs: &memstore.Proofs{},
		outbox: &memstore.Outbox{},
		now:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewPaymentService(f.orders, f.proofs, f.outbox, "admin@shop.test", logger.Discard())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func writeTemp(t *testing.T) TempFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.png")
	require.NoError(t, os.WriteFile(path, []byte("fake png"), 0o644))
	return TempFile{Path: path, Filename: "receipt.png", ContentType: "image/png", Size: 8}
}

func TestValidateProof(t *testing.T) {
	assert.NoError(t, ValidateProof(1024, "image/jpeg"))
	assert.NoError(t, ValidateProof(1024, "application/pdf"))
	assert.NoError(t, ValidateProof(MaxProofSize, "image/webp"))
	assert.NoError(t, ValidateProof(10, "IMAGE/PNG; charset=binary"))

	for _, tc := range []struct {
		size int64
		ct   string
	}{
		{0, "image/png"},
		{MaxProofSize + 1, "image/png"},
		{10, "text/plain"},
		{10, "image/gif"},
		{10, ""},
	} {
		err := ValidateProof(tc.size, tc.ct)
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err), "size=%d type=%q", tc.size, tc.ct)
	}
}

func TestUploadProof(t *testing.T) {
	ctx := context.Background()
	owner := Actor{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}

	t.Run("owner uploads proof", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{UserID: &owner.UserID, PaymentStatus: models.PaymentPending})
		tmp := writeTemp(t)

		updated, err := f.svc.UploadProof(ctx, owner, order.ID.Hex(), tmp)
		require.NoError(t, err)

		assert.Equal(t, models.PaymentProofUploaded, updated.PaymentStatus)
		require.Len(t, f.proofs.Saved, 1)
		assert.Equal(t, f.proofs.Saved[0].URL, updated.PaymentProofURL)
		assert.Equal(t, f.proofs.Saved[0].PublicID, updated.PaymentProofPublicID)
		assert.NoFileExists(t, tmp.Path)
		require.Len(t, f.outbox.Messages, 1)
		assert.Equal(t, "admin@shop.test", f.outbox.Messages[0].To)
	})

	t.Run("replacing a proof removes the previous one and clears the rejection", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{
			UserID:                 &owner.UserID,
			PaymentStatus:          models.PaymentRejected,
			PaymentProofURL:        "https://files.test/old",
			PaymentProofPublicID:   "payment-proofs/old",
			PaymentRejectionReason: "blurry",
		})

		updated, err := f.svc.UploadProof(ctx, owner, order.ID.Hex(), writeTemp(t))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentProofUploaded, updated.PaymentStatus)
		assert.Empty(t, updated.PaymentRejectionReason)
		assert.Equal(t, []string{"payment-proofs/old"}, f.proofs.Removed)
	})

	t.Run("another customer is forbidden", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{UserID: &owner.UserID, PaymentStatus: models.PaymentPending})
		stranger := Actor{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}
		tmp := writeTemp(t)

		_, err := f.svc.UploadProof(ctx, stranger, order.ID.Hex(), tmp)
		assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))
		assert.Empty(t, f.proofs.Saved)
		assert.NoFileExists(t, tmp.Path)
	})

	t.Run("admin may upload for any order", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{UserID: &owner.UserID, PaymentStatus: models.PaymentPending})
		admin := Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

		_, err := f.svc.UploadProof(ctx, admin, order.ID.Hex(), writeTemp(t))
		assert.NoError(t, err)
	})

	t.Run("guest orders accept any caller", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentPending})

		_, err := f.svc.UploadProof(ctx, owner, order.ID.Hex(), writeTemp(t))
		assert.NoError(t, err)
	})

	t.Run("approved orders refuse new proofs", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{UserID: &owner.UserID, PaymentStatus: models.PaymentApproved})

		_, err := f.svc.UploadProof(ctx, owner, order.ID.Hex(), writeTemp(t))
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	})

	t.Run("storage failure is internal", func(t *testing.T) {
		f := newPaymentFixture()
		f.proofs.SaveErr = errors.New("bucket gone")
		order := f.orders.Put(models.Order{UserID: &owner.UserID, PaymentStatus: models.PaymentPending})
		tmp := writeTemp(t)

		_, err := f.svc.UploadProof(ctx, owner, order.ID.Hex(), tmp)
		assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))
		assert.NoFileExists(t, tmp.Path)

		stored, _ := f.orders.FindByID(ctx, order.ID)
		assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.svc.UploadProof(ctx, owner, primitive.NewObjectID().Hex(), writeTemp(t))
		assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
	})
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()
	admin := Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	t.Run("approves and stamps the reviewer", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{
			PaymentStatus:          models.PaymentProofUploaded,
			PaymentProofURL:        "https://files.test/p",
			PaymentRejectionReason: "old reason",
		})

		updated, err := f.svc.Verify(ctx, admin, order.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.PaymentApproved, updated.PaymentStatus)
		require.NotNil(t, updated.PaymentReviewedBy)
		assert.Equal(t, admin.UserID, *updated.PaymentReviewedBy)
		require.NotNil(t, updated.PaymentReviewedAt)
		assert.Equal(t, f.now, *updated.PaymentReviewedAt)
		assert.Empty(t, updated.PaymentRejectionReason)
		assert.Len(t, f.outbox.Messages, 1)
	})

	t.Run("second verify changes nothing", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentProofUploaded, PaymentProofURL: "https://files.test/p"})

		first, err := f.svc.Verify(ctx, admin, order.ID.Hex())
		require.NoError(t, err)
		writes := f.orders.Writes

		f.now = f.now.Add(time.Hour)
		second, err := f.svc.Verify(ctx, Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}, order.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, writes, f.orders.Writes)
		assert.Equal(t, *first.PaymentReviewedAt, *second.PaymentReviewedAt)
		assert.Equal(t, *first.PaymentReviewedBy, *second.PaymentReviewedBy)
		assert.Len(t, f.outbox.Messages, 1)
	})

	t.Run("requires a proof", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentPending})

		_, err := f.svc.Verify(ctx, admin, order.ID.Hex())
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	})

	t.Run("bad id", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.svc.Verify(ctx, admin, "xyz")
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
		_, err = f.svc.Verify(ctx, admin, primitive.NewObjectID().Hex())
		assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
	})
}

func TestRejectPayment(t *testing.T) {
	ctx := context.Background()
	admin := Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	t.Run("stores the given reason", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentProofUploaded, PaymentProofURL: "https://files.test/p"})

		updated, err := f.svc.Reject(ctx, admin, order.ID.Hex(), RejectInput{Reason: "  amount does not match "})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRejected, updated.PaymentStatus)
		assert.Equal(t, "amount does not match", updated.PaymentRejectionReason)
		require.NotNil(t, updated.PaymentReviewedBy)
		assert.Equal(t, admin.UserID, *updated.PaymentReviewedBy)
		assert.Len(t, f.outbox.Messages, 1)
	})

	t.Run("falls back to the default reason", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentProofUploaded, PaymentProofURL: "https://files.test/p"})

		updated, err := f.svc.Reject(ctx, admin, order.ID.Hex(), RejectInput{})
		require.NoError(t, err)
		assert.Equal(t, models.DefaultRejectionReason, updated.PaymentRejectionReason)
	})

	t.Run("approved payments stay approved", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentApproved, PaymentProofURL: "https://files.test/p"})

		_, err := f.svc.Reject(ctx, admin, order.ID.Hex(), RejectInput{Reason: "changed my mind"})
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

		stored, _ := f.orders.FindByID(ctx, order.ID)
		assert.Equal(t, models.PaymentApproved, stored.PaymentStatus)
	})

	t.Run("requires a proof", func(t *testing.T) {
		f := newPaymentFixture()
		order := f.orders.Put(models.Order{PaymentStatus: models.PaymentPending})

		_, err := f.svc.Reject(ctx, admin, order.ID.Hex(), RejectInput{})
		assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	})
}

package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arzan03/storefront/internal/logger"
	"github.com/arzan03/storefront/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestNotifierDeliversBeforeClose(t *testing.T) {
	rec := &recordingMailer{}
	n := NewNotifier(rec, 2, logger.Discard())

	for i := 0; i < 10; i++ {
		n.Notify(Message{To: "a@shop.test", Subject: "hi"})
	}
	n.Notify(Message{Subject: "no recipient"})
	n.Close()

	assert.Len(t, rec.sent, 10)
}

func TestNotifierSwallowsFailures(t *testing.T) {
	n := NewNotifier(&recordingMailer{fail: true}, 1, logger.Discard())
	n.Notify(Message{To: "a@shop.test", Subject: "hi"})
	n.Close()
}

type stuckMailer struct {
	release chan struct{}
}

func (m *stuckMailer) Send(ctx context.Context, _ Message) error {
	select {
	case <-m.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestNotifierDoesNotBlockWhenQueueIsFull(t *testing.T) {
	stuck := &stuckMailer{release: make(chan struct{})}
	n := NewNotifier(stuck, 1, logger.Discard())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < notifyQueueSize*2; i++ {
			n.Notify(Message{To: "a@shop.test", Subject: "hi"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(stuck.release)
	n.Close()
}

func TestNotifyAfterClose(t *testing.T) {
	rec := &recordingMailer{}
	n := NewNotifier(rec, 1, logger.Discard())
	n.Close()

	assert.NotPanics(t, func() {
		n.Notify(Message{To: "a@shop.test", Subject: "late"})
	})
	assert.Empty(t, rec.sent)
}

func TestResendMailer(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got["subject"] == "fail" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"bad from"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer("re_key", "Shop <no-reply@shop.test>")
	m.endpoint = srv.URL

	require.NoError(t, m.Send(context.Background(), Message{To: "a@shop.test", Subject: "Hello", Text: "body"}))
	assert.Equal(t, "Bearer re_key", auth)
	assert.Equal(t, "Shop <no-reply@shop.test>", got["from"])
	assert.Equal(t, []any{"a@shop.test"}, got["to"])

	err := m.Send(context.Background(), Message{To: "a@shop.test", Subject: "fail"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestMessages(t *testing.T) {
	o := models.Order{
		ID:            primitive.NewObjectID(),
		Customer:      models.Customer{Name: "Ana", Email: "ana@shop.test"},
		Items:         []models.OrderItem{{Name: "Mate", Price: 100, Quantity: 2}},
		TotalItems:    2,
		TotalAmount:   200,
		PaymentMethod: models.PaymentMethodTransfer,
		CreatedAt:     time.Now(),
	}

	confirm := OrderConfirmation(o)
	assert.Equal(t, "ana@shop.test", confirm.To)
	assert.Contains(t, confirm.Subject, o.ID.Hex())
	assert.Contains(t, confirm.Text, "$200.00")
	assert.Contains(t, confirm.Text, "upload the receipt")

	assert.Equal(t, "admin@shop.test", ProofReceived(o, "admin@shop.test").To)

	o.PaymentRejectionReason = "blurry photo"
	assert.True(t, strings.Contains(PaymentRejected(o).Text, "blurry photo"))

	reset := PasswordReset(models.User{Name: "Ana", Email: "ana@shop.test"}, "https://shop.test/reset-password?token=abc")
	assert.Contains(t, reset.Text, "token=abc")
}

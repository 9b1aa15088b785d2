package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/arzan03/storefront/internal/metrics"
	"github.com/arzan03/storefront/internal/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const resendEndpoint = "https://api.resend.com/emails"

// notifyQueueSize bounds the mail backlog; Notify drops beyond it.
const notifyQueueSize = 64

type Message struct {
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer posts messages to the Resend REST API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]any{
		"from":    m.from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"text":    msg.Text,
	})
	if err != nil {
		return errors.Wrap(err, "encode email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build email request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send email")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("resend responded %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// LogMailer only logs what would have been sent; used when no provider key is set.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("email not sent: no mail provider configured")
	return nil
}

// Notifier sends mail in the background. Failures are logged and dropped.
type Notifier struct {
	mailer  Mailer
	pool    *utils.WorkerPool
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewNotifier(m Mailer, workers int, log logrus.FieldLogger) *Notifier {
	return &Notifier{
		mailer:  m,
		pool:    utils.NewWorkerPool(workers, notifyQueueSize),
		log:     log,
		timeout: 15 * time.Second,
	}
}

func (n *Notifier) Notify(msg Message) {
	if msg.To == "" {
		return
	}
	queued := n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := n.mailer.Send(ctx, msg)
		metrics.MailDelivery(err == nil)
		if err != nil {
			n.log.WithError(err).WithFields(logrus.Fields{
				"to":      msg.To,
				"subject": msg.Subject,
			}).Warn("email delivery failed")
		}
	})
	if !queued {
		metrics.MailDropped()
		n.log.WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
		}).Warn("email dropped: notification queue full or closed")
	}
}

// Close waits for queued emails to finish.
func (n *Notifier) Close() {
	n.pool.Close()
}

package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samandr77/microservices/backoffice/internal/entity"
	"github.com/samandr77/microservices/backoffice/pkg/breaker"
	"github.com/samandr77/microservices/backoffice/pkg/metrics"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=notifier.go -destination=../mocks/alert.go -package=mocks -exclude_interfaces=Breaker

const (
	BreakerName = "send-notification"

	textFormat = ":warning: *Alert Triggered* :warning: <!channel> \n>%s \n <%s|View Details>"
)

// Channel delivers a formatted alert to an operator channel.
type Channel interface {
	Post(ctx context.Context, channel, text string) error
}

type Breaker interface {
	Execute(name string, fn func() error) error
}

type Config struct {
	Channel    string
	DetailsURL string
	Timeout    time.Duration
}

type Notifier struct {
	cfg     Config
	channel Channel
	breaker Breaker
	metrics *metrics.Metrics
}

func New(cfg Config, channel Channel, br Breaker, m *metrics.Metrics) *Notifier {
	return &Notifier{
		cfg:     cfg,
		channel: channel,
		breaker: br,
		metrics: m,
	}
}

// Send posts the alert through the circuit breaker. It returns entity.ErrTemporarilyDisabled
// when the breaker rejects the call.
func (n *Notifier) Send(ctx context.Context, message string) error {
	text := fmt.Sprintf(textFormat, message, n.cfg.DetailsURL)

	err := n.breaker.Execute(BreakerName, func() error {
		ctx := ctx

		if n.cfg.Timeout > 0 {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
			defer cancel()
		}

		return n.channel.Post(ctx, n.cfg.Channel, text)
	})
	if err != nil {
		if errors.Is(err, breaker.ErrBlocked) {
			n.metrics.AlertNotifications.WithLabelValues(metrics.ResultBlocked).Inc()
			return fmt.Errorf("send alert: %w", entity.ErrTemporarilyDisabled)
		}

		n.metrics.AlertNotifications.WithLabelValues(metrics.ResultFailed).Inc()

		return fmt.Errorf("send alert: %w", err)
	}

	n.metrics.AlertNotifications.WithLabelValues(metrics.ResultSent).Inc()

	return nil
}

// Notify is the best-effort variant of Send: failures are logged and dropped.
// Delivery is not bound to the caller's cancellation.
func (n *Notifier) Notify(ctx context.Context, message string) {
	err := n.Send(context.WithoutCancel(ctx), message)
	if err != nil {
		slog.ErrorContext(ctx, "alert notification not sent", "error", err)
	}
}

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	l     *slog.Logger
	w     messageWriter
	topic string
}

func NewProducer(l *slog.Logger, brokers []string, topic string) *Producer {
	l = l.WithGroup("kafka").With("topic", topic)

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Async:                  true,
		Logger:                 &infoLogger{l: l},
		ErrorLogger:            &errorLogger{l: l},
		AllowAutoTopicCreation: true,
	}

	return newProducer(l, w, topic)
}

func newProducer(l *slog.Logger, w messageWriter, topic string) *Producer {
	return &Producer{
		l:     l,
		w:     w,
		topic: topic,
	}
}

type InvoiceSubmittedEvent struct {
	InvoiceID   string    `json:"invoiceId"`
	CreatedBy   string    `json:"createdBy"`
	BillNo      string    `json:"billNo"`
	ProductCode string    `json:"productCode"`
	Amount      string    `json:"amount"`
	IsApproved  bool      `json:"isApproved"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SendInvoiceSubmitted publishes the outcome of a persisted submission.
// Failures are logged only.
func (p *Producer) SendInvoiceSubmitted(ctx context.Context, inv entity.Invoice, reason string) {
	event := InvoiceSubmittedEvent{
		InvoiceID:   inv.ID.String(),
		CreatedBy:   inv.CreatedBy.String(),
		BillNo:      inv.BillNo,
		ProductCode: inv.ProductCode,
		Amount:      inv.Amount.StringFixed(2),
		IsApproved:  inv.IsApproved,
		Reason:      reason,
		CreatedAt:   inv.CreatedAt,
	}

	b, err := json.Marshal(event)
	if err != nil {
		p.l.ErrorContext(ctx, fmt.Sprintf("marshal event: %s", err))
		return
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(inv.CreatedBy.String()),
		Value: b,
		Topic: p.topic,
	})
	if err != nil {
		p.l.ErrorContext(ctx, fmt.Sprintf("write kafka message: %s", err))
		return
	}
}

func (p *Producer) Close() {
	err := p.w.Close()
	if err != nil {
		p.l.Error(fmt.Sprintf("close kafka writer: %s", err))
	}
}

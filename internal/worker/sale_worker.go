package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/brioso-market/internal/metrics"
	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
)

const (
	SaleQueueName  = "sales"
	dlxExchange    = "sales.dlx"
	dlqQueueName   = "sales.dlq"
	idempotencyTTL = 24 * time.Hour
)

// SaleWorker tells sellers about their sales. Each transaction is notified
// at most once per idempotencyTTL.
type SaleWorker struct {
	channel      *amqp.Channel
	transactions repository.TransactionRepository
	users        repository.UserRepository
	redisClient  *redis.Client
	metrics      *metrics.Metrics
	log          *slog.Logger
	done         chan struct{}
}

func NewSaleWorker(
	ch *amqp.Channel,
	transactions repository.TransactionRepository,
	users repository.UserRepository,
	redisClient *redis.Client,
	m *metrics.Metrics,
	log *slog.Logger,
) *SaleWorker {
	return &SaleWorker{
		channel:      ch,
		transactions: transactions,
		users:        users,
		redisClient:  redisClient,
		metrics:      m,
		log:          log,
		done:         make(chan struct{}),
	}
}

// SetupRabbitMQ declares the sales queue with its dead-letter exchange and queue.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, SaleQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(SaleQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": SaleQueueName,
	}); err != nil {
		return fmt.Errorf("declare sale queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *SaleWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(SaleQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("sale worker started")
	return nil
}

func (w *SaleWorker) Stop() { close(w.done) }

func (w *SaleWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var sale model.SaleMessage
	if err := json.Unmarshal(msg.Body, &sale); err != nil || sale.TransactionID == 0 {
		w.log.Error("unmarshal sale message", "error", err)
		w.metrics.RecordSaleNotification("failed")
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("transaction_id", sale.TransactionID, "seller_id", sale.SellerID)

	idempotencyKey := fmt.Sprintf("sale_notified:%d", sale.TransactionID)
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("sale already notified, skipping")
		w.metrics.RecordSaleNotification("duplicate")
		_ = msg.Ack(false)
		return
	}

	if err := w.notify(ctx, log, sale); err != nil {
		log.Error("notify sale failed", "error", err)
		w.metrics.RecordSaleNotification("failed")
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	w.metrics.RecordSaleNotification("notified")
	_ = msg.Ack(false)
}

func (w *SaleWorker) notify(ctx context.Context, log *slog.Logger, sale model.SaleMessage) error {
	t, err := w.transactions.GetByID(ctx, sale.TransactionID)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return fmt.Errorf("transaction not found: %d", sale.TransactionID)
	}
	seller, err := w.users.GetByID(ctx, t.SellerID)
	if err != nil {
		return fmt.Errorf("get seller: %w", err)
	}
	if seller == nil {
		return fmt.Errorf("seller not found: %d", t.SellerID)
	}

	log.Info("sale notified",
		"seller_email", seller.Email,
		"product_id", t.ProductID,
		"quantity", t.Quantity,
		"total", t.TotalPrice.StringFixed(2),
		"payment_method", t.PaymentMethod,
	)
	return nil
}

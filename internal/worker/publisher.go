package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/brioso-market/internal/model"
)

// AMQPPublisher sends sale messages to the sales queue on the default exchange.
type AMQPPublisher struct {
	channel *amqp.Channel
}

func NewAMQPPublisher(ch *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{channel: ch}
}

func (p *AMQPPublisher) PublishSale(ctx context.Context, msg model.SaleMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode sale message: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", SaleQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.MessageID,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish sale %d: %w", msg.TransactionID, err)
	}
	return nil
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"pdfqa/internal/model"
)

// AnswerLogPublisher publishes generated answers to the audit queue. The
// answer-log worker drains the queue into MySQL, keeping DB writes off the
// request path.
type AnswerLogPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewAnswerLogPublisher(conn *amqp.Connection, queueName string) *AnswerLogPublisher {
	return &AnswerLogPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *AnswerLogPublisher) Publish(ctx context.Context, rec model.AnswerRecord) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal answer record failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish answer record failed: %w", err)
	}
	return nil
}

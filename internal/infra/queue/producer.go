package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
)

// LeadAssignedPayload is published once per lead created with an agent.
type LeadAssignedPayload struct {
	RunID     string `json:"run_id"`
	LeadID    int64  `json:"lead_id"`
	LeadName  string `json:"lead_name,omitempty"`
	LeadEmail string `json:"lead_email,omitempty"`
	LeadPhone string `json:"lead_phone,omitempty"`
	LeadCity  string `json:"lead_city,omitempty"`
	Source    string `json:"source"`

	AgentID    int64  `json:"agent_id"`
	AgentName  string `json:"agent_name"`
	AgentEmail string `json:"agent_email,omitempty"`
}

// ChannelPublisher is the part of *amqp.Channel the producer needs.
type ChannelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch ChannelPublisher
}

func NewProducer(ch ChannelPublisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadAssigned(ctx context.Context, payload LeadAssignedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "queue: marshal lead assigned payload")
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return eris.Wrap(err, "queue: publish lead assigned")
	}

	return nil
}

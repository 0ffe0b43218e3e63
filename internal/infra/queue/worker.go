package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CRMClient mirrors an assigned lead into the external CRM.
type CRMClient interface {
	SyncAssignedLead(ctx context.Context, payload LeadAssignedPayload) (int, error)
}

// AgentNotifier tells the agent a lead landed in their queue.
type AgentNotifier interface {
	SendLeadAssigned(payload LeadAssignedPayload) error
}

// Consumer is the part of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel  Consumer
	CRM      CRMClient
	Notifier AgentNotifier

	// OnIntegrationError, when set, is called with "crm" or "mail" each time
	// one of the downstream calls fails.
	OnIntegrationError func(service string)
}

// NewWorker accepts nil collaborators; the matching step is skipped.
func NewWorker(ch Consumer, crm CRMClient, notifier AgentNotifier) *Worker {
	return &Worker{
		Channel:  ch,
		CRM:      crm,
		Notifier: notifier,
	}
}

// Start consumes queueName until ctx is done or the delivery channel closes.
// A closed channel (broker restart, connection loss) ends the worker without
// an error so callers sharing its lifetime keep running.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return eris.Wrap(err, "queue: register consumer")
	}

	zap.L().Info("assignment worker consuming", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("assignment worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				zap.L().Warn("assignment worker stopped: delivery channel closed", zap.String("queue", queueName))
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var payload LeadAssignedPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		zap.L().Error("malformed lead assigned message", zap.Error(err))
		// Rejected without requeue so it lands in the DLQ.
		d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, payload); err != nil {
		zap.L().Error("lead assigned message failed",
			zap.Int64("lead_id", payload.LeadID),
			zap.Error(err),
		)
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

// processMessage pushes to the CRM first; the email is best effort.
func (w *Worker) processMessage(ctx context.Context, payload LeadAssignedPayload) error {
	log := zap.L().With(zap.Int64("lead_id", payload.LeadID), zap.Int64("agent_id", payload.AgentID))

	if w.CRM != nil {
		crmID, err := w.CRM.SyncAssignedLead(ctx, payload)
		if err != nil {
			w.integrationError("crm")
			return eris.Wrap(err, "queue: sync lead to crm")
		}
		log.Info("lead mirrored to crm", zap.Int("crm_lead_id", crmID))
	}

	if w.Notifier != nil && payload.AgentEmail != "" {
		if err := w.Notifier.SendLeadAssigned(payload); err != nil {
			w.integrationError("mail")
			log.Warn("failed to email assigned agent", zap.Error(err))
		}
	}

	return nil
}

func (w *Worker) integrationError(service string) {
	if w.OnIntegrationError != nil {
		w.OnIntegrationError(service)
	}
}

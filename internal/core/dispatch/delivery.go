package dispatch

import (
	"context"
	"fmt"

	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// DeliveryTracker fans a completed run out to its subscribers and keeps
// the append-only ledger of every attempt.
type DeliveryTracker struct {
	ledger        ports.DeliveryLedger
	emailProvider ports.EmailProvider
	renderer      ports.MessageRenderer
	metrics       ports.MetricsCollector
	clock         ports.Clock
	logger        ports.Logger
}

type DeliveryTrackerDependencies struct {
	Ledger        ports.DeliveryLedger
	EmailProvider ports.EmailProvider
	Renderer      ports.MessageRenderer
	Metrics       ports.MetricsCollector
	Clock         ports.Clock
	Logger        ports.Logger
}

func NewDeliveryTracker(deps DeliveryTrackerDependencies) (*DeliveryTracker, error) {
	if deps.Ledger == nil {
		return nil, errors.NewValidationError("delivery ledger is required")
	}
	if deps.EmailProvider == nil {
		return nil, errors.NewValidationError("email provider is required")
	}
	if deps.Renderer == nil {
		return nil, errors.NewValidationError("message renderer is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics collector is required")
	}
	if deps.Clock == nil {
		return nil, errors.NewValidationError("clock is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}

	return &DeliveryTracker{
		ledger:        deps.Ledger,
		emailProvider: deps.EmailProvider,
		renderer:      deps.Renderer,
		metrics:       deps.Metrics,
		clock:         deps.Clock,
		logger:        deps.Logger,
	}, nil
}

// DeliverRun sends the run to every subscriber in order, one ledger row per attempt.
// A render or send failure only affects that subscriber. A ledger write failure
// stops the batch and is returned together with the partial summary.
//
// Sends and ledger writes are detached from ctx cancellation: once a run is
// completed its batch runs to the end.
func (t *DeliveryTracker) DeliverRun(ctx context.Context, run *ports.RunData, subscribers []*ports.SubscriberData) (DeliverySummary, error) {
	var summary DeliverySummary
	if run == nil {
		return summary, errors.NewValidationError("run is required")
	}

	workCtx := context.WithoutCancel(ctx)

	for _, sub := range subscribers {
		delivery := t.attempt(workCtx, run, sub)

		if err := t.ledger.Append(workCtx, delivery); err != nil {
			t.logger.Error("Failed to record delivery",
				ports.F("error", err),
				ports.F("run_id", run.ID),
				ports.F("subscriber_id", sub.ID),
				ports.F("status", delivery.Status))
			return summary, fmt.Errorf("record delivery for subscriber %d: %w", sub.ID, err)
		}

		t.metrics.RecordDelivery(workCtx, delivery.Status)
		if delivery.Status == ports.DeliveryStatusSent {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}

	t.logger.Info("Run delivered",
		ports.F("run_id", run.ID),
		ports.F("run_date", run.RunDate),
		ports.F("sent", summary.Sent),
		ports.F("failed", summary.Failed))

	return summary, nil
}

func (t *DeliveryTracker) attempt(ctx context.Context, run *ports.RunData, sub *ports.SubscriberData) *ports.DeliveryData {
	delivery := &ports.DeliveryData{
		DailyRunID:   run.ID,
		SubscriberID: sub.ID,
	}

	rendered, err := t.renderer.DailyMessage(run, sub.UnsubscribeToken)
	if err != nil {
		return t.failed(delivery, sub, fmt.Errorf("render daily message: %w", err))
	}

	messageID, err := t.emailProvider.SendEmail(ctx, ports.EmailMessage{
		To:       sub.Email,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	})
	if err != nil {
		return t.failed(delivery, sub, err)
	}

	sentAt := t.clock.Now()
	delivery.Status = ports.DeliveryStatusSent
	delivery.MessageID = messageID
	delivery.SentAt = &sentAt

	t.logger.Debug("Daily message sent",
		ports.F("email", sub.Email),
		ports.F("run_id", run.ID),
		ports.F("message_id", messageID))

	return delivery
}

func (t *DeliveryTracker) failed(delivery *ports.DeliveryData, sub *ports.SubscriberData, err error) *ports.DeliveryData {
	t.logger.Warn("Daily message not delivered",
		ports.F("error", err),
		ports.F("email", sub.Email),
		ports.F("run_id", delivery.DailyRunID))

	delivery.Status = ports.DeliveryStatusFailed
	delivery.Error = err.Error()
	return delivery
}

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
	"plotlines.app/pkg/validation"
)

// SeedRequest describes one subscriber to load by hand
type SeedRequest struct {
	Email            string
	StationCode      string
	AuthorKey        string
	City             string
	State            string
	Latitude         *float64
	Longitude        *float64
	Confirmed        bool
	SendConfirmation bool
}

// SeedSubscriber stores a subscriber, makes sure its combination exists and,
// for unconfirmed subscribers, optionally mails the confirmation link.
func (c *DependencyContainer) SeedSubscriber(ctx context.Context, request SeedRequest) (*ports.SubscriberData, error) {
	email, ok := validation.TrimAndValidate(request.Email)
	if !ok {
		return nil, errors.NewValidationError("email is required")
	}
	if _, ok := c.authors.Lookup(request.AuthorKey); !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown author %q", request.AuthorKey))
	}

	p := c.ports
	sub := &ports.SubscriberData{
		Email:       email,
		City:        request.City,
		State:       request.State,
		StationCode: strings.ToUpper(strings.TrimSpace(request.StationCode)),
		AuthorKey:   request.AuthorKey,
		Active:      true,
	}
	if request.Confirmed {
		confirmedAt := p.Clock.Now()
		sub.ConfirmedAt = &confirmedAt
	}

	if err := p.SubscriberRepository.Save(ctx, sub); err != nil {
		return nil, err
	}

	combination, err := p.CombinationRepository.Ensure(ctx, &ports.CombinationData{
		StationCode: sub.StationCode,
		AuthorKey:   sub.AuthorKey,
		City:        request.City,
		State:       request.State,
		Latitude:    request.Latitude,
		Longitude:   request.Longitude,
	})
	if err != nil {
		return nil, err
	}

	p.Logger.Info("Subscriber seeded",
		ports.F("subscriber_id", sub.ID),
		ports.F("combination_id", combination.ID),
		ports.F("station", combination.StationCode),
		ports.F("author", combination.AuthorKey),
		ports.F("confirmed", request.Confirmed))

	if request.SendConfirmation && !request.Confirmed {
		if err := c.sendConfirmation(ctx, sub); err != nil {
			return sub, err
		}
	}

	return sub, nil
}

func (c *DependencyContainer) sendConfirmation(ctx context.Context, sub *ports.SubscriberData) error {
	p := c.ports

	rendered, err := p.MessageRenderer.ConfirmationMessage(sub.ConfirmToken)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	messageID, err := p.EmailProvider.SendEmail(sendCtx, ports.EmailMessage{
		To:       sub.Email,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	})
	if err != nil {
		return errors.NewEmailError("failed to send confirmation email", err)
	}

	p.Logger.Info("Confirmation email sent", ports.F("subscriber_id", sub.ID), ports.F("message_id", messageID))
	return nil
}

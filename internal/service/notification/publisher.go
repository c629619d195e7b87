package notification

import (
	"context"
	"fmt"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/pkg/messaging"
)

// EventCreated is the message type published for every stored notification.
const EventCreated = "notification.created"

// Publisher fans a stored notification out to realtime consumers.
type Publisher interface {
	Publish(ctx context.Context, n *model.Notification) error
}

// BrokerPublisher publishes notifications as messaging envelopes.
type BrokerPublisher struct {
	broker  messaging.Broker
	channel string
}

func NewBrokerPublisher(broker messaging.Broker, channel string) *BrokerPublisher {
	return &BrokerPublisher{broker: broker, channel: channel}
}

func (p *BrokerPublisher) Publish(ctx context.Context, n *model.Notification) error {
	msg, err := messaging.NewMessage(EventCreated, n)
	if err != nil {
		return err
	}
	if err := p.broker.Publish(ctx, p.channel, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}

package endpoint

import (
	"context"
	"time"

	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/pubsub/transport"
	"github.com/pkg/errors"
)

type AmqpEndpoint struct {
	amqpTransport transport.Transport
	destination   transport.DeliveryDestination
	msgMarshaller message.Marshaller
	name          string
}

func NewAmqpEndpoint(name string, amqpTransport transport.Transport, destination transport.DeliveryDestination, msgMarshaller message.Marshaller) Endpoint {
	return &AmqpEndpoint{name: name, amqpTransport: amqpTransport, destination: destination, msgMarshaller: msgMarshaller}
}

func (a AmqpEndpoint) Name() string {
	return a.name
}

func (a AmqpEndpoint) Send(ctx context.Context, msg *message.OutcomingMessage, opts ...DeliveryOption) error {
	deliveryOpts := &deliveryOptions{}

	for _, opt := range opts {
		if err := opt(deliveryOpts); err != nil {
			return errors.Wrapf(err, "compiling delivery options for message %s", msg.UID())
		}
	}

	dataToSend, err := a.msgMarshaller.Marshal(msg.Payload())

	if err != nil {
		return errors.Wrapf(err, "serializing message %s", msg.UID())
	}

	headers := make(map[string]interface{}, len(msg.Headers())+1)
	for k, v := range msg.Headers() {
		headers[k] = v
	}
	headers["uid"] = msg.UID()

	toSend := transport.NewOutboundPkg(dataToSend, "application/json", a.destination, headers)

	if deliveryOpts.delay != nil {
		select {
		case <-ctx.Done():
			return errors.Errorf("failed to send message %s, parent ctx closed while waiting for the delay", msg.UID())
		case <-time.After(*deliveryOpts.delay):
		}
	}

	return a.amqpTransport.Send(ctx, toSend)
}

package execution

import (
	"context"

	"github.com/pawshelter/adoption/log"
	"github.com/pawshelter/adoption/pubsub/endpoint"
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../../testing/mocks/pubsub/message/execution/context.go -package execution . MessageExecutionCtx,MessageExecutionCtxFactory

// MessageExecutionCtx is passed to every executor. It carries the received message,
// the per-message context and knows how to send out or return a message.
type MessageExecutionCtx interface {
	// Message returns the received message
	Message() *message.ReceivedMessage
	// Context returns the per-message processing context
	Context() context.Context
	// Send sends an outcoming message to registered endpoints
	Send(message *message.OutcomingMessage, options ...endpoint.DeliveryOption) error
	// Return sends the received message out again and increments the returns counter in headers
	Return(options ...endpoint.DeliveryOption) error
	// Logger returns a logger carrying the message uid as a field
	Logger() log.Logger
}

type messageExecutionCtx struct {
	ctx     context.Context
	message *message.ReceivedMessage
	router  endpoint.Router
	logger  log.Logger
}

func (m messageExecutionCtx) Context() context.Context {
	return m.ctx
}

func (m messageExecutionCtx) Send(msg *message.OutcomingMessage, options ...endpoint.DeliveryOption) error {
	endpoints := m.router.Route(msg.Payload())

	if len(endpoints) == 0 {
		m.logger.Logf(log.WarnLevel, "no endpoints defined for message %s", msg.UID())
		return nil
	}

	for _, endp := range endpoints {
		if err := endp.Send(m.ctx, msg, options...); err != nil {
			m.logger.Logf(log.ErrorLevel, "error sending message %s. %s", msg.UID(), err)
			return errors.WithStack(err)
		}
	}

	return nil
}

func (m messageExecutionCtx) Return(options ...endpoint.DeliveryOption) error {
	outcomingMsg := message.FromReceivedMsg(m.message)
	outcomingMsg.Headers().RegisterReturn()

	if err := m.Send(outcomingMsg, options...); err != nil {
		return errors.Wrapf(err, "returning message %s", outcomingMsg.UID())
	}

	return nil
}

func (m messageExecutionCtx) Message() *message.ReceivedMessage {
	return m.message
}

func (m messageExecutionCtx) Logger() log.Logger {
	return m.logger
}

type MessageExecutionCtxFactory interface {
	CreateCtx(ctx context.Context, message *message.ReceivedMessage) MessageExecutionCtx
}

type messageExecutionCtxFactory struct {
	router endpoint.Router
	logger log.Logger
}

func NewMessageExecutionCtxFactory(router endpoint.Router, logger log.Logger) MessageExecutionCtxFactory {
	return &messageExecutionCtxFactory{router: router, logger: logger}
}

func (m messageExecutionCtxFactory) CreateCtx(ctx context.Context, msg *message.ReceivedMessage) MessageExecutionCtx {
	fields := []log.Field{{Name: "mid", Val: msg.UID()}}

	return &messageExecutionCtx{ctx: ctx, message: msg, router: m.router, logger: m.logger.WithFields(fields)}
}

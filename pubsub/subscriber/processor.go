package subscriber

import (
	"context"
	"fmt"

	"github.com/pawshelter/adoption/log"
	msgDispatcher "github.com/pawshelter/adoption/pubsub/dispatcher"
	busErrs "github.com/pawshelter/adoption/pubsub/errors"
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/pubsub/message/execution"
	"github.com/pawshelter/adoption/pubsub/transport"
	"github.com/pkg/errors"
)

const maxReturns = 10

type Processor interface {
	Process(ctx context.Context, inPkg transport.IncomingPkg) error
}

type processor struct {
	logger            log.Logger
	decoder           message.Decoder
	dispatcher        msgDispatcher.Dispatcher
	msgExecCtxFactory execution.MessageExecutionCtxFactory
}

func NewMessageProcessor(decoder message.Decoder, msgExecCtxFactory execution.MessageExecutionCtxFactory, dispatcher msgDispatcher.Dispatcher, logger log.Logger) Processor {
	return &processor{decoder: decoder, msgExecCtxFactory: msgExecCtxFactory, dispatcher: dispatcher, logger: logger}
}

func (p *processor) Process(ctx context.Context, inPkg transport.IncomingPkg) error {
	msg, err := p.decoder.Decode(inPkg)
	if err != nil {
		p.logger.Logf(log.ErrorLevel, "failed to decode IncomingPkg into Message. %s", err)
		return errors.WithStack(err)
	}

	if msg.Headers().ReturnsCount() >= maxReturns {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("message %s was returned more than %d times, dropping", msg.UID(), maxReturns))
	}

	executors := p.dispatcher.Match(msg.Payload())

	if len(executors) == 0 {
		errMsg := fmt.Sprintf("no executors defined for message %s of kind %s", msg.UID(), msg.Payload().GroupKind())
		p.logger.Log(log.ErrorLevel, errMsg)
		return WithNoExecutorsDefinedErr(errors.New(errMsg))
	}

	execCtx := p.msgExecCtxFactory.CreateCtx(ctx, msg)

	for _, exec := range executors {
		if err := exec(execCtx); err != nil {
			return errors.Wrapf(err, "executing message %s of kind %s", msg.UID(), msg.Payload().GroupKind())
		}
	}

	return nil
}

type NoExecutorsDefinedErr struct {
	error
}

func WithNoExecutorsDefinedErr(err error) error {
	return &NoExecutorsDefinedErr{err}
}

package handlers

import (
	"github.com/pkg/errors"

	"github.com/pawshelter/adoption/log"
	busErrs "github.com/pawshelter/adoption/pubsub/errors"
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/pubsub/message/execution"
	sagaPkg "github.com/pawshelter/adoption/saga"
)

// maxApplyAttempts bounds reloading an instance after a concurrent writer bumped its version
const maxApplyAttempts = 3

func NewEventsHandler(store sagaPkg.Store, machine *sagaPkg.Machine, correlationSvc sagaPkg.CorrelationService, logger log.Logger) *EventsHandler {
	return &EventsHandler{store: store, machine: machine, correlationSvc: correlationSvc, logger: logger}
}

// EventsHandler drives an adoption instance through its transitions: it loads the
// instance by correlation id, lets the machine decide, persists the mutated state
// under the version guard and only then sends whatever the transition produced.
type EventsHandler struct {
	store          sagaPkg.Store
	machine        *sagaPkg.Machine
	correlationSvc sagaPkg.CorrelationService
	logger         log.Logger
}

func (e EventsHandler) Handle(execCtx execution.MessageExecutionCtx) error {
	ctx := execCtx.Context()
	msg := execCtx.Message()
	logger := execCtx.Logger()

	correlationID, err := e.correlationSvc.ExtractCorrelationID(msg)
	if err != nil {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Wrapf(err, "extracting adoption id from message %s", msg.UID()))
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		instance, err := e.store.GetByCorrelationID(ctx, correlationID)
		if err != nil {
			return errors.Wrapf(err, "retrieving adoption %s from store", correlationID)
		}

		if instance == nil {
			return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("adoption %s not found, discarding message %s", correlationID, msg.UID()))
		}

		outcome := e.machine.Handle(instance, msg.Payload())

		switch outcome.Result {
		case sagaPkg.ResultDuplicateIgnored, sagaPkg.ResultRejectedTerminal:
			// the state write and the sends are not atomic: a crash in between leaves
			// the instance advanced with its deliveries lost, and the broker redelivers
			// the trigger. Re-derive and re-send them before absorbing the message.
			if recovered := e.machine.Recover(instance, msg.Payload()); len(recovered) > 0 {
				logger.Logf(log.InfoLevel, "message %s was already applied to adoption %s, re-sending its deliveries", msg.UID(), correlationID)
				return e.sendDeliveries(execCtx, correlationID, recovered)
			}

			if outcome.Result == sagaPkg.ResultRejectedTerminal {
				return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("adoption %s already finalized as %s", correlationID, instance.Status))
			}

			logger.Logf(log.DebugLevel, "message %s does not advance adoption %s in status %s, ignoring", msg.UID(), correlationID, instance.Status)
			return nil
		case sagaPkg.ResultRejectedUnauthorized:
			return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("actor of message %s is not a participant of adoption %s", msg.UID(), correlationID))
		}

		if err := e.store.Update(ctx, instance); err != nil {
			if errors.Cause(err) == sagaPkg.ErrVersionConflict {
				logger.Logf(log.InfoLevel, "adoption %s changed concurrently, reloading", correlationID)
				continue
			}

			return errors.Wrapf(err, "saving adoption %s state to store", correlationID)
		}

		if err := e.sendDeliveries(execCtx, correlationID, outcome.Deliveries); err != nil {
			return err
		}

		logger.Logf(log.InfoLevel, "adoption %s moved to status %s", correlationID, instance.Status)

		return nil
	}

	return errors.Errorf("giving up on message %s for adoption %s after %d attempts", msg.UID(), correlationID, maxApplyAttempts)
}

func (e EventsHandler) sendDeliveries(execCtx execution.MessageExecutionCtx, correlationID string, deliveries []message.Object) error {
	msg := execCtx.Message()

	for _, delivery := range deliveries {
		e.correlationSvc.AddCorrelationID(msg.Headers(), correlationID)
		outcomingMsg := message.NewOutcomingMessage(delivery, message.WithHeaders(msg.Headers()))

		if err := execCtx.Send(outcomingMsg); err != nil {
			return errors.Wrapf(err, "sending delivery %s for adoption %s", delivery.GroupKind(), correlationID)
		}
	}

	return nil
}

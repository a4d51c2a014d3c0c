package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pawshelter/adoption/log"
	busErrs "github.com/pawshelter/adoption/pubsub/errors"
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/pubsub/message/execution"
	sagaPkg "github.com/pawshelter/adoption/saga"
	"github.com/pawshelter/adoption/saga/contracts"
)

func NewControlHandler(store sagaPkg.Store, correlationSvc sagaPkg.CorrelationService) *ControlHandler {
	return &ControlHandler{store: store, correlationSvc: correlationSvc, now: time.Now}
}

// ControlHandler processes StartAdoption commands: it guards against a second
// active adoption for the same pet, persists a fresh instance and asks the
// pets service to reserve the pet.
type ControlHandler struct {
	store          sagaPkg.Store
	correlationSvc sagaPkg.CorrelationService
	now            func() time.Time
}

func (h ControlHandler) Handle(execCtx execution.MessageExecutionCtx) error {
	ctx := execCtx.Context()
	msg := execCtx.Message()
	logger := execCtx.Logger()

	cmd, ok := msg.Payload().(*contracts.StartAdoption)
	if !ok {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("got message %s of type %s, expected %s", msg.UID(), msg.Payload().GroupKind(), (&contracts.StartAdoption{}).GroupKind()))
	}

	if cmd.PetID == "" || cmd.VolunteerID == "" || cmd.AdopterID == "" {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("start command %s misses pet, volunteer or adopter id", msg.UID()))
	}

	active, err := h.store.GetActiveByPetID(ctx, cmd.PetID)
	if err != nil {
		return errors.Wrapf(err, "looking up active adoption for pet %s", cmd.PetID)
	}

	if active != nil {
		// a redelivered start for the same adopter resumes the reservation
		// request instead of conflicting with its own instance
		if active.Status == sagaPkg.StatusInitiated && active.AdopterID == cmd.AdopterID {
			logger.Logf(log.InfoLevel, "start command %s repeats adoption %s, requesting reservation again", msg.UID(), active.CorrelationID)
			return h.requestReservation(execCtx, active)
		}

		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("pet %s already has an adoption %s in progress", cmd.PetID, active.CorrelationID))
	}

	instance := sagaPkg.NewInstance(uuid.New().String(), cmd, h.now())

	if err := h.store.Create(ctx, instance); err != nil {
		return errors.Wrapf(err, "saving adoption %s for pet %s to store", instance.CorrelationID, cmd.PetID)
	}

	logger.Logf(log.DebugLevel, "adoption %s created in store", instance.CorrelationID)

	return h.requestReservation(execCtx, instance)
}

func (h ControlHandler) requestReservation(execCtx execution.MessageExecutionCtx, instance *sagaPkg.Instance) error {
	headers := execCtx.Message().Headers()
	h.correlationSvc.AddCorrelationID(headers, instance.CorrelationID)

	reserveCmd := &contracts.ReservePet{
		CorrelationUID: instance.CorrelationID,
		PetID:          instance.PetID,
	}

	if err := execCtx.Send(message.NewOutcomingMessage(reserveCmd, message.WithHeaders(headers))); err != nil {
		return errors.Wrapf(err, "sending reservation request for adoption %s", instance.CorrelationID)
	}

	return nil
}

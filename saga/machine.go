package saga

import (
	"reflect"
	"time"

	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/runtime/scheme"
	"github.com/pawshelter/adoption/saga/contracts"
)

// Result tells the caller what happened to the instance when a message was handled
type Result int

const (
	// ResultApplied means the transition was taken and the instance mutated
	ResultApplied Result = iota
	// ResultDuplicateIgnored means the message does not match a valid transition from the
	// current status and is absorbed as a duplicate or late delivery
	ResultDuplicateIgnored
	// ResultRejectedUnauthorized means the actor is neither the recorded adopter nor the
	// assigned volunteer, the instance was not mutated
	ResultRejectedUnauthorized
	// ResultRejectedTerminal means the attempt was already finalized by a competing
	// confirm or reject, the instance was not mutated
	ResultRejectedTerminal
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultDuplicateIgnored:
		return "duplicate-ignored"
	case ResultRejectedUnauthorized:
		return "rejected-unauthorized"
	case ResultRejectedTerminal:
		return "rejected-terminal"
	}
	return "unknown"
}

// Outcome is what Handle produces: a result code and the outbound commands of the
// taken transition. Side effects are observable only through these and the mutated instance.
type Outcome struct {
	Result     Result
	Deliveries []message.Object
}

const (
	defaultRejectReason   = "rejected by participant"
	deadlineElapsedReason = "confirmation deadline elapsed"
)

type action func(inst *Instance, msg message.Object) []message.Object

type transition struct {
	from  Status
	apply action
}

// Machine is the adoption attempt state machine. It performs no I/O: the caller loads
// the instance, lets the machine mutate it and persists the result together with
// sending out the deliveries.
type Machine struct {
	transitions map[reflect.Type]transition
	now         func() time.Time
}

type MachineOpt func(m *Machine)

// WithClock replaces the wall clock, used in tests
func WithClock(now func() time.Time) MachineOpt {
	return func(m *Machine) {
		m.now = now
	}
}

func NewMachine(opts ...MachineOpt) *Machine {
	m := &Machine{now: time.Now}

	for _, opt := range opts {
		opt(m)
	}

	m.transitions = map[reflect.Type]transition{
		kindOf(&contracts.PetReserved{}): {
			from:  StatusInitiated,
			apply: m.petReserved,
		},
		kindOf(&contracts.PetReservationFailed{}): {
			from:  StatusInitiated,
			apply: m.reservationFailed,
		},
		kindOf(&contracts.ChatCreated{}): {
			from:  StatusChatCreationPending,
			apply: m.chatCreated,
		},
		kindOf(&contracts.ChatCreationFailed{}): {
			from:  StatusChatCreationPending,
			apply: m.chatCreationFailed,
		},
		kindOf(&contracts.ConfirmAdoption{}): {
			from:  StatusAwaitingConfirmation,
			apply: m.confirmed,
		},
		kindOf(&contracts.RejectAdoption{}): {
			from:  StatusAwaitingConfirmation,
			apply: m.rejected,
		},
		kindOf(&contracts.ConfirmationDeadlineElapsed{}): {
			from:  StatusAwaitingConfirmation,
			apply: m.deadlineElapsed,
		},
	}

	return m
}

// Handle applies a correlated message to the instance. Authorization is checked before
// the state guard, so a foreign actor gets unauthorized even on a finalized attempt.
func (m *Machine) Handle(inst *Instance, payload message.Object) Outcome {
	if actorID, protected := actorOf(payload); protected {
		if !inst.Participant(actorID) {
			return Outcome{Result: ResultRejectedUnauthorized}
		}

		if inst.Terminal() {
			return Outcome{Result: ResultRejectedTerminal}
		}
	}

	t, known := m.transitions[scheme.GetStructType(payload)]

	if !known || t.from != inst.Status {
		return Outcome{Result: ResultDuplicateIgnored}
	}

	deliveries := t.apply(inst, payload)
	inst.UpdatedAt = m.now()

	return Outcome{Result: ResultApplied, Deliveries: deliveries}
}

// Recover re-derives the deliveries of a transition the payload had already taken.
// When Update commits but the sends are lost, the broker redelivers the message and
// Handle absorbs it without deliveries, so the caller asks Recover for what still has
// to go out. The match is message kind against the status its transition leads to;
// anything else, including a competing decision, recovers nothing. All re-derived
// commands are idempotent at their capability, repeating a delivered one is safe.
func (m *Machine) Recover(inst *Instance, payload message.Object) []message.Object {
	switch payload.(type) {
	case *contracts.PetReserved:
		if inst.Status == StatusChatCreationPending {
			return m.createChat(inst)
		}
	case *contracts.ConfirmAdoption:
		if inst.Status == StatusCompleted {
			return m.adopt(inst)
		}
	case *contracts.RejectAdoption:
		if inst.Status == StatusRejected {
			return m.compensate(inst)
		}
	case *contracts.ChatCreationFailed, *contracts.ConfirmationDeadlineElapsed:
		if inst.Status == StatusFailed {
			return m.compensate(inst)
		}
	}

	return nil
}

func (m *Machine) petReserved(inst *Instance, msg message.Object) []message.Object {
	inst.Status = StatusPetReserved

	// the chat-creation step follows immediately, the intermediate status is never
	// left to wait for an external message
	inst.Status = StatusChatCreationPending

	return m.createChat(inst)
}

func (m *Machine) createChat(inst *Instance) []message.Object {
	return []message.Object{
		&contracts.CreateAdoptionChat{
			CorrelationUID: inst.CorrelationID,
			PetID:          inst.PetID,
			PetNickname:    inst.PetNickname,
			Participants:   []string{inst.AdopterID, inst.VolunteerID},
		},
	}
}

func (m *Machine) reservationFailed(inst *Instance, msg message.Object) []message.Object {
	ev := msg.(*contracts.PetReservationFailed)

	// nothing was reserved, there is nothing to compensate
	inst.fail(ev.Reason, m.now())

	return nil
}

func (m *Machine) chatCreated(inst *Instance, msg message.Object) []message.Object {
	ev := msg.(*contracts.ChatCreated)

	if inst.ChatID == nil {
		chatID := ev.ChatID
		inst.ChatID = &chatID
	}
	inst.Status = StatusAwaitingConfirmation

	return nil
}

func (m *Machine) chatCreationFailed(inst *Instance, msg message.Object) []message.Object {
	ev := msg.(*contracts.ChatCreationFailed)

	inst.fail(ev.Reason, m.now())

	return m.compensate(inst)
}

func (m *Machine) confirmed(inst *Instance, msg message.Object) []message.Object {
	inst.Status = StatusCompleted

	return m.adopt(inst)
}

func (m *Machine) adopt(inst *Instance) []message.Object {
	return []message.Object{
		&contracts.AdoptPet{CorrelationUID: inst.CorrelationID, PetID: inst.PetID},
	}
}

func (m *Machine) rejected(inst *Instance, msg message.Object) []message.Object {
	cmd := msg.(*contracts.RejectAdoption)

	reason := cmd.Reason
	if reason == "" {
		reason = defaultRejectReason
	}

	inst.Status = StatusRejected
	inst.setFailureReason(reason)

	return m.compensate(inst)
}

func (m *Machine) deadlineElapsed(inst *Instance, msg message.Object) []message.Object {
	inst.fail(deadlineElapsedReason, m.now())

	return m.compensate(inst)
}

// compensate undoes the reservation. Every path into a failure-terminal status past the
// reservation step goes through here, so the unreserve command is emitted exactly once.
func (m *Machine) compensate(inst *Instance) []message.Object {
	return []message.Object{
		&contracts.UnreservePet{CorrelationUID: inst.CorrelationID, PetID: inst.PetID},
	}
}

func actorOf(payload message.Object) (string, bool) {
	switch cmd := payload.(type) {
	case *contracts.ConfirmAdoption:
		return cmd.ActorID, true
	case *contracts.RejectAdoption:
		return cmd.ActorID, true
	}

	return "", false
}

func kindOf(obj message.Object) reflect.Type {
	return scheme.GetStructType(obj)
}

package saga

import (
	"time"

	"github.com/pawshelter/adoption/saga/contracts"
)

// Instance is the durable aggregate driving one adoption attempt. It is created by the
// start command, mutated exclusively by the state machine and never deleted, only
// moved into a terminal status. Business context captured at start is immutable.
type Instance struct {
	CorrelationID string
	Status        Status

	PetID       string
	VolunteerID string
	AdopterID   string
	AdopterName string
	PetNickname string

	// ChatID is set once chat creation succeeds and never overwritten afterwards
	ChatID *string
	// FailureReason is set exactly once, on the transition into a failure-terminal status
	FailureReason *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic concurrency token checked by Store.Update
	Version int64
}

func NewInstance(correlationID string, cmd *contracts.StartAdoption, now time.Time) *Instance {
	return &Instance{
		CorrelationID: correlationID,
		Status:        StatusInitiated,
		PetID:         cmd.PetID,
		VolunteerID:   cmd.VolunteerID,
		AdopterID:     cmd.AdopterID,
		AdopterName:   cmd.AdopterName,
		PetNickname:   cmd.PetNickname,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Terminal reports whether the instance reached its final status
func (i Instance) Terminal() bool {
	return i.Status.Terminal()
}

// Participant reports whether actorID is the recorded adopter or the assigned volunteer
func (i Instance) Participant(actorID string) bool {
	return actorID != "" && (actorID == i.AdopterID || actorID == i.VolunteerID)
}

func (i *Instance) fail(reason string, now time.Time) {
	i.Status = StatusFailed
	i.setFailureReason(reason)
	i.UpdatedAt = now
}

func (i *Instance) setFailureReason(reason string) {
	if i.FailureReason == nil {
		i.FailureReason = &reason
	}
}

package contracts

import (
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/runtime/scheme"
)

// Group is the scheme group of every adoption saga contract
const Group scheme.Group = "adoption"

func init() {
	RegisterContracts(scheme.KnownTypesRegistryInstance)
}

// RegisterContracts adds all adoption saga contracts into registry
func RegisterContracts(registry scheme.KnownTypesRegistry) {
	contractsList := []scheme.Object{
		&StartAdoption{},
		&PetReserved{},
		&PetReservationFailed{},
		&ChatCreated{},
		&ChatCreationFailed{},
		&ConfirmAdoption{},
		&RejectAdoption{},
		&ConfirmationDeadlineElapsed{},
		&ReservePet{},
		&UnreservePet{},
		&AdoptPet{},
		&CreateAdoptionChat{},
	}
	registry.AddKnownTypes(Group, contractsList...)
}

// Correlated is implemented by every message belonging to an existing adoption attempt
type Correlated interface {
	Correlation() string
}

// StartAdoption begins a new adoption attempt for a pet
type StartAdoption struct {
	message.ObjectMeta
	PetID       string `json:"pet_id"`
	VolunteerID string `json:"volunteer_id"`
	AdopterID   string `json:"adopter_id"`
	AdopterName string `json:"adopter_name"`
	PetNickname string `json:"pet_nickname"`
}

// PetReserved is emitted by the reservation capability once the pet is locked for this attempt
type PetReserved struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
}

func (e PetReserved) Correlation() string {
	return e.CorrelationUID
}

type PetReservationFailed struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	Reason         string `json:"reason"`
}

func (e PetReservationFailed) Correlation() string {
	return e.CorrelationUID
}

// ChatCreated is emitted by the messaging capability with the id of the adoption chat
type ChatCreated struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	ChatID         string `json:"chat_id"`
}

func (e ChatCreated) Correlation() string {
	return e.CorrelationUID
}

type ChatCreationFailed struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	Reason         string `json:"reason"`
}

func (e ChatCreationFailed) Correlation() string {
	return e.CorrelationUID
}

// ConfirmAdoption finalizes the attempt, allowed only for the recorded adopter or volunteer
type ConfirmAdoption struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	ActorID        string `json:"actor_id"`
}

func (c ConfirmAdoption) Correlation() string {
	return c.CorrelationUID
}

// RejectAdoption declines the attempt, allowed only for the recorded adopter or volunteer
type RejectAdoption struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	ActorID        string `json:"actor_id"`
	Reason         string `json:"reason,omitempty"`
}

func (c RejectAdoption) Correlation() string {
	return c.CorrelationUID
}

// ConfirmationDeadlineElapsed is dispatched by the confirmation watchdog when an attempt
// stays unconfirmed past the configured deadline
type ConfirmationDeadlineElapsed struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
}

func (e ConfirmationDeadlineElapsed) Correlation() string {
	return e.CorrelationUID
}

// ReservePet is sent to the reservation capability, which enforces single-pet exclusivity
type ReservePet struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	PetID          string `json:"pet_id"`
}

func (c ReservePet) Correlation() string {
	return c.CorrelationUID
}

// UnreservePet compensates a previously applied reservation
type UnreservePet struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	PetID          string `json:"pet_id"`
}

func (c UnreservePet) Correlation() string {
	return c.CorrelationUID
}

// AdoptPet commits the adoption once confirmed
type AdoptPet struct {
	message.ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	PetID          string `json:"pet_id"`
}

func (c AdoptPet) Correlation() string {
	return c.CorrelationUID
}

// CreateAdoptionChat asks the messaging capability to open a chat between the participants
type CreateAdoptionChat struct {
	message.ObjectMeta
	CorrelationUID string   `json:"correlation_uid"`
	PetID          string   `json:"pet_id"`
	PetNickname    string   `json:"pet_nickname"`
	Participants   []string `json:"participants"`
}

func (c CreateAdoptionChat) Correlation() string {
	return c.CorrelationUID
}

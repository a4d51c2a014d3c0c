package saga

import (
	"github.com/pkg/errors"
)

// Status is the closed set of states an adoption attempt moves through.
// Branching logic is driven by this field only.
type Status string

const (
	StatusInitiated            Status = "initiated"
	StatusPetReserved          Status = "pet_reserved"
	StatusChatCreationPending  Status = "chat_creation_pending"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusCompleted            Status = "completed"
	StatusRejected             Status = "rejected"
	StatusFailed               Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status has no outgoing transitions.
// An instance is immutable once it reaches a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

func StatusFromStr(str string) (Status, error) {
	switch s := Status(str); s {
	case StatusInitiated, StatusPetReserved, StatusChatCreationPending,
		StatusAwaitingConfirmation, StatusCompleted, StatusRejected, StatusFailed:
		return s, nil
	}

	return "", errors.Errorf("unknown adoption status %q", str)
}

package saga

import (
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/saga/contracts"
	"github.com/pkg/errors"
)

// CorrelationKey is the message header carrying the adoption attempt id
const CorrelationKey = "adoptionUID"

// CorrelationService links messages to the adoption attempt they belong to.
// The id rides in headers; payloads of external capabilities carry it as a field too,
// which is used as a fallback when a collaborator does not propagate headers.
type CorrelationService interface {
	ExtractCorrelationID(msg *message.ReceivedMessage) (string, error)
	AddCorrelationID(headers message.Headers, correlationID string)
}

func NewCorrelationService() CorrelationService {
	return &correlationService{}
}

type correlationService struct {
}

func (c correlationService) ExtractCorrelationID(msg *message.ReceivedMessage) (string, error) {
	if val, ok := msg.Headers()[CorrelationKey]; ok {
		correlationID, converted := val.(string)

		if !converted {
			return "", errors.Errorf("correlation id was found in headers, but has wrong type, should be string")
		}

		return correlationID, nil
	}

	if correlated, ok := msg.Payload().(contracts.Correlated); ok && correlated.Correlation() != "" {
		return correlated.Correlation(), nil
	}

	return "", errors.Errorf("correlation id was not found in headers by key %s nor in the payload", CorrelationKey)
}

func (c correlationService) AddCorrelationID(headers message.Headers, correlationID string) {
	headers[CorrelationKey] = correlationID
}

package message

import (
	"time"

	"github.com/google/uuid"
	"github.com/pawshelter/adoption/runtime/scheme"
)

// Object is a contract payload registered in the scheme
type Object interface {
	scheme.Object
}

// ObjectMeta is embedded into every contract struct
type ObjectMeta struct {
	scheme.TypeMeta
}

type Headers map[string]interface{}

const returnsCountKey = "returnsCount"

func (h Headers) ReturnsCount() int {
	v, exists := h[returnsCountKey]
	if !exists {
		return 0
	}

	returnsCount, ok := v.(int)
	if !ok {
		return 0
	}

	return returnsCount
}

func (h Headers) RegisterReturn() {
	h[returnsCountKey] = h.ReturnsCount() + 1
}

// ReceivedMessage is a message consumed from the transport, already decoded into a registered type
type ReceivedMessage struct {
	uid        string
	payload    Object
	headers    Headers
	origin     string
	receivedAt time.Time
}

func NewReceivedMessage(uid string, payload Object, headers Headers, receivedAt time.Time, origin string) *ReceivedMessage {
	return &ReceivedMessage{uid: uid, payload: payload, headers: headers, receivedAt: receivedAt, origin: origin}
}

func (m ReceivedMessage) UID() string {
	return m.uid
}

func (m ReceivedMessage) Payload() Object {
	return m.payload
}

func (m ReceivedMessage) Headers() Headers {
	return m.headers
}

func (m ReceivedMessage) Origin() string {
	return m.origin
}

func (m ReceivedMessage) ReceivedAt() time.Time {
	return m.receivedAt
}

// OutcomingMessage is sent out to registered endpoints
type OutcomingMessage struct {
	uid     string
	payload Object
	headers Headers
}

func NewOutcomingMessage(payload Object, passedOptions ...MsgOption) *OutcomingMessage {
	msg := &OutcomingMessage{
		uid:     uuid.New().String(),
		payload: payload,
		headers: make(Headers),
	}

	for _, passedOpt := range passedOptions {
		if passedOpt != nil {
			passedOpt(msg)
		}
	}

	return msg
}

// FromReceivedMsg returns an outcoming message carrying the same uid, payload and
// headers as the received one, used when a message is returned to the bus
func FromReceivedMsg(received *ReceivedMessage) *OutcomingMessage {
	return NewOutcomingMessage(received.Payload(), WithUID(received.UID()), WithHeaders(received.Headers()))
}

func (m OutcomingMessage) UID() string {
	return m.uid
}

func (m OutcomingMessage) Payload() Object {
	return m.payload
}

func (m OutcomingMessage) Headers() Headers {
	return m.headers
}

type MsgOption func(msg *OutcomingMessage)

func WithHeaders(headers Headers) MsgOption {
	return func(msg *OutcomingMessage) {
		msg.headers = headers
	}
}

func WithUID(uid string) MsgOption {
	return func(msg *OutcomingMessage) {
		msg.uid = uid
	}
}

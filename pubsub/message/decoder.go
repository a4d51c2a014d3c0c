package message

import (
	"github.com/pawshelter/adoption/pubsub/transport"
	"github.com/pkg/errors"
)

// Decoder converts an incoming transport package into a ReceivedMessage
type Decoder interface {
	Decode(inPkg transport.IncomingPkg) (*ReceivedMessage, error)
}

type DecoderErr struct {
	error
}

func WithDecoderErr(err error) error {
	return DecoderErr{err}
}

func NewDecoder(marshaller Marshaller) Decoder {
	return &decoder{marshaller: marshaller}
}

type decoder struct {
	marshaller Marshaller
}

func (d decoder) Decode(inPkg transport.IncomingPkg) (*ReceivedMessage, error) {
	payload, err := d.marshaller.Unmarshal(inPkg.Payload())

	if err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "decoding payload of package %s", inPkg.UID()))
	}

	headers := make(Headers)
	for k, v := range inPkg.Headers() {
		headers[k] = v
	}

	return NewReceivedMessage(inPkg.UID(), payload, headers, inPkg.ReceivedAt(), inPkg.Origin()), nil
}

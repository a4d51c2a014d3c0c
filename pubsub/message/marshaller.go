package message

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
	"github.com/pawshelter/adoption/runtime/scheme"
	"github.com/pkg/errors"
)

// Marshaller serializes registered objects to the wire and back.
// Unmarshal relies on group and kind being present in the serialized data.
type Marshaller interface {
	Marshal(obj Object) ([]byte, error)
	Unmarshal(b []byte) (Object, error)
}

func NewJSONMarshaller(knownTypes scheme.KnownTypesRegistry) Marshaller {
	return &jsonMarshaller{knownTypes: knownTypes}
}

type jsonMarshaller struct {
	knownTypes scheme.KnownTypesRegistry
}

func (m jsonMarshaller) Marshal(obj Object) ([]byte, error) {
	if obj.GroupKind().Empty() {
		gk, err := m.knownTypes.ObjectKind(obj)

		if err != nil {
			return nil, errors.Wrap(err, "resolving object kind before marshalling")
		}

		obj.SetGroupKind(gk)
	}

	return json.Marshal(obj)
}

func (m jsonMarshaller) Unmarshal(b []byte) (Object, error) {
	unstructured := make(map[string]interface{})

	if err := json.Unmarshal(b, &unstructured); err != nil {
		return nil, errors.WithStack(err)
	}

	gk := groupKindOf(unstructured)

	if gk.Empty() {
		return nil, errors.Errorf("no group or kind found in serialized data")
	}

	obj, err := m.knownTypes.NewObject(gk)

	if err != nil {
		return nil, errors.Wrapf(err, "creating an instance of %s", gk.String())
	}

	decoderConf := mapstructure.DecoderConfig{
		Squash:  true,
		TagName: "json",
		Result:  &obj,
	}

	decoder, err := mapstructure.NewDecoder(&decoderConf)

	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := decoder.Decode(unstructured); err != nil {
		return nil, errors.Wrapf(err, "decoding serialized data into %s", gk.String())
	}

	obj.SetGroupKind(&gk)

	return obj, nil
}

func groupKindOf(unstructured map[string]interface{}) scheme.GroupKind {
	gk := scheme.GroupKind{}

	if groupVal, ok := unstructured["group"].(string); ok {
		gk.Group = scheme.Group(groupVal)
	}

	if kindVal, ok := unstructured["kind"].(string); ok {
		gk.Kind = kindVal
	}

	return gk
}

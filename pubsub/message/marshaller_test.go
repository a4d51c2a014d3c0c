package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawshelter/adoption/runtime/scheme"
)

type chatCreatedEvent struct {
	ObjectMeta
	CorrelationUID string `json:"correlation_uid"`
	ChatID         string `json:"chat_id"`
}

func TestJSONMarshaller(t *testing.T) {
	registry := scheme.NewKnownTypesRegistry()
	registry.AddKnownTypes("messaging", &chatCreatedEvent{})

	marshaller := NewJSONMarshaller(registry)

	t.Run("round trip", func(t *testing.T) {
		serialized, err := marshaller.Marshal(&chatCreatedEvent{CorrelationUID: "adoption-1", ChatID: "chat-9"})
		require.NoError(t, err)

		obj, err := marshaller.Unmarshal(serialized)
		require.NoError(t, err)

		decoded, ok := obj.(*chatCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, "adoption-1", decoded.CorrelationUID)
		assert.Equal(t, "chat-9", decoded.ChatID)
		assert.Equal(t, scheme.GroupKind{Group: "messaging", Kind: "chatCreatedEvent"}, decoded.GroupKind())
	})

	t.Run("marshal fills in group and kind", func(t *testing.T) {
		serialized, err := marshaller.Marshal(&chatCreatedEvent{ChatID: "chat-9"})
		require.NoError(t, err)

		assert.Contains(t, string(serialized), `"kind":"chatCreatedEvent"`)
		assert.Contains(t, string(serialized), `"group":"messaging"`)
	})

	t.Run("marshal of an unregistered type fails", func(t *testing.T) {
		other := scheme.NewKnownTypesRegistry()
		_, err := NewJSONMarshaller(other).Marshal(&chatCreatedEvent{})
		assert.Error(t, err)
	})

	t.Run("unmarshal without group and kind fails", func(t *testing.T) {
		_, err := marshaller.Unmarshal([]byte(`{"chat_id":"chat-9"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no group or kind")
	})

	t.Run("unmarshal of an unknown kind fails", func(t *testing.T) {
		_, err := marshaller.Unmarshal([]byte(`{"group":"messaging","kind":"unknownEvent"}`))
		assert.Error(t, err)
	})

	t.Run("unmarshal of invalid json fails", func(t *testing.T) {
		_, err := marshaller.Unmarshal([]byte(`{`))
		assert.Error(t, err)
	})
}

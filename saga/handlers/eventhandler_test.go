package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawshelter/adoption/pubsub/endpoint"
	busErrs "github.com/pawshelter/adoption/pubsub/errors"
	"github.com/pawshelter/adoption/pubsub/message"
	sagaPkg "github.com/pawshelter/adoption/saga"
	"github.com/pawshelter/adoption/saga/contracts"
	testLog "github.com/pawshelter/adoption/testing/log"
	sagaMock "github.com/pawshelter/adoption/testing/mocks/saga"
)

func newEventsHandler(store sagaPkg.Store) *EventsHandler {
	return NewEventsHandler(store, sagaPkg.NewMachine(), sagaPkg.NewCorrelationService(), testLog.NewNilLogger())
}

func correlatedMsg(correlationID string, payload message.Object) *message.ReceivedMessage {
	headers := message.Headers{sagaPkg.CorrelationKey: correlationID}
	return message.NewReceivedMessage("msg-uid", payload, headers, time.Now(), "adoption")
}

func activeInstance(status sagaPkg.Status) *sagaPkg.Instance {
	inst := sagaPkg.NewInstance("adoption-123", startCmd(), time.Now().Add(-time.Hour))
	inst.Status = status
	return inst
}

func TestEventsHandlerAppliesTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.PetReserved{CorrelationUID: "adoption-123"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	inst := activeInstance(sagaPkg.StatusInitiated)
	store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(inst, nil)

	store.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, updated *sagaPkg.Instance) error {
			assert.Equal(t, sagaPkg.StatusChatCreationPending, updated.Status)
			return nil
		})

	execCtx.EXPECT().Send(gomock.Any()).
		DoAndReturn(func(outcoming *message.OutcomingMessage, _ ...endpoint.DeliveryOption) error {
			createChat, ok := outcoming.Payload().(*contracts.CreateAdoptionChat)
			require.True(t, ok)
			assert.Equal(t, "adoption-123", createChat.CorrelationUID)
			assert.Equal(t, "adoption-123", outcoming.Headers()[sagaPkg.CorrelationKey])
			return nil
		})

	require.NoError(t, handler.Handle(execCtx))
}

func TestEventsHandlerRetriesOnVersionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.ChatCreated{CorrelationUID: "adoption-123", ChatID: "chat-9"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	first := activeInstance(sagaPkg.StatusChatCreationPending)
	second := activeInstance(sagaPkg.StatusChatCreationPending)
	second.Version = 1

	gomock.InOrder(
		store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(first, nil),
		store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sagaPkg.ErrVersionConflict),
		store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(second, nil),
		store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil),
	)

	require.NoError(t, handler.Handle(execCtx))
	assert.Equal(t, sagaPkg.StatusAwaitingConfirmation, second.Status)
}

func TestEventsHandlerGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.ChatCreated{CorrelationUID: "adoption-123", ChatID: "chat-9"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").
		DoAndReturn(func(ctx context.Context, correlationID string) (*sagaPkg.Instance, error) {
			return activeInstance(sagaPkg.StatusChatCreationPending), nil
		}).Times(maxApplyAttempts)
	store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sagaPkg.ErrVersionConflict).Times(maxApplyAttempts)

	err := handler.Handle(execCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up")
	// the error stays retryable, the broker will redeliver
	assert.Equal(t, busErrs.Retry, busErrs.StatusOf(err))
}

func TestEventsHandlerUnknownInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("missing", &contracts.PetReserved{CorrelationUID: "missing"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	store.EXPECT().GetByCorrelationID(gomock.Any(), "missing").Return(nil, nil)

	err := handler.Handle(execCtx)
	require.Error(t, err)
	assert.Equal(t, busErrs.NoRetry, busErrs.StatusOf(err))
}

func TestEventsHandlerMissingCorrelation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := message.NewReceivedMessage("msg-uid", &contracts.PetReserved{}, message.Headers{}, time.Now(), "adoption")
	execCtx := execCtxWithMsg(t, ctrl, msg)

	err := handler.Handle(execCtx)
	require.Error(t, err)
	assert.Equal(t, busErrs.NoRetry, busErrs.StatusOf(err))
}

func TestEventsHandlerDuplicateIsAcked(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.PetReserved{CorrelationUID: "adoption-123"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	// already past the reservation step, nothing to apply and nothing to persist
	store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").
		Return(activeInstance(sagaPkg.StatusAwaitingConfirmation), nil)

	require.NoError(t, handler.Handle(execCtx))
}

func TestEventsHandlerTerminalDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.RejectAdoption{CorrelationUID: "adoption-123", ActorID: "volunteer-1"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").
		Return(activeInstance(sagaPkg.StatusCompleted), nil)

	err := handler.Handle(execCtx)
	require.Error(t, err)
	assert.Equal(t, busErrs.NoRetry, busErrs.StatusOf(err))
	assert.Contains(t, err.Error(), "already finalized")
}

func TestEventsHandlerResendsLostDeliveries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.ChatCreationFailed{CorrelationUID: "adoption-123", Reason: "chat service down"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	// the state write lands but the compensation send is lost
	inst := activeInstance(sagaPkg.StatusChatCreationPending)
	gomock.InOrder(
		store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(inst, nil),
		store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil),
		execCtx.EXPECT().Send(gomock.Any()).Return(errors.New("broker gone")),
	)

	err := handler.Handle(execCtx)
	require.Error(t, err)
	assert.Equal(t, sagaPkg.StatusFailed, inst.Status)

	// the broker redelivers against the now finalized instance, the handler must
	// re-derive the compensation instead of absorbing the duplicate
	redelivered := activeInstance(sagaPkg.StatusFailed)
	redelivered.Version = 1
	gomock.InOrder(
		store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(redelivered, nil),
		execCtx.EXPECT().Send(gomock.Any()).
			DoAndReturn(func(outcoming *message.OutcomingMessage, _ ...endpoint.DeliveryOption) error {
				unreserve, ok := outcoming.Payload().(*contracts.UnreservePet)
				require.True(t, ok)
				assert.Equal(t, "pet-1", unreserve.PetID)
				assert.Equal(t, "adoption-123", outcoming.Headers()[sagaPkg.CorrelationKey])
				return nil
			}),
	)

	require.NoError(t, handler.Handle(execCtx))
}

func TestEventsHandlerResendsLostDecisionDeliveries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.RejectAdoption{CorrelationUID: "adoption-123", ActorID: "volunteer-1"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	// the rejection is already durable, only its unreserve command was lost
	store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").
		Return(activeInstance(sagaPkg.StatusRejected), nil)
	execCtx.EXPECT().Send(gomock.Any()).
		DoAndReturn(func(outcoming *message.OutcomingMessage, _ ...endpoint.DeliveryOption) error {
			assert.IsType(t, &contracts.UnreservePet{}, outcoming.Payload())
			return nil
		})

	require.NoError(t, handler.Handle(execCtx))
}

func TestEventsHandlerUnauthorizedActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	handler := newEventsHandler(store)

	msg := correlatedMsg("adoption-123", &contracts.ConfirmAdoption{CorrelationUID: "adoption-123", ActorID: "stranger"})
	execCtx := execCtxWithMsg(t, ctrl, msg)

	store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").
		Return(activeInstance(sagaPkg.StatusAwaitingConfirmation), nil)

	err := handler.Handle(execCtx)
	require.Error(t, err)
	assert.Equal(t, busErrs.NoRetry, busErrs.StatusOf(err))
}

package status

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawshelter/adoption/saga"
	"github.com/pawshelter/adoption/saga/contracts"
	sagaMock "github.com/pawshelter/adoption/testing/mocks/saga"
)

func storedInstance() *saga.Instance {
	inst := saga.NewInstance("adoption-123", &contracts.StartAdoption{
		PetID:       "pet-1",
		VolunteerID: "volunteer-1",
		AdopterID:   "adopter-1",
		AdopterName: "Jane",
		PetNickname: "Rex",
	}, time.Date(2022, time.April, 10, 12, 0, 0, 0, time.UTC))
	inst.Status = saga.StatusAwaitingConfirmation
	chatID := "chat-9"
	inst.ChatID = &chatID
	inst.Version = 3
	return inst
}

func TestStatusServiceGetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	service := NewStatusService(store)

	t.Run("existing adoption", func(t *testing.T) {
		store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(storedInstance(), nil)

		resp, err := service.GetStatus(context.Background(), "adoption-123")
		require.NoError(t, err)

		assert.Equal(t, "adoption-123", resp.CorrelationUID)
		assert.Equal(t, "awaiting_confirmation", resp.Status)
		assert.Equal(t, "pet-1", resp.PetID)
		require.NotNil(t, resp.ChatID)
		assert.Equal(t, "chat-9", *resp.ChatID)
		assert.Nil(t, resp.FailureReason)
	})

	t.Run("unknown adoption responds 404", func(t *testing.T) {
		store.EXPECT().GetByCorrelationID(gomock.Any(), "missing").Return(nil, nil)

		_, err := service.GetStatus(context.Background(), "missing")
		require.Error(t, err)

		respErr, ok := err.(ResponseError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, respErr.Status())
	})

	t.Run("store failure", func(t *testing.T) {
		store.EXPECT().GetByCorrelationID(gomock.Any(), "adoption-123").Return(nil, errors.New("db is down"))

		_, err := service.GetStatus(context.Background(), "adoption-123")
		assert.Error(t, err)
	})
}

func TestStatusServiceGetFilteredBy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := sagaMock.NewMockStore(ctrl)
	service := NewStatusService(store)

	t.Run("filter by status", func(t *testing.T) {
		store.EXPECT().GetByFilter(gomock.Any(), gomock.Any()).Return([]*saga.Instance{storedInstance()}, nil)

		batch, err := service.GetFilteredBy(context.Background(), &Filters{Status: "awaiting_confirmation"}, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, batch.Total)
		require.Len(t, batch.Items, 1)
		assert.Equal(t, "adoption-123", batch.Items[0].CorrelationUID)
	})

	t.Run("invalid status filter responds 400", func(t *testing.T) {
		_, err := service.GetFilteredBy(context.Background(), &Filters{Status: "weird"}, nil)
		require.Error(t, err)

		respErr, ok := err.(ResponseError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, respErr.Status())
	})

	t.Run("no filters and no pagination responds 400", func(t *testing.T) {
		_, err := service.GetFilteredBy(context.Background(), &Filters{}, nil)
		require.Error(t, err)

		respErr, ok := err.(ResponseError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, respErr.Status())
	})

	t.Run("pagination only", func(t *testing.T) {
		store.EXPECT().GetByFilter(gomock.Any(), gomock.Any()).Return([]*saga.Instance{}, nil)

		batch, err := service.GetFilteredBy(context.Background(), &Filters{}, &Pagination{Offset: 0, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, batch.Total)
	})
}

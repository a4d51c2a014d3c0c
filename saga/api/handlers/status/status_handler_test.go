package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testLog "github.com/pawshelter/adoption/testing/log"
)

func testRouter(handler *StatusHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/adoptions", handler.GetFilteredBy)
	r.Get("/adoptions/{correlationID}", handler.GetStatus)
	return r
}

func TestStatusHandlerGetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockStatusService(ctrl)
	router := testRouter(NewStatusHandler(testLog.NewNilLogger(), service))

	t.Run("found", func(t *testing.T) {
		service.EXPECT().GetStatus(gomock.Any(), "adoption-123").
			Return(&AdoptionStatus{CorrelationUID: "adoption-123", Status: "completed"}, nil)

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/adoptions/adoption-123", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

		var body AdoptionStatus
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "adoption-123", body.CorrelationUID)
		assert.Equal(t, "completed", body.Status)
	})

	t.Run("not found", func(t *testing.T) {
		service.EXPECT().GetStatus(gomock.Any(), "missing").
			Return(nil, NewResponseError(http.StatusNotFound, errors.New("adoption 'missing' not found")))

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/adoptions/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "not found")
	})

	t.Run("internal error", func(t *testing.T) {
		service.EXPECT().GetStatus(gomock.Any(), "adoption-123").
			Return(nil, errors.New("db is down"))

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/adoptions/adoption-123", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestStatusHandlerGetFilteredBy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockStatusService(ctrl)
	router := testRouter(NewStatusHandler(testLog.NewNilLogger(), service))

	t.Run("filters and pagination forwarded", func(t *testing.T) {
		service.EXPECT().GetFilteredBy(gomock.Any(), &Filters{PetID: "pet-1", Status: "failed"}, &Pagination{Offset: 5, Limit: 10}).
			Return(&AdoptionBatch{Total: 0, Items: []AdoptionStatus{}}, nil)

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/adoptions?petId=pet-1&status=failed&offset=5&limit=10", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("offset without limit", func(t *testing.T) {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/adoptions?offset=5", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "limit")
	})

	t.Run("non numeric pagination", func(t *testing.T) {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/adoptions?offset=abc&limit=10", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

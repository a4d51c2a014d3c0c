package saga

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawshelter/adoption/saga/contracts"
)

func newStoreWithMock(t *testing.T, driver SQLDriver) (Store, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("create table if not exists adoption_saga").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStore(db, driver)
	require.NoError(t, err)

	return store, mock, db
}

func storedInstance() *Instance {
	return NewInstance("adoption-123", &contracts.StartAdoption{
		PetID:       "pet-1",
		VolunteerID: "volunteer-1",
		AdopterID:   "adopter-1",
		AdopterName: "Jane",
		PetNickname: "Rex",
	}, time.Date(2022, time.April, 10, 12, 0, 0, 0, time.UTC))
}

func TestSQLStoreCreate(t *testing.T) {
	store, mock, db := newStoreWithMock(t, MYSQLDriver)
	defer db.Close()

	inst := storedInstance()

	mock.ExpectExec("INSERT INTO adoption_saga").
		WithArgs(
			inst.CorrelationID,
			"initiated",
			inst.PetID,
			inst.VolunteerID,
			inst.AdopterID,
			inst.AdopterName,
			inst.PetNickname,
			nil,
			nil,
			inst.CreatedAt,
			inst.UpdatedAt,
			int64(0),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Create(context.Background(), inst))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreUpdate(t *testing.T) {
	t.Run("successful update bumps the version", func(t *testing.T) {
		store, mock, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		inst := storedInstance()
		inst.Status = StatusChatCreationPending
		inst.Version = 2

		mock.ExpectExec("UPDATE adoption_saga SET").
			WithArgs("chat_creation_pending", nil, nil, inst.UpdatedAt, int64(3), inst.CorrelationID, int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Update(context.Background(), inst))
		assert.Equal(t, int64(3), inst.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent writer wins, update reports a version conflict", func(t *testing.T) {
		store, mock, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		inst := storedInstance()
		inst.Version = 2

		mock.ExpectExec("UPDATE adoption_saga SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Update(context.Background(), inst)
		require.Error(t, err)
		assert.Equal(t, ErrVersionConflict, errors.Cause(err))
		assert.Equal(t, int64(2), inst.Version)
	})
}

func instanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"correlation_uid", "status", "pet_uid", "volunteer_uid", "adopter_uid",
		"adopter_name", "pet_nickname", "chat_uid", "failure_reason",
		"created_at", "updated_at", "version",
	})
}

func TestSQLStoreGetByCorrelationID(t *testing.T) {
	t.Run("existing instance", func(t *testing.T) {
		store, mock, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		createdAt := time.Date(2022, time.April, 10, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT .+ FROM adoption_saga WHERE correlation_uid=").
			WithArgs("adoption-123").
			WillReturnRows(instanceRows().AddRow(
				"adoption-123", "awaiting_confirmation", "pet-1", "volunteer-1", "adopter-1",
				"Jane", "Rex", "chat-9", nil, createdAt, createdAt, int64(3),
			))

		inst, err := store.GetByCorrelationID(context.Background(), "adoption-123")
		require.NoError(t, err)
		require.NotNil(t, inst)

		assert.Equal(t, StatusAwaitingConfirmation, inst.Status)
		require.NotNil(t, inst.ChatID)
		assert.Equal(t, "chat-9", *inst.ChatID)
		assert.Nil(t, inst.FailureReason)
		assert.Equal(t, int64(3), inst.Version)
	})

	t.Run("unknown instance returns nil", func(t *testing.T) {
		store, mock, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		mock.ExpectQuery("SELECT .+ FROM adoption_saga WHERE correlation_uid=").
			WithArgs("missing").
			WillReturnRows(instanceRows())

		inst, err := store.GetByCorrelationID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, inst)
	})

	t.Run("unknown status in a row is an error", func(t *testing.T) {
		store, mock, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		mock.ExpectQuery("SELECT .+ FROM adoption_saga WHERE correlation_uid=").
			WithArgs("adoption-123").
			WillReturnRows(instanceRows().AddRow(
				"adoption-123", "weird", "pet-1", "volunteer-1", "adopter-1",
				"Jane", "Rex", nil, nil, time.Now(), time.Now(), int64(0),
			))

		_, err := store.GetByCorrelationID(context.Background(), "adoption-123")
		assert.Error(t, err)
	})
}

func TestSQLStoreGetActiveByPetID(t *testing.T) {
	store, mock, db := newStoreWithMock(t, MYSQLDriver)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM adoption_saga WHERE pet_uid=. AND status NOT IN").
		WithArgs("pet-1", "completed", "rejected", "failed").
		WillReturnRows(instanceRows().AddRow(
			"adoption-123", "initiated", "pet-1", "volunteer-1", "adopter-1",
			"Jane", "Rex", nil, nil, time.Now(), time.Now(), int64(0),
		))

	inst, err := store.GetActiveByPetID(context.Background(), "pet-1")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, StatusInitiated, inst.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetByFilter(t *testing.T) {
	t.Run("status and updated before with pagination", func(t *testing.T) {
		store, mock, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		cutoff := time.Date(2022, time.April, 9, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT .+ FROM adoption_saga WHERE status = . AND updated_at < . ORDER BY created_at LIMIT 100 OFFSET 0").
			WithArgs("awaiting_confirmation", cutoff).
			WillReturnRows(instanceRows().
				AddRow("adoption-1", "awaiting_confirmation", "pet-1", "volunteer-1", "adopter-1", "Jane", "Rex", "chat-1", nil, cutoff, cutoff, int64(2)).
				AddRow("adoption-2", "awaiting_confirmation", "pet-2", "volunteer-1", "adopter-2", "Bob", "Mia", "chat-2", nil, cutoff, cutoff, int64(2)))

		instances, err := store.GetByFilter(context.Background(),
			WithStatus(StatusAwaitingConfirmation),
			WithUpdatedBefore(cutoff),
			WithOffsetAndLimit(0, 100),
		)
		require.NoError(t, err)
		require.Len(t, instances, 2)
		assert.Equal(t, "adoption-1", instances[0].CorrelationID)
		assert.Equal(t, "adoption-2", instances[1].CorrelationID)
	})

	t.Run("no filters is an error", func(t *testing.T) {
		store, _, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		_, err := store.GetByFilter(context.Background())
		assert.Error(t, err)
	})

	t.Run("pagination alone is an error", func(t *testing.T) {
		store, _, db := newStoreWithMock(t, MYSQLDriver)
		defer db.Close()

		_, err := store.GetByFilter(context.Background(), WithOffsetAndLimit(0, 10))
		assert.Error(t, err)
	})
}

func TestSQLStorePGWildcards(t *testing.T) {
	store, mock, db := newStoreWithMock(t, PGDriver)
	defer db.Close()

	inst := storedInstance()
	inst.Version = 1

	mock.ExpectExec(`UPDATE adoption_saga SET status=\$1, chat_uid=\$2, failure_reason=\$3, updated_at=\$4, version=\$5 WHERE correlation_uid=\$6 AND version=\$7`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Update(context.Background(), inst))
	assert.Equal(t, int64(2), inst.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

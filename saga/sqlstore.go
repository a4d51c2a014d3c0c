package saga

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	MYSQLDriver SQLDriver = "mysql"
	PGDriver    SQLDriver = "pg"

	adoptionTableName = "adoption_saga"
)

type SQLDriver string

type sqlStore struct {
	db     *sql.DB
	driver SQLDriver
}

// NewSQLStore creates a sql adoption store, supports mysql and postgres drivers.
// The driver param is needed to rewrite query wildcards, see prepQuery.
func NewSQLStore(db *sql.DB, driver SQLDriver) (Store, error) {
	s := &sqlStore{db: db, driver: driver}
	if err := s.initTables(); err != nil {
		return nil, errors.Wrapf(err, "initializing tables for sql adoption store, driver %s", driver)
	}

	return s, nil
}

func (s sqlStore) Create(ctx context.Context, inst *Instance) error {
	_, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf(
		`INSERT INTO %v
		(correlation_uid, status, pet_uid, volunteer_uid, adopter_uid, adopter_name, pet_nickname, chat_uid, failure_reason, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`, adoptionTableName)),
		inst.CorrelationID,
		inst.Status.String(),
		inst.PetID,
		inst.VolunteerID,
		inst.AdopterID,
		inst.AdopterName,
		inst.PetNickname,
		inst.ChatID,
		inst.FailureReason,
		inst.CreatedAt,
		inst.UpdatedAt,
		inst.Version,
	)

	if err != nil {
		return errors.Wrapf(err, "inserting adoption instance %s", inst.CorrelationID)
	}

	return nil
}

// Update writes the instance back guarded by its version. The losing concurrent writer
// gets ErrVersionConflict and must retry against freshly loaded state.
func (s sqlStore) Update(ctx context.Context, inst *Instance) error {
	res, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf(
		`UPDATE %v SET status=?, chat_uid=?, failure_reason=?, updated_at=?, version=? WHERE correlation_uid=? AND version=?;`, adoptionTableName)),
		inst.Status.String(),
		inst.ChatID,
		inst.FailureReason,
		inst.UpdatedAt,
		inst.Version+1,
		inst.CorrelationID,
		inst.Version,
	)

	if err != nil {
		return errors.Wrapf(err, "updating adoption instance %s", inst.CorrelationID)
	}

	rows, err := res.RowsAffected()

	if err != nil {
		return errors.Wrapf(err, "getting rows affected by update of adoption instance %s", inst.CorrelationID)
	}

	if rows == 0 {
		return errors.Wrapf(ErrVersionConflict, "updating adoption instance %s at version %d", inst.CorrelationID, inst.Version)
	}

	inst.Version++

	return nil
}

func (s sqlStore) GetByCorrelationID(ctx context.Context, correlationID string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf(
		"SELECT %s FROM %v WHERE correlation_uid=?;", instanceColumns, adoptionTableName)), correlationID)

	inst, err := s.scanInstance(row)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "querying adoption instance %s", correlationID)
	}

	return inst, nil
}

func (s sqlStore) GetActiveByPetID(ctx context.Context, petID string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf(
		"SELECT %s FROM %v WHERE pet_uid=? AND status NOT IN (?, ?, ?) LIMIT 1;", instanceColumns, adoptionTableName)),
		petID, StatusCompleted.String(), StatusRejected.String(), StatusFailed.String())

	inst, err := s.scanInstance(row)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "querying active adoption instance for pet %s", petID)
	}

	return inst, nil
}

func (s sqlStore) GetByFilter(ctx context.Context, filters ...FilterOption) ([]*Instance, error) {
	if len(filters) == 0 {
		return nil, errors.Errorf("no filters found, you have to specify at least one so result won't be the whole store")
	}

	opts := &filterOptions{}

	for _, filter := range filters {
		filter(opts)
	}

	query := fmt.Sprintf("SELECT %s FROM %v WHERE", instanceColumns, adoptionTableName)

	var (
		args       []interface{}
		conditions []string
	)

	if opts.status != nil {
		conditions = append(conditions, " status = ?")
		args = append(args, opts.status.String())
	}

	if opts.petID != "" {
		conditions = append(conditions, " pet_uid = ?")
		args = append(args, opts.petID)
	}

	if opts.updatedBefore != nil {
		conditions = append(conditions, " updated_at < ?")
		args = append(args, *opts.updatedBefore)
	}

	if len(conditions) == 0 {
		return nil, errors.Errorf("all specified filters are empty, you have to specify at least one so result won't be the whole store")
	}

	for i, condition := range conditions {
		query += condition

		if i < len(conditions)-1 {
			query += " AND"
		}
	}

	query += " ORDER BY created_at"

	if opts.limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *opts.limit)
	}

	if opts.offset != nil {
		query += fmt.Sprintf(" OFFSET %d", *opts.offset)
	}

	query += ";"

	rows, err := s.db.QueryContext(ctx, s.prepQuery(query), args...)

	if err != nil {
		return nil, errors.Wrap(err, "querying adoption instances with filter")
	}

	defer rows.Close()

	instances := make([]*Instance, 0)

	for rows.Next() {
		inst, err := s.scanInstance(rows)

		if err != nil {
			return nil, errors.WithStack(err)
		}

		instances = append(instances, inst)
	}

	if rows.Err() != nil {
		return nil, errors.WithStack(rows.Err())
	}

	return instances, nil
}

const instanceColumns = "correlation_uid, status, pet_uid, volunteer_uid, adopter_uid, adopter_name, pet_nickname, chat_uid, failure_reason, created_at, updated_at, version"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s sqlStore) scanInstance(row rowScanner) (*Instance, error) {
	var (
		statusStr     string
		chatID        sql.NullString
		failureReason sql.NullString
		createdAt     sql.NullTime
		updatedAt     sql.NullTime
	)

	inst := &Instance{}

	if err := row.Scan(
		&inst.CorrelationID,
		&statusStr,
		&inst.PetID,
		&inst.VolunteerID,
		&inst.AdopterID,
		&inst.AdopterName,
		&inst.PetNickname,
		&chatID,
		&failureReason,
		&createdAt,
		&updatedAt,
		&inst.Version,
	); err != nil {
		return nil, err
	}

	status, err := StatusFromStr(statusStr)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing status of %s", inst.CorrelationID)
	}
	inst.Status = status

	if chatID.Valid {
		inst.ChatID = &chatID.String
	}

	if failureReason.Valid {
		inst.FailureReason = &failureReason.String
	}

	if createdAt.Valid {
		inst.CreatedAt = createdAt.Time
	}

	if updatedAt.Valid {
		inst.UpdatedAt = updatedAt.Time
	}

	return inst, nil
}

func (s sqlStore) initTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`create table if not exists %v
	(
		correlation_uid varchar(255) not null primary key,
		status varchar(255) not null,
		pet_uid varchar(255) not null,
		volunteer_uid varchar(255) not null,
		adopter_uid varchar(255) not null,
		adopter_name varchar(255) null,
		pet_nickname varchar(255) null,
		chat_uid varchar(255) null,
		failure_reason text null,
		created_at timestamp null,
		updated_at timestamp null,
		version bigint not null default 0
	);`, adoptionTableName))

	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// prepQuery replaces wildcard params for the specific driver. The standard wildcard is '?'.
func (s *sqlStore) prepQuery(query string) string {
	if s.driver != PGDriver {
		return query
	}

	var res []byte

	counter := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			res = append(append(res, '$'), []byte(strconv.Itoa(counter))...)
			counter++

			continue
		}
		res = append(res, query[i])
	}

	return string(res)
}

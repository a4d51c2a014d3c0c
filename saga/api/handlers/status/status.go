package status

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/pawshelter/adoption/log"
	"github.com/pawshelter/adoption/saga"
)

type AdoptionBatch struct {
	Total int              `json:"total"`
	Items []AdoptionStatus `json:"items"`
}

// AdoptionStatus is the external projection of an adoption attempt. Versions and
// other storage detail stay internal.
type AdoptionStatus struct {
	CorrelationUID string    `json:"correlation_uid"`
	Status         string    `json:"status"`
	PetID          string    `json:"pet_id"`
	VolunteerID    string    `json:"volunteer_id"`
	AdopterID      string    `json:"adopter_id"`
	AdopterName    string    `json:"adopter_name"`
	PetNickname    string    `json:"pet_nickname"`
	ChatID         *string   `json:"chat_id,omitempty"`
	FailureReason  *string   `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

//go:generate mockgen --build_flags=--mod=mod -destination ./mock_test.go -package status . StatusService

type Pagination struct {
	Offset int
	Limit  int
}

type Filters struct {
	PetID  string
	Status string
}

type StatusService interface {
	GetStatus(ctx context.Context, correlationID string) (*AdoptionStatus, error)
	GetFilteredBy(ctx context.Context, filters *Filters, pagination *Pagination) (*AdoptionBatch, error)
}

func NewStatusService(store saga.Store) StatusService {
	return &statusService{store: store}
}

type statusService struct {
	store saga.Store
}

func (s statusService) GetStatus(ctx context.Context, correlationID string) (*AdoptionStatus, error) {
	instance, err := s.store.GetByCorrelationID(ctx, correlationID)

	if err != nil {
		return nil, errors.Wrapf(err, "error loading adoption '%s'", correlationID)
	}

	if instance == nil {
		return nil, NewResponseError(http.StatusNotFound, errors.Errorf("adoption '%s' not found", correlationID))
	}

	status := projectInstance(instance)

	return &status, nil
}

func (s statusService) GetFilteredBy(ctx context.Context, filters *Filters, pagination *Pagination) (*AdoptionBatch, error) {

	var opts []saga.FilterOption

	if filters.PetID != "" {
		opts = append(opts, saga.WithPetID(filters.PetID))
	}

	if filters.Status != "" {
		status, err := saga.StatusFromStr(filters.Status)
		if err != nil {
			return nil, NewResponseError(http.StatusBadRequest, err)
		}

		opts = append(opts, saga.WithStatus(status))
	}

	if len(opts) == 0 && pagination == nil {
		return nil, NewResponseError(http.StatusBadRequest, errors.Errorf("Either filters or pagination must be specified"))
	}

	if pagination != nil {
		opts = append(opts, saga.WithOffsetAndLimit(pagination.Offset, pagination.Limit))
	}

	instances, err := s.store.GetByFilter(ctx, opts...)

	if err != nil {
		return nil, errors.WithStack(err)
	}

	statuses := make([]AdoptionStatus, len(instances))

	for i, instance := range instances {
		statuses[i] = projectInstance(instance)
	}

	return &AdoptionBatch{
		Total: len(statuses),
		Items: statuses,
	}, nil
}

func projectInstance(instance *saga.Instance) AdoptionStatus {
	return AdoptionStatus{
		CorrelationUID: instance.CorrelationID,
		Status:         instance.Status.String(),
		PetID:          instance.PetID,
		VolunteerID:    instance.VolunteerID,
		AdopterID:      instance.AdopterID,
		AdopterName:    instance.AdopterName,
		PetNickname:    instance.PetNickname,
		ChatID:         instance.ChatID,
		FailureReason:  instance.FailureReason,
		CreatedAt:      instance.CreatedAt,
		UpdatedAt:      instance.UpdatedAt,
	}
}

type StatusHandler struct {
	service StatusService
	logger  log.Logger
}

func NewStatusHandler(logger log.Logger, service StatusService) *StatusHandler {
	return &StatusHandler{service: service, logger: logger}
}

func (h *StatusHandler) GetStatus(resp http.ResponseWriter, r *http.Request) {

	correlationID := chi.URLParam(r, "correlationID")

	if correlationID == "" {
		NewResponseWriterFromErrMsg("Adoption id is empty", http.StatusBadRequest).write(resp, h.logger)
		return
	}

	statusResp, err := h.service.GetStatus(r.Context(), correlationID)

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	NewResponseWriter(statusResp, http.StatusOK).write(resp, h.logger)
}

func (h *StatusHandler) GetFilteredBy(resp http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		filters    Filters
		pagination *Pagination
	)

	filters.PetID = query.Get("petId")
	filters.Status = query.Get("status")

	offset, err := h.getInt(query, "offset")

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	limit, err := h.getInt(query, "limit")

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	if offset != nil && limit == nil {
		NewResponseWriterFromErrMsg("Query param 'limit' must be specified along with 'offset'", http.StatusBadRequest).write(resp, h.logger)
		return
	}

	if limit != nil && offset == nil {
		NewResponseWriterFromErrMsg("Query param 'offset' must be specified along with 'limit'", http.StatusBadRequest).write(resp, h.logger)
		return
	}

	if limit != nil || offset != nil {
		pagination = &Pagination{
			Offset: *offset,
			Limit:  *limit,
		}
	}

	statusesResp, err := h.service.GetFilteredBy(r.Context(), &filters, pagination)

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	NewResponseWriter(statusesResp, http.StatusOK).write(resp, h.logger)
}

func (h *StatusHandler) getInt(values url.Values, paramName string) (*int, error) {
	paramValue := values.Get(paramName)
	if paramValue != "" {
		intValue, err := strconv.Atoi(paramValue)
		if err != nil {
			return nil, NewResponseError(http.StatusBadRequest, errors.Errorf("Query parameter '%s' is expected to be an integer", paramName))
		}

		return &intValue, nil
	}

	return nil, nil
}

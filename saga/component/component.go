package component

import (
	"net/http"

	adoption "github.com/pawshelter/adoption"
	"github.com/pawshelter/adoption/pubsub/endpoint"
	sagaPkg "github.com/pawshelter/adoption/saga"
	"github.com/pawshelter/adoption/saga/api"
	"github.com/pawshelter/adoption/saga/contracts"
	"github.com/pawshelter/adoption/saga/handlers"
	"github.com/pawshelter/adoption/saga/timeout"
)

// StoreFactory builds the saga store once the component boots
type StoreFactory func() (sagaPkg.Store, error)

// Component wires the adoption orchestrator into the bus: contracts, handlers
// for inbound commands and participant events, endpoints for outbound commands
// and optionally the confirmation watchdog and the status API.
type Component struct {
	storeFactory StoreFactory
	endpoints    []endpoint.Endpoint
	configOpts   []configOption

	watchdog *timeout.Watchdog
}

type opts struct {
	correlationSvc sagaPkg.CorrelationService
	machine        *sagaPkg.Machine
	watchdogPolicy *timeout.Policy
	apiServerMux   *http.ServeMux
}

type configOption func(o *opts)

func NewComponent(storeFactory StoreFactory, opts ...configOption) *Component {
	return &Component{storeFactory: storeFactory, configOpts: opts}
}

func (c *Component) Init(b *adoption.Bus) error {
	opts := &opts{}
	for _, config := range c.configOpts {
		config(opts)
	}

	if opts.correlationSvc == nil {
		opts.correlationSvc = sagaPkg.NewCorrelationService()
	}

	if opts.machine == nil {
		opts.machine = sagaPkg.NewMachine()
	}

	store, err := c.storeFactory()

	if err != nil {
		return err
	}

	if opts.apiServerMux != nil {
		opts.apiServerMux.Handle("/", api.NewRouter(store, b.Logger()))
	}

	contracts.RegisterContracts(b.SchemeRegistry())

	controlHandler := handlers.NewControlHandler(store, opts.correlationSvc)
	eventsHandler := handlers.NewEventsHandler(store, opts.machine, opts.correlationSvc, b.Logger())

	b.Dispatcher().SubscribeForCmd(&contracts.StartAdoption{}, controlHandler.Handle)
	b.Dispatcher().SubscribeForCmd(&contracts.ConfirmAdoption{}, eventsHandler.Handle)
	b.Dispatcher().SubscribeForCmd(&contracts.RejectAdoption{}, eventsHandler.Handle)

	b.Dispatcher().SubscribeForEvent(&contracts.PetReserved{}, eventsHandler.Handle)
	b.Dispatcher().SubscribeForEvent(&contracts.PetReservationFailed{}, eventsHandler.Handle)
	b.Dispatcher().SubscribeForEvent(&contracts.ChatCreated{}, eventsHandler.Handle)
	b.Dispatcher().SubscribeForEvent(&contracts.ChatCreationFailed{}, eventsHandler.Handle)
	b.Dispatcher().SubscribeForEvent(&contracts.ConfirmationDeadlineElapsed{}, eventsHandler.Handle)

	for _, adoptionEndpoint := range c.endpoints {
		b.Router().RegisterEndpoint(adoptionEndpoint,
			&contracts.ReservePet{},
			&contracts.UnreservePet{},
			&contracts.AdoptPet{},
			&contracts.CreateAdoptionChat{},
			&contracts.ConfirmationDeadlineElapsed{},
		)
	}

	if opts.watchdogPolicy != nil {
		c.watchdog = timeout.NewWatchdog(store, b.Router(), opts.correlationSvc, *opts.watchdogPolicy, b.Logger())
	}

	return nil
}

// Watchdog returns the confirmation watchdog if one was configured, the caller
// is responsible for running it
func (c *Component) Watchdog() *timeout.Watchdog {
	return c.watchdog
}

func (c *Component) RegisterEndpoints(endpoints ...endpoint.Endpoint) {
	c.endpoints = append(c.endpoints, endpoints...)
}

func WithCorrelationService(svc sagaPkg.CorrelationService) configOption {
	return func(o *opts) {
		o.correlationSvc = svc
	}
}

func WithMachine(machine *sagaPkg.Machine) configOption {
	return func(o *opts) {
		o.machine = machine
	}
}

func WithConfirmationWatchdog(policy timeout.Policy) configOption {
	return func(o *opts) {
		o.watchdogPolicy = &policy
	}
}

func WithAPIServer(mux *http.ServeMux) configOption {
	return func(o *opts) {
		o.apiServerMux = mux
	}
}

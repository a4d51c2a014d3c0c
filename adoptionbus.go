package adoption

import (
	"errors"

	"github.com/pawshelter/adoption/log"
	"github.com/pawshelter/adoption/pubsub/dispatcher"
	"github.com/pawshelter/adoption/pubsub/endpoint"
	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/pubsub/message/execution"
	"github.com/pawshelter/adoption/pubsub/subscriber"
	"github.com/pawshelter/adoption/pubsub/transport"
	"github.com/pawshelter/adoption/runtime/scheme"
)

// Component wraps booting of a unit which registers its handlers and endpoints on the bus
type Component interface {
	Init(b *Bus) error
}

// SubscriberOption allows to provide a few options for configuring Subscriber
type SubscriberOption func(subscriberOpts *subscriberOpts, c *container)

type subscriberOpts struct {
	subscriber subscriber.Subscriber
	transport  transport.Transport
}

// WithSubscriber option allows to specify your own implementation of Subscriber for the Bus
func WithSubscriber(subscriber subscriber.Subscriber) SubscriberOption {
	return func(subscriberOpts *subscriberOpts, c *container) {
		subscriberOpts.subscriber = subscriber
	}
}

// DefaultWithTransport option allows to specify your own transport which will be used in the default subscriber
func DefaultWithTransport(transport transport.Transport) SubscriberOption {
	return func(subscriberOpts *subscriberOpts, c *container) {
		subscriberOpts.transport = transport
	}
}

// ConfigOption allows to configure Bus's container
type ConfigOption func(o *container)

type container struct {
	msgExecutionCtxFactory execution.MessageExecutionCtxFactory
	messagesDispatcher     dispatcher.Dispatcher
	router                 endpoint.Router
	marshaller             message.Marshaller
	messageDecoder         message.Decoder
	processor              subscriber.Processor
	scheme                 scheme.KnownTypesRegistry
	components             []Component
}

// WithComponents specifies a list of additional components you want to be registered in the Bus
func WithComponents(components ...Component) ConfigOption {
	return func(c *container) {
		c.components = append(c.components, components...)
	}
}

// WithRouter allows to provide another endpoint.Router implementation
func WithRouter(router endpoint.Router) ConfigOption {
	return func(c *container) {
		c.router = router
	}
}

// WithDispatcher allows to provide another dispatcher.Dispatcher implementation
func WithDispatcher(dispatcher dispatcher.Dispatcher) ConfigOption {
	return func(c *container) {
		c.messagesDispatcher = dispatcher
	}
}

// WithMarshaller allows to provide another message.Marshaller implementation
func WithMarshaller(marshaller message.Marshaller) ConfigOption {
	return func(c *container) {
		c.marshaller = marshaller
	}
}

// WithSchemeRegistry allows to specify scheme.KnownTypesRegistry with pre registered types
func WithSchemeRegistry(scheme scheme.KnownTypesRegistry) ConfigOption {
	return func(c *container) {
		c.scheme = scheme
	}
}

// WithMessageExecutionFactory allows to provide own execution.MessageExecutionCtxFactory
func WithMessageExecutionFactory(factory execution.MessageExecutionCtxFactory) ConfigOption {
	return func(c *container) {
		c.msgExecutionCtxFactory = factory
	}
}

// Bus aggregates the messaging parts of the orchestrator: dispatcher, router,
// scheme registry and the subscriber which pumps packages from the transport.
type Bus struct {
	messagesDispatcher dispatcher.Dispatcher
	router             endpoint.Router
	scheme             scheme.KnownTypesRegistry
	marshaller         message.Marshaller
	subscriber         subscriber.Subscriber
	logger             log.Logger
}

// NewBus constructs the Bus, allows to specify logger, choose subscriber or use default with transport
// and other options which swap implementations of the remaining parts
func NewBus(logger log.Logger, subscriberOption SubscriberOption, configOpts ...ConfigOption) (*Bus, error) {
	b := &Bus{logger: logger}

	opts := &container{}
	for _, config := range configOpts {
		config(opts)
	}

	if opts.scheme == nil {
		opts.scheme = scheme.KnownTypesRegistryInstance
	}

	if opts.messagesDispatcher == nil {
		opts.messagesDispatcher = dispatcher.NewDispatcher()
	}

	if opts.router == nil {
		opts.router = endpoint.NewRouter()
	}

	if opts.marshaller == nil {
		opts.marshaller = message.NewJSONMarshaller(opts.scheme)
	}

	if opts.msgExecutionCtxFactory == nil {
		opts.msgExecutionCtxFactory = execution.NewMessageExecutionCtxFactory(opts.router, logger)
	}

	if opts.messageDecoder == nil {
		opts.messageDecoder = message.NewDecoder(opts.marshaller)
	}

	if opts.processor == nil {
		opts.processor = subscriber.NewMessageProcessor(opts.messageDecoder, opts.msgExecutionCtxFactory, opts.messagesDispatcher, logger)
	}

	b.messagesDispatcher = opts.messagesDispatcher
	b.router = opts.router
	b.scheme = opts.scheme
	b.marshaller = opts.marshaller

	subscriberOpt := &subscriberOpts{}
	subscriberOption(subscriberOpt, opts)

	if subscriberOpt.subscriber != nil {
		b.subscriber = subscriberOpt.subscriber
	} else if subscriberOpt.transport != nil {
		b.subscriber = subscriber.NewSubscriber(subscriberOpt.transport, opts.processor, logger)
	} else {
		return nil, errors.New("subscriber is nil")
	}

	for _, component := range opts.components {
		if err := component.Init(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Dispatcher returns an instance of dispatcher.Dispatcher
func (b *Bus) Dispatcher() dispatcher.Dispatcher {
	return b.messagesDispatcher
}

// Router returns an instance of endpoint.Router
func (b *Bus) Router() endpoint.Router {
	return b.router
}

// SchemeRegistry returns the scheme.KnownTypesRegistry which contains all commands and events the bus works with
func (b *Bus) SchemeRegistry() scheme.KnownTypesRegistry {
	return b.scheme
}

// Marshaller returns the message.Marshaller the bus decodes packages with
func (b *Bus) Marshaller() message.Marshaller {
	return b.marshaller
}

// Subscriber returns an instance of subscriber.Subscriber which controls the main flow of messages
func (b *Bus) Subscriber() subscriber.Subscriber {
	return b.subscriber
}

// Logger returns an instance of logger
func (b *Bus) Logger() log.Logger {
	return b.logger
}

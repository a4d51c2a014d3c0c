package dispatcher

import (
	"fmt"
	"reflect"

	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/pubsub/message/execution"
	"github.com/pawshelter/adoption/runtime/scheme"
)

// Dispatcher maps received message types to executors. A command type has exactly one
// handler, an event type may have many listeners.
type Dispatcher interface {
	Match(obj message.Object) []execution.Executor
	SubscribeForCmd(obj message.Object, executor execution.Executor) Dispatcher
	SubscribeForEvent(obj message.Object, executor execution.Executor) Dispatcher
}

func NewDispatcher() Dispatcher {
	return &dispatcher{
		handlers:  make(map[reflect.Type]execution.Executor),
		listeners: make(map[reflect.Type][]execution.Executor),
	}
}

type dispatcher struct {
	handlers  map[reflect.Type]execution.Executor
	listeners map[reflect.Type][]execution.Executor
}

func (d dispatcher) Match(obj message.Object) []execution.Executor {
	structType := scheme.GetStructType(obj)

	if handler, exists := d.handlers[structType]; exists {
		return []execution.Executor{handler}
	}

	return d.listeners[structType]
}

func (d *dispatcher) SubscribeForCmd(obj message.Object, executor execution.Executor) Dispatcher {
	structType := scheme.GetStructType(obj)

	if _, subscribedForAnEvent := d.listeners[structType]; subscribedForAnEvent {
		panic(fmt.Sprintf("obj %s is already subscribed for an event listener", structType.String()))
	}

	d.handlers[structType] = executor
	return d
}

func (d *dispatcher) SubscribeForEvent(obj message.Object, executor execution.Executor) Dispatcher {
	structType := scheme.GetStructType(obj)

	if _, subscribedForACmd := d.handlers[structType]; subscribedForACmd {
		panic(fmt.Sprintf("obj %s is already subscribed for a cmd handler", structType.String()))
	}

	executorPtr := reflect.ValueOf(executor).Pointer()

	for _, listener := range d.listeners[structType] {
		// executors are funcs, compare by pointer to dedupe repeated registrations
		if reflect.ValueOf(listener).Pointer() == executorPtr {
			return d
		}
	}

	d.listeners[structType] = append(d.listeners[structType], executor)
	return d
}

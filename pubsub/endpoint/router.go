package endpoint

import (
	"reflect"

	"github.com/pawshelter/adoption/pubsub/message"
	"github.com/pawshelter/adoption/runtime/scheme"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/endpoint/router.go -package endpoint . Router

// Router is a registry of endpoints per message type. Each type can have multiple endpoints assigned.
type Router interface {
	RegisterEndpoint(endpoint Endpoint, objects ...message.Object)
	Route(obj message.Object) []Endpoint
}

func NewRouter() Router {
	return &router{
		routes: make(map[reflect.Type][]Endpoint),
	}
}

type router struct {
	routes map[reflect.Type][]Endpoint
}

func (r *router) RegisterEndpoint(endpoint Endpoint, objects ...message.Object) {
	for _, obj := range objects {
		structType := scheme.GetStructType(obj)
		r.routes[structType] = append(r.routes[structType], endpoint)
	}
}

func (r router) Route(obj message.Object) []Endpoint {
	structType := scheme.GetStructType(obj)
	if routes, ok := r.routes[structType]; ok {
		return routes
	}

	return []Endpoint{}
}

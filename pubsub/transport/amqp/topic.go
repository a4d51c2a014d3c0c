package amqp

import "github.com/pawshelter/adoption/pubsub/transport"

func Topic(name string, durable, autoDelete, internal, noWait bool) transport.Topic {
	return amqpTopic{name: name, durable: durable, autoDelete: autoDelete, internal: internal, noWait: noWait}
}

type amqpTopic struct {
	name       string
	durable    bool
	autoDelete bool
	internal   bool
	noWait     bool
}

func (t amqpTopic) Name() string {
	return t.name
}

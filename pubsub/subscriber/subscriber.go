package subscriber

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawshelter/adoption/log"
	busErrs "github.com/pawshelter/adoption/pubsub/errors"
	"github.com/pawshelter/adoption/pubsub/transport"
	"github.com/pawshelter/adoption/pubsub/transport/amqp"
	"github.com/pkg/errors"
)

// Subscriber listens to queues and processes packages. Gracefully shuts down
// on os.Signal or ctx.Done().
type Subscriber interface {
	Run(ctx context.Context, queues ...transport.Queue) error
	Stop(ctx context.Context) error
}

// Config tunes the subscriber workflow
type Config struct {
	// WorkersCount is the number of workers processing packages concurrently
	WorkersCount uint
	// WorkerWaitingAssignmentTimeout is how long a worker waits for a package before returning to the pool
	WorkerWaitingAssignmentTimeout time.Duration
	// PackageProcessingMaxTime limits processing of a single package
	PackageProcessingMaxTime time.Duration
	// GracefulShutdownTimeout limits waiting for workers on shutdown
	GracefulShutdownTimeout time.Duration
}

var DefaultConfig = Config{
	WorkersCount:                   10,
	WorkerWaitingAssignmentTimeout: time.Second * 3,
	PackageProcessingMaxTime:       time.Second * 60,
	GracefulShutdownTimeout:        time.Second * 61,
}

type subscriberOpts struct {
	config *Config
}

type Opt func(o *subscriberOpts)

func WithConfig(c *Config) Opt {
	return func(o *subscriberOpts) {
		o.config = c
	}
}

func NewSubscriber(tr transport.Transport, processor Processor, logger log.Logger, opts ...Opt) Subscriber {
	sOpts := &subscriberOpts{}

	for _, o := range opts {
		o(sOpts)
	}

	config := &DefaultConfig

	if sOpts.config != nil {
		config = sOpts.config
	}

	return &subscriber{
		transport:   tr,
		logger:      logger,
		processor:   processor,
		workersPool: newWorkersPool(config.WorkersCount),
		config:      config,
	}
}

type subscriber struct {
	transport   transport.Transport
	logger      log.Logger
	processor   Processor
	workersPool *workersPool
	config      *Config
}

func (s *subscriber) Run(ctx context.Context, queues ...transport.Queue) error {
	s.logger.Logf(log.InfoLevel, "started subscriber. listening to queues: %v", queues)

	signalChan := make(chan os.Signal, 1)
	defer close(signalChan)

	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	consumerCtx, cancelConsumerCtx := context.WithCancel(ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.GracefulShutdownTimeout)
	defer shutdownCancel()
	defer cancelConsumerCtx()

	consumedPkgs, err := s.transport.Consume(consumerCtx, queues, amqp.WithQosPrefetchCount(s.config.WorkersCount))

	if err != nil {
		return errors.WithStack(err)
	}

	s.workersPool.start(consumerCtx)

	scheduleTicker := time.NewTicker(s.config.WorkerWaitingAssignmentTimeout)
	defer scheduleTicker.Stop()

	for {
		select {
		case worker, open := <-s.workersPool.queue():
			if !open {
				s.logger.Logf(log.InfoLevel, "worker's channel is closed")
				return nil
			}
			select {
			case <-scheduleTicker.C:
				s.logger.Logf(log.DebugLevel, "worker was waiting %s for a job, returning it to the pool", s.config.WorkerWaitingAssignmentTimeout)
				s.workersPool.queue() <- worker
			case incomingPkg, open := <-consumedPkgs:
				if !open {
					return nil
				}
				worker <- newTaskProcessPkg(ctx, incomingPkg, s)
			}
		case <-ctx.Done():
			s.logger.Logf(log.InfoLevel, "subscriber's context was canceled")
			if err := s.Stop(shutdownCtx); err != nil {
				return errors.Wrap(err, "stopping subscriber gracefully")
			}
			return nil
		case <-signalChan:
			s.logger.Logf(log.InfoLevel, "received kill signal")
			if err := s.Stop(shutdownCtx); err != nil {
				return errors.Wrap(err, "stopping subscriber gracefully")
			}
			return nil
		}
	}
}

func (s *subscriber) processPackage(ctx context.Context, inPkg transport.IncomingPkg) {
	processorCtx, processorCancel := context.WithTimeout(ctx, s.config.PackageProcessingMaxTime)
	defer processorCancel()

	if err := s.processor.Process(processorCtx, inPkg); err != nil {
		s.logger.Logf(log.ErrorLevel, "error processing pkg %s from %s. %s", inPkg.UID(), inPkg.Origin(), err)

		if busErrs.StatusOf(errors.Cause(err)) != busErrs.NoRetry {
			// not acked, the transport will redeliver
			return
		}
	}

	if err := inPkg.Ack(); err != nil {
		s.logger.Logf(log.ErrorLevel, "error acking package %s. %s", inPkg.UID(), err)
	}
}

func (s *subscriber) Stop(ctx context.Context) error {
	if s.workersPool.busyWorkers() > 0 {
		s.logger.Logf(log.InfoLevel, "graceful shutdown, waiting for %d tasks in progress", s.workersPool.busyWorkers())
	}

	waitingTicker := time.NewTicker(time.Second)
	defer waitingTicker.Stop()

	for s.workersPool.busyWorkers() > 0 {
		select {
		case <-ctx.Done():
			s.logger.Logf(log.WarnLevel, "stopped subscriber because of canceled parent ctx")
			return nil
		case <-waitingTicker.C:
			s.logger.Logf(log.InfoLevel, "waiting for workers to finish remaining tasks. tasks in progress: %d", s.workersPool.busyWorkers())
		}
	}

	s.logger.Logf(log.InfoLevel, "all tasks are finished, disconnecting from transport")

	return s.transport.Disconnect(ctx)
}

type processPkg struct {
	ctx        context.Context
	pkg        transport.IncomingPkg
	subscriber *subscriber
}

func newTaskProcessPkg(ctx context.Context, pkg transport.IncomingPkg, subscriber *subscriber) *processPkg {
	return &processPkg{
		ctx:        ctx,
		pkg:        pkg,
		subscriber: subscriber,
	}
}

func (p *processPkg) do() {
	p.subscriber.processPackage(p.ctx, p.pkg)
}

package timeout

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pawshelter/adoption/log"
	"github.com/pawshelter/adoption/pubsub/endpoint"
	"github.com/pawshelter/adoption/pubsub/message"
	sagaPkg "github.com/pawshelter/adoption/saga"
	"github.com/pawshelter/adoption/saga/contracts"
)

const scanLimit = 100

// Policy tells the watchdog how long an adoption may wait for confirmation
// and how often overdue instances are looked for.
type Policy struct {
	Deadline     time.Duration
	ScanInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Deadline: time.Hour * 24, ScanInterval: time.Minute}
}

func NewWatchdog(store sagaPkg.Store, router endpoint.Router, correlationSvc sagaPkg.CorrelationService, policy Policy, logger log.Logger) *Watchdog {
	return &Watchdog{store: store, router: router, correlationSvc: correlationSvc, policy: policy, logger: logger, now: time.Now}
}

// Watchdog periodically scans the store for adoptions stuck awaiting confirmation
// past the deadline and feeds a deadline event back into the bus for each of them.
// The event goes through the regular pipeline, so a confirmation racing with the
// deadline is resolved by the version guard like any other concurrent message.
type Watchdog struct {
	store          sagaPkg.Store
	router         endpoint.Router
	correlationSvc sagaPkg.CorrelationService
	policy         Policy
	logger         log.Logger
	now            func() time.Time
}

// Run blocks scanning on every tick until ctx is cancelled
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.policy.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.scan(ctx); err != nil {
				w.logger.Logf(log.ErrorLevel, "scanning for overdue adoptions: %s", err)
			}
		}
	}
}

func (w *Watchdog) scan(ctx context.Context) error {
	overdue, err := w.store.GetByFilter(ctx,
		sagaPkg.WithStatus(sagaPkg.StatusAwaitingConfirmation),
		sagaPkg.WithUpdatedBefore(w.now().Add(-w.policy.Deadline)),
		sagaPkg.WithOffsetAndLimit(0, scanLimit),
	)
	if err != nil {
		return errors.Wrap(err, "querying overdue adoptions")
	}

	for _, instance := range overdue {
		if err := w.dispatch(ctx, instance); err != nil {
			w.logger.Logf(log.ErrorLevel, "dispatching deadline event for adoption %s: %s", instance.CorrelationID, err)
			continue
		}

		w.logger.Logf(log.InfoLevel, "adoption %s exceeded the confirmation deadline", instance.CorrelationID)
	}

	return nil
}

func (w *Watchdog) dispatch(ctx context.Context, instance *sagaPkg.Instance) error {
	payload := &contracts.ConfirmationDeadlineElapsed{CorrelationUID: instance.CorrelationID}

	endpoints := w.router.Route(payload)
	if len(endpoints) == 0 {
		return errors.Errorf("no endpoint registered for %s", payload.GroupKind())
	}

	headers := make(message.Headers)
	w.correlationSvc.AddCorrelationID(headers, instance.CorrelationID)
	outcomingMsg := message.NewOutcomingMessage(payload, message.WithHeaders(headers))

	for _, e := range endpoints {
		if err := e.Send(ctx, outcomingMsg); err != nil {
			return errors.Wrapf(err, "sending deadline event to endpoint %s", e.Name())
		}
	}

	return nil
}

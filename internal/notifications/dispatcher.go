package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/logger"
	"github.com/servio-app/servio-backend/pkg/metrics"
)

// Event is one notification to be stored and fanned out.
type Event struct {
	Kind          enums.NotificationKind
	RecipientID   uuid.UUID
	RecipientType enums.RecipientType
	Title         string
	Body          string
	Data          map[string]any
}

// Sender delivers a stored notification to one external channel (push, email).
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

// Dispatcher persists an event and fans it out without ever surfacing an
// error to the caller. Delivery is best-effort by contract.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

type dispatcher struct {
	repo    Repository
	senders []Sender
	logg    *logger.Logger
	metrics *metrics.DispatchMetrics
	timeout time.Duration

	wg sync.WaitGroup
}

const defaultDispatchTimeout = 15 * time.Second

// NewDispatcher builds the fire-and-forget dispatcher.
func NewDispatcher(repo Repository, logg *logger.Logger, m *metrics.DispatchMetrics, timeout time.Duration, senders ...Sender) (*dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &dispatcher{
		repo:    repo,
		senders: senders,
		logg:    logg,
		metrics: m,
		timeout: timeout,
	}, nil
}

// Dispatch stores the event and fans it out in a short-lived goroutine. It
// never blocks on delivery and never returns an error into the caller's
// transaction.
func (d *dispatcher) Dispatch(ctx context.Context, event Event) {
	if event.RecipientID == uuid.Nil || event.Kind == "" {
		d.logg.Warn(ctx, "dropping notification event with missing recipient or kind")
		return
	}

	row := models.Notification{
		ID:            uuid.New(),
		RecipientID:   event.RecipientID,
		RecipientType: event.RecipientType,
		Kind:          event.Kind,
		Title:         event.Title,
		Body:          event.Body,
	}
	if len(event.Data) > 0 {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			d.logg.Warn(ctx, fmt.Sprintf("marshal notification data: %v", err))
		} else {
			row.Data = raw
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Detach from the request context so an already-finished request
		// cannot cancel delivery mid-flight.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		start := time.Now()
		var errs error
		if err := d.repo.Create(dctx, &row); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store notification: %w", err))
		}
		for _, sender := range d.senders {
			if err := sender.Send(dctx, row); err != nil {
				errs = multierr.Append(errs, err)
			}
		}

		kind := string(event.Kind)
		d.metrics.ObserveDuration(kind, time.Since(start))
		if errs != nil {
			d.metrics.IncFailure(kind)
			fields := map[string]any{"kind": kind, "recipient_id": event.RecipientID.String()}
			d.logg.Error(d.logg.WithFields(dctx, fields), "notification dispatch failed", errs)
			return
		}
		d.metrics.IncSuccess(kind)
	}()
}

// Wait blocks until every in-flight dispatch has finished. Used on shutdown
// and in tests.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}

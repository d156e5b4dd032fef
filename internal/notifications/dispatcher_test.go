package notifications

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/logger"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (c *capturingSender) Send(_ context.Context, n models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *capturingSender) delivered() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Notification(nil), c.sent...)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestDispatcherStoresAndFansOut(t *testing.T) {
	var (
		mu     sync.Mutex
		stored []models.Notification
	)
	repo := &fakeRepository{
		createFn: func(_ context.Context, n *models.Notification) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, *n)
			return nil
		},
	}
	sender := &capturingSender{}

	d, err := NewDispatcher(repo, testLogger(), nil, time.Second, sender)
	require.NoError(t, err)

	recipientID := uuid.New()
	d.Dispatch(context.Background(), Event{
		Kind:          enums.NotificationKindBookingCreated,
		RecipientID:   recipientID,
		RecipientType: enums.RecipientTypeUser,
		Title:         "Booking received",
		Body:          "Your booking is awaiting approval.",
		Data:          map[string]any{"booking_id": uuid.New().String()},
	})
	d.Wait()

	mu.Lock()
	require.Len(t, stored, 1)
	row := stored[0]
	mu.Unlock()

	assert.Equal(t, recipientID, row.RecipientID)
	assert.Equal(t, enums.NotificationKindBookingCreated, row.Kind)
	assert.NotEmpty(t, row.Data)

	delivered := sender.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, row.ID, delivered[0].ID)
}

func TestDispatcherDropsEventWithoutRecipient(t *testing.T) {
	var created int
	repo := &fakeRepository{
		createFn: func(_ context.Context, _ *models.Notification) error {
			created++
			return nil
		},
	}

	d, err := NewDispatcher(repo, testLogger(), nil, time.Second)
	require.NoError(t, err)

	d.Dispatch(context.Background(), Event{Kind: enums.NotificationKindBookingCreated})
	d.Dispatch(context.Background(), Event{RecipientID: uuid.New()})
	d.Wait()

	assert.Zero(t, created)
}

func TestDispatcherSwallowsDeliveryFailures(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(_ context.Context, _ *models.Notification) error {
			return errors.New("db down")
		},
	}
	sender := &capturingSender{err: errors.New("gateway down")}

	d, err := NewDispatcher(repo, testLogger(), nil, time.Second, sender)
	require.NoError(t, err)

	// Failures are logged, never surfaced to the caller.
	d.Dispatch(context.Background(), Event{
		Kind:          enums.NotificationKindBookingApproved,
		RecipientID:   uuid.New(),
		RecipientType: enums.RecipientTypeUser,
	})
	d.Wait()

	assert.Empty(t, sender.delivered())
}

func TestDispatcherSurvivesCancelledRequestContext(t *testing.T) {
	var (
		mu     sync.Mutex
		stored int
	)
	repo := &fakeRepository{
		createFn: func(ctx context.Context, _ *models.Notification) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			stored++
			return nil
		},
	}

	d, err := NewDispatcher(repo, testLogger(), nil, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, Event{
		Kind:          enums.NotificationKindBookingCompleted,
		RecipientID:   uuid.New(),
		RecipientType: enums.RecipientTypeUser,
	})
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, stored)
}

package vendors

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
)

func newVendorsService(t *testing.T) (Service, Repository) {
	t.Helper()

	db := setupVendorsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func requireServiceCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}

func TestCreateVendorValidatesType(t *testing.T) {
	svc, _ := newVendorsService(t)
	ctx := context.Background()

	_, err := svc.CreateVendor(ctx, CreateVendorInput{
		UserID:      uuid.New(),
		DisplayName: "Pine Cleaning",
		Type:        "cooperative",
	})
	requireServiceCode(t, err, pkgerrors.CodeValidation)

	vendor, err := svc.CreateVendor(ctx, CreateVendorInput{
		UserID:      uuid.New(),
		DisplayName: "Pine Cleaning",
		Type:        "company",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, vendor.ID)
	assert.False(t, vendor.ManualAssignment)
}

func TestRegisterForServiceIsIdempotent(t *testing.T) {
	svc, repo := newVendorsService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, CreateVendorInput{
		UserID:      uuid.New(),
		DisplayName: "Solo Plumber",
		Type:        "individual",
	})
	require.NoError(t, err)

	serviceID := uuid.New()
	input := RegisterServiceInput{VendorID: vendor.ID, ServiceID: serviceID}
	require.NoError(t, svc.RegisterForService(ctx, input))
	require.NoError(t, svc.RegisterForService(ctx, input))

	registered, err := repo.IsRegisteredForService(ctx, vendor.ID, serviceID)
	require.NoError(t, err)
	assert.True(t, registered)
}

func TestRegisterForServiceUnknownVendor(t *testing.T) {
	svc, _ := newVendorsService(t)

	err := svc.RegisterForService(context.Background(), RegisterServiceInput{
		VendorID:  uuid.New(),
		ServiceID: uuid.New(),
	})
	requireServiceCode(t, err, pkgerrors.CodeNotFound)
}

func TestSetManualAssignmentToggle(t *testing.T) {
	svc, _ := newVendorsService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, CreateVendorInput{
		UserID:      uuid.New(),
		DisplayName: "Toggle Co",
		Type:        "company",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetManualAssignment(ctx, vendor.ID, true))
	reloaded, err := svc.GetVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.ManualAssignment)

	require.NoError(t, svc.SetManualAssignment(ctx, vendor.ID, false))
	reloaded, err = svc.GetVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.ManualAssignment)

	requireServiceCode(t, svc.SetManualAssignment(ctx, uuid.New(), true), pkgerrors.CodeNotFound)
}

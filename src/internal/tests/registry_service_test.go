package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolveAndAnalyticalFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	leaf, err := f.registry.Resolve(ctx, testTenant, services.AccountBankDefault)
	require.NoError(t, err)
	assert.True(t, leaf.IsAnalytical)
	assert.Equal(t, domain.NatureDebit, leaf.Nature)

	analytical, err := f.registry.IsAnalytical(ctx, testTenant, "1.1")
	require.NoError(t, err)
	assert.False(t, analytical)

	_, err = f.registry.Resolve(ctx, testTenant, "9.9.9.99")
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
}

func TestRegistryAncestorsRootFirst(t *testing.T) {
	f := newFixture(t)

	ancestors, err := f.registry.Ancestors(context.Background(), testTenant, services.AccountReceivableDefault)
	require.NoError(t, err)
	require.Len(t, ancestors, 3)
	assert.Equal(t, "1", ancestors[0].Code)
	assert.Equal(t, "1.1", ancestors[1].Code)
	assert.Equal(t, "1.1.2", ancestors[2].Code)
}

func TestRegistryCacheInvalidationOnCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Warm the cache, then create a new account through the service.
	_, err := f.registry.Resolve(ctx, testTenant, services.AccountBankDefault)
	require.NoError(t, err)

	created, err := f.registry.CreateAccount(ctx, domain.Account{
		TenantID:     testTenant,
		Code:         "4.1.2.05",
		Name:         "Software e Licencas",
		Type:         domain.AccountTypeExpense,
		IsAnalytical: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NatureDebit, created.Nature)

	// The fresh account resolves without restarting anything.
	resolved, err := f.registry.Resolve(ctx, testTenant, "4.1.2.05")
	require.NoError(t, err)
	assert.Equal(t, created.Name, resolved.Name)
}

func TestRegistrySeedIsIdempotent(t *testing.T) {
	f := newFixture(t)

	// The fixture already seeded once; a second seed creates nothing.
	created, err := f.registry.Seed(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestRegistryIsolatesTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Resolve(ctx, "other-tenant", services.AccountBankDefault)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
}

package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/partscout/pkg/errors"
)

func TestMemoryStoreEnsureCompany(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ti, err := s.EnsureCompany(ctx, Company{Name: "Texas Instruments", Currency: "USD", IsSupplier: true})
	require.NoError(t, err)
	assert.Equal(t, 1, ti.PK)

	again, err := s.EnsureCompany(ctx, Company{Name: "Texas Instruments"})
	require.NoError(t, err)
	assert.Equal(t, ti, again, "existing company is returned unchanged")

	fe, err := s.EnsureCompany(ctx, Company{Name: "Future Electronics", Currency: "EUR", IsSupplier: true})
	require.NoError(t, err)
	assert.Equal(t, 2, fe.PK)

	byPK, err := s.EnsureCompany(ctx, Company{PK: 2, Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Future Electronics", byPK.Name, "known PK wins over name")

	assert.Len(t, s.Companies(), 2)
}

func TestMemoryStoreRejectsEmptyName(t *testing.T) {
	_, err := NewMemoryStore().EnsureCompany(context.Background(), Company{Name: "  "})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

package mobile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

func TestStore_Meta(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	v, err := s.Meta(ctx, MetaToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMeta(ctx, MetaToken, "a"))
	require.NoError(t, s.SetMeta(ctx, MetaToken, "b"))
	v, err = s.Meta(ctx, MetaToken)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestStore_Package(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, ok, err := s.Package(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	v, err := s.PackageVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, s.SavePackage(ctx, testPackage(1)))
	require.NoError(t, s.SavePackage(ctx, testPackage(4)))

	p, ok, err := s.Package(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), p.Version)
	assert.NoError(t, p.Verify())
	v, err = s.PackageVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestStore_Orders(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	a := LocalOrder{LocalID: "a", State: StatePending, CustomerID: 1, Total: d("10.50"), CreatedAt: base.Add(time.Minute)}
	b := LocalOrder{ServerID: 9, State: StateSynced, Status: domain.OrderApproved, CreatedAt: base}
	require.NoError(t, s.SaveOrder(ctx, a))
	require.NoError(t, s.SaveOrder(ctx, b))

	all, err := s.Orders(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "srv-9", all[0].Key())
	assert.Equal(t, "a", all[1].Key())
	assert.True(t, d("10.50").Equal(all[1].Total))

	pending, err := s.Orders(ctx, StatePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	a.State = StateRejected
	require.NoError(t, s.SaveOrder(ctx, a))
	got, err := s.Order(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StateRejected, got.State)

	_, err = s.Order(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.ReplaceOrders(ctx, []LocalOrder{b}))
	all, err = s.Orders(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(9), all[0].ServerID)
}

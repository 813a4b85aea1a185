package mobile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/editguard"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

type fakeRemote struct {
	mu       sync.Mutex
	pushed   [][]syncpkg.UploadOrder
	reject   map[string]string
	pushErr  error
	pkg      syncpkg.Package
	pulls    atomic.Int32
	lastFrom int64

	// when set, Push closes started and waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeRemote) Push(_ context.Context, orders []syncpkg.UploadOrder) (syncpkg.PushResponse, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return syncpkg.PushResponse{}, f.pushErr
	}
	f.pushed = append(f.pushed, orders)
	var out syncpkg.PushResponse
	for i, o := range orders {
		if msg, ok := f.reject[o.LocalID]; ok {
			out.Rejected++
			out.Results = append(out.Results, syncpkg.UploadResult{LocalID: o.LocalID, Error: msg})
			continue
		}
		out.Accepted++
		out.Results = append(out.Results, syncpkg.UploadResult{
			LocalID: o.LocalID, Accepted: true, OrderID: int64(100 + i), Number: "PED-20240301-00001",
		})
	}
	return out, nil
}

func (f *fakeRemote) Pull(_ context.Context, since int64) (syncpkg.Package, bool, error) {
	f.pulls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrom = since
	if since == f.pkg.Version {
		return syncpkg.Package{}, true, nil
	}
	return f.pkg, false, nil
}

func newSession(t *testing.T, remote *fakeRemote) (*Session, *Store) {
	t.Helper()
	store := openStore(t)
	require.NoError(t, store.SavePackage(context.Background(), testPackage(1)))
	s := NewSession(store, remote, editguard.New(), nopLogger())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s, store
}

func ptr[T any](v T) *T { return &v }

func TestNewOrder(t *testing.T) {
	s, _ := newSession(t, &fakeRemote{})

	o, err := s.NewOrder(context.Background(), Draft{
		CustomerID:     1,
		PaymentTableID: ptr(int64(3)),
		Items: []domain.OrderItemInput{
			{ProductID: 10, Unit: "un", Quantity: d("6")},
			{ProductID: 10, Quantity: d("2"), UnitPrice: ptr(d("110"))},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.LocalID)
	assert.Equal(t, StatePending, o.State)
	assert.Equal(t, "Mercado Central", o.CustomerName)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "UN", o.Items[0].Unit)
	assert.Equal(t, "10.00", o.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "60.00", o.Items[0].Total.StringFixed(2))
	assert.Equal(t, "8.33", o.Items[1].DiscountPercent.StringFixed(2))
	assert.Equal(t, "280.00", o.Total.StringFixed(2))
	assert.Equal(t, "15.000", o.Weight.StringFixed(3))

	require.Len(t, o.Installments, 2)
	assert.Equal(t, "140.00", o.Installments[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), o.Installments[0].DueDate)

	all, err := s.Orders(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewOrder_Rejected(t *testing.T) {
	s, _ := newSession(t, &fakeRemote{})
	item := []domain.OrderItemInput{{ProductID: 10, Quantity: d("1")}}

	tests := []struct {
		name  string
		draft Draft
	}{
		{"no items", Draft{CustomerID: 1}},
		{"unknown customer", Draft{CustomerID: 99, Items: item}},
		{"inactive customer", Draft{CustomerID: 2, Items: item}},
		{"unknown product", Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 5, Quantity: d("1")}}}},
		{"below minimum", Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 10, Quantity: d("1"), UnitPrice: ptr(d("100"))}}}},
		{"unknown payment table", Draft{CustomerID: 1, PaymentTableID: ptr(int64(4)), Items: item}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.NewOrder(context.Background(), tt.draft)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestNewOrder_NoPackage(t *testing.T) {
	s := NewSession(openStore(t), &fakeRemote{}, nil, nopLogger())
	_, err := s.NewOrder(context.Background(), Draft{CustomerID: 1})
	assert.ErrorIs(t, err, ErrNoPackage)
}

func TestSync_SkipsOrdersUnderEdit(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newSession(t, remote)
	ctx := context.Background()
	draft := Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 10, Quantity: d("1")}}}

	a, err := s.NewOrder(ctx, draft)
	require.NoError(t, err)
	b, err := s.NewOrder(ctx, draft)
	require.NoError(t, err)

	release := s.Guard().Begin(b.Key())
	defer release()

	next := testPackage(2)
	next.Orders = []domain.Order{
		{ID: 100, Number: "PED-20240301-00001", LocalID: a.LocalID, Status: domain.OrderApproved, CustomerID: 1, Total: d("120")},
		{ID: 200, Number: "PED-20240229-00009", Status: domain.OrderPending, CustomerID: 1, Total: d("50")},
	}
	remote.pkg = next

	res, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Pushed: 1, Accepted: 1, Held: 1, PackageVersion: 2, Downloaded: true}, res)
	require.Len(t, remote.pushed, 1)
	require.Len(t, remote.pushed[0], 1)
	assert.Equal(t, a.LocalID, remote.pushed[0][0].LocalID)
	assert.Equal(t, int64(1), remote.lastFrom)

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	byKey := map[string]LocalOrder{}
	for _, o := range orders {
		byKey[o.Key()] = o
	}
	require.Len(t, byKey, 3)
	assert.Equal(t, StateSynced, byKey[a.Key()].State)
	assert.Equal(t, domain.OrderApproved, byKey[a.Key()].Status)
	assert.Equal(t, int64(100), byKey[a.Key()].ServerID)
	assert.Equal(t, StatePending, byKey[b.Key()].State)
	assert.Equal(t, "PED-20240229-00009", byKey["srv-200"].Number)
}

func TestSync_RejectedOrderCanBeFixed(t *testing.T) {
	remote := &fakeRemote{pkg: testPackage(1)}
	s, store := newSession(t, remote)
	ctx := context.Background()

	o, err := s.NewOrder(ctx, Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 10, Quantity: d("1")}}})
	require.NoError(t, err)
	remote.reject = map[string]string{o.LocalID: "customer over credit limit"}

	res, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rejected)
	assert.False(t, res.Downloaded)

	got, err := store.Order(ctx, o.Key())
	require.NoError(t, err)
	assert.Equal(t, StateRejected, got.State)
	assert.Equal(t, "customer over credit limit", got.Error)

	edited, err := s.EditOrder(ctx, o.Key(), func(d *Draft) error {
		d.Notes = "  call before delivery "
		d.Items[0].Quantity = d.Items[0].Quantity.Add(d.Items[0].Quantity)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatePending, edited.State)
	assert.Empty(t, edited.Error)
	assert.Equal(t, "call before delivery", edited.Notes)
	assert.Equal(t, "240.00", edited.Total.StringFixed(2))
	assert.Equal(t, o.LocalID, edited.LocalID)
	assert.False(t, s.Guard().IsEditing(o.Key()))
}

func TestEditOrder_DuringUpload(t *testing.T) {
	remote := &fakeRemote{pkg: testPackage(1), started: make(chan struct{}), release: make(chan struct{})}
	s, store := newSession(t, remote)
	ctx := context.Background()

	o, err := s.NewOrder(ctx, Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 10, Quantity: d("1")}}})
	require.NoError(t, err)

	type result struct {
		res SyncResult
		err error
	}
	synced := make(chan result, 1)
	go func() {
		res, err := s.Sync(ctx)
		synced <- result{res, err}
	}()
	<-remote.started

	_, err = s.EditOrder(ctx, o.Key(), func(dr *Draft) error {
		dr.Notes = "edited"
		dr.Items[0].Quantity = d("3")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, s.Guard().IsEditing(o.Key()))

	close(remote.release)
	r := <-synced
	require.NoError(t, r.err)
	assert.Equal(t, 1, r.res.Accepted)

	stored, err := store.Order(ctx, o.Key())
	require.NoError(t, err)
	assert.Equal(t, StateSynced, stored.State)
	assert.Empty(t, stored.Notes)
	require.Len(t, remote.pushed, 1)
	assert.Equal(t, "1", remote.pushed[0][0].Items[0].Quantity.String())

	_, err = s.EditOrder(ctx, o.Key(), func(*Draft) error { return nil })
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEditOrder_Refused(t *testing.T) {
	s, store := newSession(t, &fakeRemote{})
	ctx := context.Background()
	require.NoError(t, store.SaveOrder(ctx, LocalOrder{ServerID: 5, State: StateSynced}))

	_, err := s.EditOrder(ctx, "srv-5", func(*Draft) error { return nil })
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.EditOrder(ctx, "missing", func(*Draft) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	o, err := s.NewOrder(ctx, Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 10, Quantity: d("1")}}})
	require.NoError(t, err)
	boom := errors.New("canceled by user")
	_, err = s.EditOrder(ctx, o.Key(), func(*Draft) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, s.Guard().Len())
}

func TestSync_PushFailureKeepsOrders(t *testing.T) {
	remote := &fakeRemote{pushErr: errors.New("connection refused")}
	s, store := newSession(t, remote)
	ctx := context.Background()

	o, err := s.NewOrder(ctx, Draft{CustomerID: 1, Items: []domain.OrderItemInput{{ProductID: 10, Quantity: d("1")}}})
	require.NoError(t, err)

	_, err = s.Sync(ctx)
	require.Error(t, err)
	assert.Zero(t, remote.pulls.Load())

	got, err := store.Order(ctx, o.Key())
	require.NoError(t, err)
	assert.Equal(t, StatePending, got.State)
	last, err := store.Meta(ctx, MetaLastSyncAt)
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestAutoSync(t *testing.T) {
	remote := &fakeRemote{pkg: testPackage(1)}
	s, _ := newSession(t, remote)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.AutoSync(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return remote.pulls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("auto sync did not stop")
	}
}

package mobile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/editguard"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// ErrNoPackage is returned when an order is created before the first sync.
var ErrNoPackage = errors.New("mobile: no data package yet, sync first")

// Remote is the sync server as seen by a session, implemented by *Client.
type Remote interface {
	Pull(ctx context.Context, since int64) (syncpkg.Package, bool, error)
	Push(ctx context.Context, orders []syncpkg.UploadOrder) (syncpkg.PushResponse, error)
}

// SyncResult summarizes one Sync.
type SyncResult struct {
	Pushed         int   `json:"pushed"`
	Accepted       int   `json:"accepted"`
	Rejected       int   `json:"rejected"`
	Held           int   `json:"held"` // pending orders skipped because they are being edited
	PackageVersion int64 `json:"package_version"`
	Downloaded     bool  `json:"downloaded"`
}

// Session is the device state of one sales rep.
type Session struct {
	store     *Store
	remote    Remote
	guard     *editguard.Guard
	uploading *editguard.Guard // orders in a push that has not answered yet
	log       *logger.Logger
	now       func() time.Time

	mu      sync.Mutex // serializes order writes and guard claims against the merge
	syncing sync.Mutex
}

func NewSession(store *Store, remote Remote, guard *editguard.Guard, log *logger.Logger) *Session {
	if guard == nil {
		guard = editguard.New()
	}
	return &Session{store: store, remote: remote, guard: guard, uploading: editguard.New(), log: log, now: time.Now}
}

func (s *Session) Guard() *editguard.Guard { return s.guard }

// Enroll registers the device with the server reached by c and keeps the
// credentials in the store.
func Enroll(ctx context.Context, store *Store, c *Client, salesRepCode, deviceName string) (syncpkg.RegisterResponse, error) {
	id, err := store.Meta(ctx, MetaDeviceID)
	if err != nil {
		return syncpkg.RegisterResponse{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	resp, err := c.Register(ctx, syncpkg.RegisterRequest{SalesRepCode: salesRepCode, DeviceID: id, DeviceName: deviceName})
	if err != nil {
		return syncpkg.RegisterResponse{}, err
	}
	for k, v := range map[string]string{
		MetaDeviceID:  resp.DeviceID,
		MetaToken:     resp.Token,
		MetaServerURL: c.BaseURL(),
		MetaSalesRep:  resp.SalesRep.Code,
	} {
		if err := store.SetMeta(ctx, k, v); err != nil {
			return syncpkg.RegisterResponse{}, err
		}
	}
	c.SetToken(resp.Token)
	return resp, nil
}

// price checks a draft against the package and prices it the way the order
// service will.
func price(p syncpkg.Package, d Draft, created time.Time) (LocalOrder, error) {
	if len(d.Items) == 0 {
		return LocalOrder{}, domain.Invalidf("at least one item is required")
	}
	c, ok := p.Customer(d.CustomerID)
	if !ok {
		return LocalOrder{}, domain.Invalidf("customer %d is not in the package", d.CustomerID)
	}
	if !c.Active {
		return LocalOrder{}, domain.Invalidf("customer %s is inactive", c.Code)
	}
	items, total, weight, err := domain.PriceItems(p.ProductMap(), d.Items)
	if err != nil {
		return LocalOrder{}, err
	}
	var installments []paymentplan.Installment
	if d.PaymentTableID != nil {
		t, ok := p.PaymentTable(*d.PaymentTableID)
		if !ok || !t.Active {
			return LocalOrder{}, domain.Invalidf("payment table %d is not available", *d.PaymentTableID)
		}
		if installments, err = paymentplan.Schedule(t.Terms, total, created); err != nil {
			return LocalOrder{}, domain.Invalidf("payment table %s: %v", t.Name, err)
		}
	}
	return LocalOrder{
		State:          StatePending,
		CustomerID:     c.ID,
		CustomerName:   c.Name,
		PaymentTableID: d.PaymentTableID,
		Notes:          strings.TrimSpace(d.Notes),
		Inputs:         d.Items,
		Items:          items,
		Total:          total,
		Weight:         weight,
		Installments:   installments,
		CreatedAt:      created,
	}, nil
}

func (s *Session) pkg(ctx context.Context) (syncpkg.Package, error) {
	p, ok, err := s.store.Package(ctx)
	if err != nil {
		return syncpkg.Package{}, err
	}
	if !ok {
		return syncpkg.Package{}, ErrNoPackage
	}
	return p, nil
}

// NewOrder prices and stores an order created offline.
func (s *Session) NewOrder(ctx context.Context, d Draft) (LocalOrder, error) {
	p, err := s.pkg(ctx)
	if err != nil {
		return LocalOrder{}, err
	}
	now := s.now().UTC()
	o, err := price(p, d, now)
	if err != nil {
		return LocalOrder{}, err
	}
	o.LocalID = uuid.NewString()
	o.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveOrder(ctx, o); err != nil {
		return LocalOrder{}, err
	}
	s.log.Info("order_created", map[string]any{"local_id": o.LocalID, "total": o.Total.StringFixed(2)})
	return o, nil
}

// EditOrder holds the order in the edit guard while edit runs, so a sync
// neither uploads nor overwrites it, then reprices and stores the result.
// An order whose upload is in flight cannot be edited until the push answers.
func (s *Session) EditOrder(ctx context.Context, key string, edit func(*Draft) error) (LocalOrder, error) {
	s.mu.Lock()
	if s.uploading.IsEditing(key) {
		s.mu.Unlock()
		return LocalOrder{}, fmt.Errorf("%w: order %s is being uploaded", domain.ErrConflict, key)
	}
	release := s.guard.Begin(key)
	s.mu.Unlock()
	defer release()

	cur, err := s.store.Order(ctx, key)
	if err != nil {
		return LocalOrder{}, err
	}
	if !cur.Editable() {
		return LocalOrder{}, fmt.Errorf("%w: order %s is already on the server", domain.ErrInvalidTransition, key)
	}
	d := Draft{CustomerID: cur.CustomerID, PaymentTableID: cur.PaymentTableID, Notes: cur.Notes, Items: cur.Inputs}
	if err := edit(&d); err != nil {
		return LocalOrder{}, err
	}
	p, err := s.pkg(ctx)
	if err != nil {
		return LocalOrder{}, err
	}
	o, err := price(p, d, cur.CreatedAt)
	if err != nil {
		return LocalOrder{}, err
	}
	o.LocalID = cur.LocalID
	o.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveOrder(ctx, o); err != nil {
		return LocalOrder{}, err
	}
	return o, nil
}

func (s *Session) Orders(ctx context.Context) ([]LocalOrder, error) {
	return s.store.Orders(ctx, "")
}

// Sync uploads pending orders that are not being edited, downloads the
// package when it changed and merges the server orders into the local ones.
// On error nothing already stored is lost and the next Sync retries.
func (s *Session) Sync(ctx context.Context) (SyncResult, error) {
	s.syncing.Lock()
	defer s.syncing.Unlock()

	var res SyncResult
	batch, done, err := s.claim(ctx, &res)
	if err != nil {
		return res, err
	}
	defer done()
	if len(batch) > 0 {
		if err := s.push(ctx, batch, &res); err != nil {
			return res, fmt.Errorf("push: %w", err)
		}
	}

	since, err := s.store.PackageVersion(ctx)
	if err != nil {
		return res, err
	}
	p, notModified, err := s.remote.Pull(ctx, since)
	if err != nil {
		return res, fmt.Errorf("pull: %w", err)
	}
	res.PackageVersion = since
	if !notModified {
		if err := s.store.SavePackage(ctx, p); err != nil {
			return res, err
		}
		res.PackageVersion, res.Downloaded = p.Version, true
		if err := s.merge(ctx, p.Orders); err != nil {
			return res, err
		}
	}

	if err := s.store.SetMeta(ctx, MetaLastSyncAt, s.now().UTC().Format(time.RFC3339)); err != nil {
		return res, err
	}
	s.log.Info("sync_done", map[string]any{
		"pushed": res.Pushed, "accepted": res.Accepted, "rejected": res.Rejected,
		"held": res.Held, "package_version": res.PackageVersion, "downloaded": res.Downloaded,
	})
	return res, nil
}

// claim reads the pending orders and marks those not under edit as
// uploading, both under s.mu so no edit lands in between. done releases them
// once their push has been answered and stored.
func (s *Session) claim(ctx context.Context, res *SyncResult) (batch []LocalOrder, done func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, err := s.store.Orders(ctx, StatePending)
	if err != nil {
		return nil, func() {}, err
	}
	var releases []func()
	for _, o := range pending {
		if s.guard.IsEditing(o.Key()) {
			res.Held++
			continue
		}
		releases = append(releases, s.uploading.Begin(o.Key()))
		batch = append(batch, o)
	}
	return batch, func() {
		for _, r := range releases {
			r()
		}
	}, nil
}

func (s *Session) push(ctx context.Context, batch []LocalOrder, res *SyncResult) error {
	uploads := make([]syncpkg.UploadOrder, 0, len(batch))
	for _, o := range batch {
		uploads = append(uploads, o.upload())
	}
	resp, err := s.remote.Push(ctx, uploads)
	if err != nil {
		return err
	}
	res.Pushed = len(batch)

	byID := make(map[string]syncpkg.UploadResult, len(resp.Results))
	for _, r := range resp.Results {
		byID[r.LocalID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range batch {
		r, ok := byID[o.LocalID]
		if !ok {
			continue
		}
		if r.Accepted {
			o.State, o.ServerID, o.Number, o.Status, o.Error = StateSynced, r.OrderID, r.Number, domain.OrderPending, ""
			res.Accepted++
		} else {
			o.State, o.Error = StateRejected, r.Error
			res.Rejected++
		}
		o.UpdatedAt = s.now().UTC()
		if err := s.store.SaveOrder(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// merge makes the server orders the new local list. Orders the server does
// not know yet stay, and so does every order under edit.
func (s *Session) merge(ctx context.Context, server []domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.store.Orders(ctx, "")
	if err != nil {
		return err
	}
	fresh := make([]LocalOrder, 0, len(server)+len(local))
	known := make(map[string]bool, len(server))
	for _, o := range server {
		lo := fromServer(o)
		known[lo.Key()] = true
		fresh = append(fresh, lo)
	}
	for _, o := range local {
		if o.Editable() && !known[o.Key()] {
			fresh = append(fresh, o)
		}
	}
	merged := editguard.Merge(s.guard, local, fresh, LocalOrder.Key)
	return s.store.ReplaceOrders(ctx, merged)
}

// AutoSync runs Sync every interval until ctx is canceled. Failures are
// logged and retried on the next tick.
func (s *Session) AutoSync(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("sync_failed", err, nil)
			}
		}
	}
}

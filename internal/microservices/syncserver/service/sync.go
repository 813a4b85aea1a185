package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

type Devices interface {
	Register(ctx context.Context, d domain.Device) (domain.Device, error)
	ByToken(ctx context.Context, token string) (domain.Device, error)
	Touch(ctx context.Context, id string, at time.Time) error
	LogSync(ctx context.Context, l repository.SyncLog) error
}

type SalesReps interface {
	SalesRepByCode(ctx context.Context, code string) (domain.SalesRep, error)
}

// Packages is implemented by *syncpkg.Builder.
type Packages interface {
	Current(ctx context.Context, salesRepID int64) (syncpkg.Package, error)
	Rebuild(ctx context.Context, salesRepID int64) (syncpkg.Package, bool, error)
}

// Orders is implemented by the order service.
type Orders interface {
	Submit(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, bool, error)
}

type SyncServiceInterface interface {
	Register(ctx context.Context, req syncpkg.RegisterRequest) (syncpkg.RegisterResponse, error)
	Authenticate(ctx context.Context, token string) (domain.Device, error)
	Pull(ctx context.Context, dev domain.Device, since int64) (p syncpkg.Package, notModified bool, err error)
	Push(ctx context.Context, dev domain.Device, req syncpkg.UploadRequest) (syncpkg.PushResponse, error)
	Status() syncpkg.ServerStatus
}

// Info identifies this server in announcements and status answers.
type Info struct {
	ServerID string
	Name     string
	Version  string
}

type SyncService struct {
	devices  Devices
	reps     SalesReps
	packages Packages
	orders   Orders
	info     Info
	log      *logger.Logger
	started  time.Time
	now      func() time.Time

	rebuildOnPull bool
}

// NewSyncService serves stored packages as they are unless rebuildOnPull is
// set, in which case every pull first rebuilds the rep's package. Rebuilds
// only add a version when the content changed.
func NewSyncService(devices Devices, reps SalesReps, packages Packages, orders Orders, info Info, rebuildOnPull bool, log *logger.Logger) SyncServiceInterface {
	return &SyncService{
		devices:       devices,
		reps:          reps,
		packages:      packages,
		orders:        orders,
		info:          info,
		rebuildOnPull: rebuildOnPull,
		log:           log,
		started:  time.Now().UTC(),
		now:      time.Now,
	}
}

func (s *SyncService) Register(ctx context.Context, req syncpkg.RegisterRequest) (syncpkg.RegisterResponse, error) {
	code := strings.TrimSpace(req.SalesRepCode)
	if code == "" {
		return syncpkg.RegisterResponse{}, domain.Invalidf("sales_rep_code is required")
	}
	rep, err := s.reps.SalesRepByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return syncpkg.RegisterResponse{}, fmt.Errorf("%w: unknown sales rep %s", domain.ErrUnauthorized, code)
	}
	if err != nil {
		return syncpkg.RegisterResponse{}, err
	}
	if !rep.Active {
		return syncpkg.RegisterResponse{}, fmt.Errorf("%w: sales rep %s is inactive", domain.ErrUnauthorized, code)
	}

	id := strings.TrimSpace(req.DeviceID)
	if id == "" {
		id = uuid.NewString()
	}
	dev, err := s.devices.Register(ctx, domain.Device{
		ID:         id,
		SalesRepID: rep.ID,
		Name:       strings.TrimSpace(req.DeviceName),
		Token:      uuid.NewString(),
	})
	if err != nil {
		return syncpkg.RegisterResponse{}, err
	}
	s.log.Info("device_registered", map[string]any{"device_id": dev.ID, "sales_rep": rep.Code})
	return syncpkg.RegisterResponse{DeviceID: dev.ID, Token: dev.Token, SalesRep: rep}, nil
}

func (s *SyncService) Authenticate(ctx context.Context, token string) (domain.Device, error) {
	if token == "" {
		return domain.Device{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	dev, err := s.devices.ByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Device{}, fmt.Errorf("%w: unknown token", domain.ErrUnauthorized)
	}
	return dev, err
}

func (s *SyncService) Pull(ctx context.Context, dev domain.Device, since int64) (syncpkg.Package, bool, error) {
	p, err := s.current(ctx, dev.SalesRepID)
	entry := repository.SyncLog{DeviceID: dev.ID, Kind: "pull", PackageVersion: p.Version, Success: err == nil}
	if err != nil {
		entry.Error = err.Error()
	}
	s.record(ctx, dev, entry)
	if err != nil {
		return syncpkg.Package{}, false, err
	}
	return p, since > 0 && since == p.Version, nil
}

func (s *SyncService) current(ctx context.Context, salesRepID int64) (syncpkg.Package, error) {
	if !s.rebuildOnPull {
		return s.packages.Current(ctx, salesRepID)
	}
	p, _, err := s.packages.Rebuild(ctx, salesRepID)
	return p, err
}

func (s *SyncService) Push(ctx context.Context, dev domain.Device, req syncpkg.UploadRequest) (syncpkg.PushResponse, error) {
	resp := syncpkg.PushResponse{Results: make([]syncpkg.UploadResult, 0, len(req.Orders))}
	created := 0
	var failure error
	for _, up := range req.Orders {
		res := syncpkg.UploadResult{LocalID: up.LocalID}
		if strings.TrimSpace(up.LocalID) == "" {
			res.Error = "local_id is required"
			resp.Rejected++
			resp.Results = append(resp.Results, res)
			continue
		}
		var createdAt *time.Time
		if !up.CreatedAt.IsZero() {
			t := up.CreatedAt
			createdAt = &t
		}
		o, dup, err := s.orders.Submit(ctx, domain.CreateOrderRequest{
			CustomerID:     up.CustomerID,
			SalesRepID:     dev.SalesRepID,
			PaymentTableID: up.PaymentTableID,
			Notes:          up.Notes,
			Items:          up.Items,
			Source:         domain.SourceMobile,
			DeviceID:       dev.ID,
			LocalID:        up.LocalID,
			CreatedAt:      createdAt,
		})
		switch {
		case err == nil:
			res.Accepted, res.Duplicate, res.OrderID, res.Number = true, dup, o.ID, o.Number
			resp.Accepted++
			if !dup {
				created++
			}
		case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
			res.Error = err.Error()
			resp.Rejected++
		default:
			failure = err
		}
		if failure != nil {
			break
		}
		resp.Results = append(resp.Results, res)
	}

	entry := repository.SyncLog{
		DeviceID:       dev.ID,
		Kind:           "push",
		OrdersReceived: len(req.Orders),
		OrdersAccepted: resp.Accepted,
		Success:        failure == nil,
	}
	if failure != nil {
		entry.Error = failure.Error()
	}
	if created > 0 {
		if p, _, err := s.packages.Rebuild(ctx, dev.SalesRepID); err != nil {
			s.log.Error("package_rebuild_failed", err, map[string]any{"sales_rep_id": dev.SalesRepID})
		} else {
			entry.PackageVersion = p.Version
		}
	}
	s.record(ctx, dev, entry)
	if failure != nil {
		return syncpkg.PushResponse{}, failure
	}
	return resp, nil
}

func (s *SyncService) record(ctx context.Context, dev domain.Device, entry repository.SyncLog) {
	if err := s.devices.LogSync(ctx, entry); err != nil {
		s.log.Error("sync_log_failed", err, map[string]any{"device_id": dev.ID})
	}
	if entry.Success {
		if err := s.devices.Touch(ctx, dev.ID, s.now().UTC()); err != nil {
			s.log.Error("device_touch_failed", err, map[string]any{"device_id": dev.ID})
		}
	}
	s.log.Info("device_synced", map[string]any{
		"device_id": dev.ID, "kind": entry.Kind, "success": entry.Success,
		"package_version": entry.PackageVersion, "orders_accepted": entry.OrdersAccepted,
	})
}

func (s *SyncService) Status() syncpkg.ServerStatus {
	return syncpkg.ServerStatus{
		ServerID:  s.info.ServerID,
		Name:      s.info.Name,
		Version:   s.info.Version,
		StartedAt: s.started,
		Now:       s.now().UTC(),
	}
}

package service

import (
	"context"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/repository"
)

// DeviceHistory is implemented by repository.DevicesPG.
type DeviceHistory interface {
	List(ctx context.Context, salesRepID *int64, page domain.Page) ([]domain.Device, error)
	Logs(ctx context.Context, deviceID string, page domain.Page) ([]repository.SyncLog, error)
}

// WorkerRegistry is implemented by repository.WorkersPG.
type WorkerRegistry interface {
	List(ctx context.Context) ([]repository.Worker, error)
}

type MonitorServiceInterface interface {
	Devices(ctx context.Context, salesRepID *int64, page domain.Page) ([]domain.Device, error)
	DeviceLogs(ctx context.Context, deviceID string, page domain.Page) ([]repository.SyncLog, error)
	Workers(ctx context.Context) ([]repository.Worker, error)
}

type MonitorService struct {
	devices    DeviceHistory
	workers    WorkerRegistry
	staleAfter time.Duration
	now        func() time.Time
}

// NewMonitorService reports an online worker not seen for staleAfter as
// offline.
func NewMonitorService(devices DeviceHistory, workers WorkerRegistry, staleAfter time.Duration) *MonitorService {
	return &MonitorService{devices: devices, workers: workers, staleAfter: staleAfter, now: time.Now}
}

func (s *MonitorService) Devices(ctx context.Context, salesRepID *int64, page domain.Page) ([]domain.Device, error) {
	return s.devices.List(ctx, salesRepID, page.Normalize())
}

func (s *MonitorService) DeviceLogs(ctx context.Context, deviceID string, page domain.Page) ([]repository.SyncLog, error) {
	if deviceID == "" {
		return nil, domain.Invalidf("device id is required")
	}
	return s.devices.Logs(ctx, deviceID, page.Normalize())
}

func (s *MonitorService) Workers(ctx context.Context) ([]repository.Worker, error) {
	ws, err := s.workers.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range ws {
		if ws[i].Status == "online" && s.staleAfter > 0 && now.Sub(ws[i].LastSeen) > s.staleAfter {
			ws[i].Status = "offline"
		}
	}
	return ws, nil
}

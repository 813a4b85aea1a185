package mobile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nopLogger() *logger.Logger { return logger.NewWithCore("test", zapcore.NewNopCore()) }

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testPackage has one box product (12 UN per CX at 120.00), one active
// customer and a 30/60 payment table.
func testPackage(version int64) syncpkg.Package {
	p := syncpkg.Package{
		Version:  version,
		Format:   syncpkg.FormatVersion,
		SalesRep: domain.SalesRep{ID: 7, Code: "R01", Active: true},
		Customers: []domain.Customer{
			{ID: 1, Code: "C1", Name: "Mercado Central", Active: true},
			{ID: 2, Code: "C2", Name: "Closed shop", Active: false},
		},
		Products: []domain.Product{{
			ID: 10, Code: "P10", Name: "Water 500ml", Unit: "CX", SubUnit: "UN",
			SubUnitRatio: d("12"), Price: d("120"), MinPrice: d("108"), MaxDiscountPercent: d("10"),
			Weight: d("6"), Active: true,
		}},
		PaymentTables: []paymentplan.Table{{
			ID: 3, Name: "30/60", Active: true,
			Terms: []paymentplan.Term{{Days: 30, Percent: d("50")}, {Days: 60, Percent: d("50")}},
		}},
		GeneratedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	p.Checksum, _ = p.ComputeChecksum()
	return p
}

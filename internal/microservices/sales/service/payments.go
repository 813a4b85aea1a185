package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
	"github.com/rasganxd/vendas-fortes-sub005/internal/pricing"
)

type PaymentServiceInterface interface {
	Register(ctx context.Context, orderID int64, req domain.PaymentRequest) (domain.Payment, error)
	Summary(ctx context.Context, orderID int64) (domain.PaymentSummary, error)
}

type PaymentService struct {
	repo repository.PaymentRepositoryInterface
	now  func() time.Time
}

func NewPaymentService(repo repository.PaymentRepositoryInterface) PaymentServiceInterface {
	return &PaymentService{repo: repo, now: time.Now}
}

func (s *PaymentService) Register(ctx context.Context, orderID int64, req domain.PaymentRequest) (domain.Payment, error) {
	amount := pricing.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return domain.Payment{}, domain.Invalidf("amount must be positive")
	}
	if !req.Method.Valid() {
		return domain.Payment{}, domain.Invalidf("unknown payment method %q", req.Method)
	}
	if req.Installment != nil && *req.Installment <= 0 {
		return domain.Payment{}, domain.Invalidf("installment must be positive")
	}
	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	p := domain.Payment{
		OrderID:     orderID,
		Amount:      amount,
		Method:      req.Method,
		Installment: req.Installment,
		PaidAt:      paidAt,
		Notes:       strings.TrimSpace(req.Notes),
	}
	return s.repo.Add(ctx, p, func(total decimal.Decimal, status domain.OrderStatus, paid decimal.Decimal) error {
		if status == domain.OrderCanceled {
			return domain.Invalidf("order %d is canceled", orderID)
		}
		if rest := paymentplan.Outstanding(total, paid); amount.GreaterThan(rest) {
			return domain.Invalidf("amount %s exceeds outstanding %s", amount.StringFixed(2), rest.StringFixed(2))
		}
		return nil
	})
}

func (s *PaymentService) Summary(ctx context.Context, orderID int64) (domain.PaymentSummary, error) {
	total, payments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return domain.PaymentSummary{}, err
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return domain.PaymentSummary{
		OrderID:     orderID,
		Total:       total,
		Paid:        paid,
		Outstanding: paymentplan.Outstanding(total, paid),
		Status:      paymentplan.StatusFor(total, paid),
		Payments:    payments,
	}, nil
}

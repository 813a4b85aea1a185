package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/pricing"
)

type Customer struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	TradeName   string          `json:"trade_name,omitempty"`
	Document    string          `json:"document,omitempty"` // CPF or CNPJ
	Phone       string          `json:"phone,omitempty"`
	Email       string          `json:"email,omitempty"`
	Address     string          `json:"address,omitempty"`
	City        string          `json:"city,omitempty"`
	State       string          `json:"state,omitempty"`
	ZipCode     string          `json:"zip_code,omitempty"`
	SalesRepID  *int64          `json:"sales_rep_id,omitempty"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Notes       string          `json:"notes,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return Invalidf("customer code is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return Invalidf("customer name is required")
	}
	if c.CreditLimit.IsNegative() {
		return Invalidf("credit limit cannot be negative")
	}
	return nil
}

type Product struct {
	ID                 int64           `json:"id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Category           string          `json:"category,omitempty"`
	Unit               string          `json:"unit"`
	SubUnit            string          `json:"sub_unit,omitempty"`
	SubUnitRatio       decimal.Decimal `json:"sub_unit_ratio"`
	Price              decimal.Decimal `json:"price"`
	Cost               decimal.Decimal `json:"cost"`
	MinPrice           decimal.Decimal `json:"min_price"`
	MaxDiscountPercent decimal.Decimal `json:"max_discount_percent"`
	Weight             decimal.Decimal `json:"weight"` // kg per main unit
	Stock              decimal.Decimal `json:"stock"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Conversion returns the unit-of-measure setup of the product.
func (p Product) Conversion() pricing.Conversion {
	return pricing.Conversion{Unit: p.Unit, SubUnit: p.SubUnit, Ratio: p.SubUnitRatio}
}

// Limits returns the selling constraints of the product.
func (p Product) Limits() pricing.Limits {
	return pricing.Limits{MinPrice: p.MinPrice, MaxDiscountPercent: p.MaxDiscountPercent}
}

// Quote prices qty of unit; price may be nil for the list price.
func (p Product) Quote(unit string, qty decimal.Decimal, price *decimal.Decimal) (pricing.Quote, error) {
	return p.Conversion().PriceLine(p.Price, p.Limits(), unit, qty, price)
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return Invalidf("product code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Invalidf("product name is required")
	}
	if err := p.Conversion().Validate(); err != nil {
		return Invalidf("%v", err)
	}
	if p.Price.IsNegative() || p.Cost.IsNegative() || p.MinPrice.IsNegative() || p.Weight.IsNegative() {
		return Invalidf("prices and weight cannot be negative")
	}
	if p.MinPrice.GreaterThan(p.Price) {
		return Invalidf("minimum price %s above list price %s", p.MinPrice, p.Price)
	}
	if p.MaxDiscountPercent.IsNegative() || p.MaxDiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return Invalidf("max discount must be between 0 and 100")
	}
	return nil
}

type SalesRep struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r SalesRep) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return Invalidf("sales rep code is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return Invalidf("sales rep name is required")
	}
	return nil
}

// Device is a sales rep handset registered with the sync server.
type Device struct {
	ID         string     `json:"id"`
	SalesRepID int64      `json:"sales_rep_id"`
	Name       string     `json:"name"`
	Token      string     `json:"-"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

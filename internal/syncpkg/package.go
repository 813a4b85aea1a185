package syncpkg

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

var ErrChecksum = errors.New("syncpkg: package checksum mismatch")

// Package is everything a sales rep device needs to work offline.
type Package struct {
	Version       int64               `json:"version"`
	Format        int                 `json:"format"`
	SalesRep      domain.SalesRep     `json:"sales_rep"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Customers     []domain.Customer   `json:"customers"`
	Products      []domain.Product    `json:"products"`
	PaymentTables []paymentplan.Table `json:"payment_tables"`
	Routes        []domain.Route      `json:"routes"`
	Orders        []domain.Order      `json:"orders"`
	Checksum      string              `json:"checksum"`
}

// content is the part of a package covered by the checksum: version and
// generation time are left out so an unchanged catalog hashes the same.
type content struct {
	Format        int                 `json:"format"`
	SalesRep      domain.SalesRep     `json:"sales_rep"`
	Customers     []domain.Customer   `json:"customers"`
	Products      []domain.Product    `json:"products"`
	PaymentTables []paymentplan.Table `json:"payment_tables"`
	Routes        []domain.Route      `json:"routes"`
	Orders        []domain.Order      `json:"orders"`
}

// ComputeChecksum returns the hex SHA-256 of the package content.
func (p Package) ComputeChecksum() (string, error) {
	b, err := json.Marshal(content{
		Format:        p.Format,
		SalesRep:      p.SalesRep,
		Customers:     p.Customers,
		Products:      p.Products,
		PaymentTables: p.PaymentTables,
		Routes:        p.Routes,
		Orders:        p.Orders,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the checksum.
func (p Package) Verify() error {
	sum, err := p.ComputeChecksum()
	if err != nil {
		return err
	}
	if sum != p.Checksum {
		return ErrChecksum
	}
	return nil
}

// Customer finds a customer of the package by id.
func (p Package) Customer(id int64) (domain.Customer, bool) {
	for _, c := range p.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Customer{}, false
}

// ProductMap indexes the package products by id.
func (p Package) ProductMap() map[int64]domain.Product {
	m := make(map[int64]domain.Product, len(p.Products))
	for _, pr := range p.Products {
		m[pr.ID] = pr
	}
	return m
}

// PaymentTable finds a payment table of the package by id.
func (p Package) PaymentTable(id int64) (paymentplan.Table, bool) {
	for _, t := range p.PaymentTables {
		if t.ID == id {
			return t, true
		}
	}
	return paymentplan.Table{}, false
}

package domain

import "github.com/shopspring/decimal"

// PriceItems turns input lines into priced order items and returns the
// order total and weight.
func PriceItems(products map[int64]Product, in []OrderItemInput) ([]OrderItem, decimal.Decimal, decimal.Decimal, error) {
	var (
		items  = make([]OrderItem, 0, len(in))
		total  = decimal.Zero
		weight = decimal.Zero
	)
	for i, it := range in {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, decimal.Zero, decimal.Zero, Invalidf("item %d: product %d does not exist", i+1, it.ProductID)
		}
		if !p.Active {
			return nil, decimal.Zero, decimal.Zero, Invalidf("item %d: product %s is inactive", i+1, p.Code)
		}
		q, err := p.Quote(it.Unit, it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, Invalidf("item %d (%s): %v", i+1, p.Code, err)
		}
		w := p.Weight.Mul(q.MainQuantity).Round(3)
		items = append(items, OrderItem{
			ProductID:       p.ID,
			ProductCode:     p.Code,
			ProductName:     p.Name,
			Unit:            q.Unit,
			Quantity:        q.Quantity,
			ListPrice:       q.ListPrice,
			UnitPrice:       q.UnitPrice,
			DiscountPercent: q.DiscountPercent,
			Total:           q.Total,
			Weight:          w,
		})
		total = total.Add(q.Total)
		weight = weight.Add(w)
	}
	return items, total, weight, nil
}

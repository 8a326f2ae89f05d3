// Package etl pulls products, stock levels and confirmed sales out of
// the ERP export channel and mirrors them into the local store.
package etl

import (
	"context"
	"time"
)

// SourceProduct is a stockable product as exported by the ERP.
type SourceProduct struct {
	ErpID         int64
	Name          string
	Reference     string
	Category      string
	ListPrice     float64
	StandardPrice float64
	IsActive      bool
}

// SourceStock is the ERP's current stock reading for one product.
type SourceStock struct {
	ErpProductID       int64
	QuantityOnHand     float64
	QuantityForecasted float64
	QuantityIncoming   float64
	QuantityOutgoing   float64
}

// SourceOrderLine is one line of a confirmed sale order. Stockable
// reports whether the line's product is inventory-tracked; lines for
// services and consumables are skipped during sync.
type SourceOrderLine struct {
	ErpProductID  int64
	Quantity      float64
	UnitPrice     float64
	Subtotal      float64
	StandardPrice float64
	Stockable     bool
}

// SourceOrder is a confirmed sale order with its lines.
type SourceOrder struct {
	Reference    string
	CustomerName string
	OrderDate    time.Time
	Lines        []SourceOrderLine
}

// Source abstracts where ERP data comes from. The production source
// reads the nightly export files; tests plug in fixtures.
type Source interface {
	Products(ctx context.Context) ([]SourceProduct, error)
	StockLevels(ctx context.Context) ([]SourceStock, error)
	Orders(ctx context.Context, since time.Time) ([]SourceOrder, error)
}

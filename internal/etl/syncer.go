package etl

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/repository"
)

// Sync phase names as recorded in the sync log.
const (
	phaseProducts = "products"
	phaseStock    = "stock"
	phaseSales    = "sales"
)

// Syncer mirrors one ERP source into the local repositories.
type Syncer struct {
	source   Source
	products repository.ProductRepository
	sales    repository.SalesRepository
	stock    repository.StockRepository
	syncLog  repository.SyncLogRepository
	now      func() time.Time
}

func NewSyncer(
	source Source,
	products repository.ProductRepository,
	sales repository.SalesRepository,
	stock repository.StockRepository,
	syncLog repository.SyncLogRepository,
) *Syncer {
	return &Syncer{
		source:   source,
		products: products,
		sales:    sales,
		stock:    stock,
		syncLog:  syncLog,
		now:      time.Now,
	}
}

// SyncProducts upserts every exported product, keyed on the ERP id.
func (s *Syncer) SyncProducts(ctx context.Context) (int, error) {
	items, err := s.source.Products(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range items {
		p := &domain.Product{
			ErpID:         item.ErpID,
			Name:          item.Name,
			Reference:     item.Reference,
			Category:      item.Category,
			ListPrice:     item.ListPrice,
			StandardPrice: item.StandardPrice,
			IsActive:      item.IsActive,
		}
		if _, err := s.products.Upsert(ctx, p); err != nil {
			return count, err
		}
		count++
	}

	log.Info().Int("count", count).Msg("products synced")
	return count, nil
}

// SyncStockLevels appends one snapshot per known product. Stock rows
// for products the product sync has not seen yet are skipped.
func (s *Syncer) SyncStockLevels(ctx context.Context) (int, error) {
	items, err := s.source.StockLevels(ctx)
	if err != nil {
		return 0, err
	}

	recordedAt := s.now().UTC()
	count := 0
	for _, item := range items {
		product, err := s.products.GetByErpID(ctx, item.ErpProductID)
		if err != nil {
			return count, err
		}
		if product == nil {
			continue
		}
		snapshot := &domain.StockSnapshot{
			ProductID:          product.ID,
			QuantityOnHand:     item.QuantityOnHand,
			QuantityForecasted: item.QuantityForecasted,
			QuantityIncoming:   item.QuantityIncoming,
			QuantityOutgoing:   item.QuantityOutgoing,
			RecordedAt:         recordedAt,
		}
		if err := s.stock.InsertSnapshot(ctx, snapshot); err != nil {
			return count, err
		}
		count++
	}

	log.Info().Int("count", count).Msg("stock levels synced")
	return count, nil
}

// SyncSales imports confirmed order lines from the last daysBack days.
// Non-stockable lines and lines for unknown products are skipped.
func (s *Syncer) SyncSales(ctx context.Context, daysBack int) (int, error) {
	since := s.now().UTC().AddDate(0, 0, -daysBack)
	orders, err := s.source.Orders(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		log.Warn().Msg("no confirmed orders found in sync window")
		return 0, nil
	}

	count := 0
	for _, order := range orders {
		for _, line := range order.Lines {
			if !line.Stockable {
				continue
			}
			product, err := s.products.GetByErpID(ctx, line.ErpProductID)
			if err != nil {
				return count, err
			}
			if product == nil {
				continue
			}
			record := &domain.SalesRecord{
				ProductID:    product.ID,
				OrderRef:     order.Reference,
				CustomerName: order.CustomerName,
				Quantity:     line.Quantity,
				UnitPrice:    line.UnitPrice,
				TotalAmount:  line.Subtotal,
				Margin:       (line.UnitPrice - line.StandardPrice) * line.Quantity,
				OrderDate:    order.OrderDate,
			}
			if err := s.sales.Insert(ctx, record); err != nil {
				return count, err
			}
			count++
		}
	}

	log.Info().Int("count", count).Int("days_back", daysBack).Msg("sales synced")
	return count, nil
}

// FullSyncResult reports the outcome of each phase of a full sync.
type FullSyncResult struct {
	Products PhaseResult `json:"products"`
	Stock    PhaseResult `json:"stock"`
	Sales    PhaseResult `json:"sales"`
}

type PhaseResult struct {
	Records int    `json:"records"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// RunFullSync runs all three phases in order. A failed phase is
// logged and recorded but does not stop the phases after it.
func (s *Syncer) RunFullSync(ctx context.Context, daysBack int) *FullSyncResult {
	result := &FullSyncResult{}
	result.Products = s.runPhase(ctx, phaseProducts, func() (int, error) {
		return s.SyncProducts(ctx)
	})
	result.Stock = s.runPhase(ctx, phaseStock, func() (int, error) {
		return s.SyncStockLevels(ctx)
	})
	result.Sales = s.runPhase(ctx, phaseSales, func() (int, error) {
		return s.SyncSales(ctx, daysBack)
	})
	return result
}

func (s *Syncer) runPhase(ctx context.Context, phase string, run func() (int, error)) PhaseResult {
	startedAt := s.now().UTC()
	count, err := run()
	completedAt := s.now().UTC()

	entry := &domain.SyncLog{
		SyncType:         phase,
		Status:           "success",
		RecordsProcessed: count,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		DurationSeconds:  int(completedAt.Sub(startedAt).Seconds()),
	}
	result := PhaseResult{Records: count, Status: "success"}
	if err != nil {
		entry.Status = "failed"
		entry.ErrorMessage = err.Error()
		result.Status = "failed"
		result.Error = err.Error()
		log.Error().Err(err).Str("phase", phase).Msg("sync phase failed")
	}

	if logErr := s.syncLog.Insert(ctx, entry); logErr != nil {
		log.Error().Err(logErr).Str("phase", phase).Msg("failed to record sync log")
	}
	return result
}

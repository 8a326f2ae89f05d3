package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Export file names produced by the nightly ERP dump.
const (
	productsFile = "products.csv"
	stockFile    = "stock_levels.csv"
	ordersFile   = "sale_orders.csv"
)

// CSVSource reads the ERP export files from a directory. Each file
// carries a header row; columns are matched by name so the export
// can reorder or add columns without breaking the sync.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (s *CSVSource) Products(ctx context.Context) ([]SourceProduct, error) {
	var products []SourceProduct
	err := s.readFile(ctx, productsFile, []string{"erp_id", "name"}, func(row rowReader) error {
		erpID := row.getInt64("erp_id")
		ref := row.get("reference")
		if ref == "" {
			ref = fmt.Sprintf("REF-%d", erpID)
		}
		category := row.get("category")
		if category == "" {
			category = "Uncategorized"
		}
		products = append(products, SourceProduct{
			ErpID:         erpID,
			Name:          row.get("name"),
			Reference:     ref,
			Category:      category,
			ListPrice:     row.getFloat("list_price"),
			StandardPrice: row.getFloat("standard_price"),
			IsActive:      row.getBool("is_active"),
		})
		return nil
	})
	return products, err
}

func (s *CSVSource) StockLevels(ctx context.Context) ([]SourceStock, error) {
	var levels []SourceStock
	err := s.readFile(ctx, stockFile, []string{"erp_product_id"}, func(row rowReader) error {
		levels = append(levels, SourceStock{
			ErpProductID:       row.getInt64("erp_product_id"),
			QuantityOnHand:     row.getFloat("qty_on_hand"),
			QuantityForecasted: row.getFloat("qty_forecasted"),
			QuantityIncoming:   row.getFloat("qty_incoming"),
			QuantityOutgoing:   row.getFloat("qty_outgoing"),
		})
		return nil
	})
	return levels, err
}

// Orders reads the flat order-line export and groups lines back into
// orders by reference. Lines dated before since are dropped.
func (s *CSVSource) Orders(ctx context.Context, since time.Time) ([]SourceOrder, error) {
	byRef := make(map[string]*SourceOrder)
	var refs []string

	err := s.readFile(ctx, ordersFile, []string{"order_ref", "erp_product_id", "order_date"}, func(row rowReader) error {
		orderDate, err := time.Parse("2006-01-02", row.get("order_date"))
		if err != nil {
			return fmt.Errorf("invalid order_date %q: %w", row.get("order_date"), err)
		}
		if orderDate.Before(since) {
			return nil
		}

		ref := row.get("order_ref")
		order, ok := byRef[ref]
		if !ok {
			order = &SourceOrder{
				Reference:    ref,
				CustomerName: row.get("customer_name"),
				OrderDate:    orderDate,
			}
			byRef[ref] = order
			refs = append(refs, ref)
		}
		order.Lines = append(order.Lines, SourceOrderLine{
			ErpProductID:  row.getInt64("erp_product_id"),
			Quantity:      row.getFloat("quantity"),
			UnitPrice:     row.getFloat("unit_price"),
			Subtotal:      row.getFloat("subtotal"),
			StandardPrice: row.getFloat("standard_price"),
			Stockable:     row.getBool("stockable"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	orders := make([]SourceOrder, 0, len(refs))
	for _, ref := range refs {
		orders = append(orders, *byRef[ref])
	}
	return orders, nil
}

type rowReader struct {
	record []string
	colMap map[string]int
}

func (r rowReader) get(col string) string {
	if idx, ok := r.colMap[col]; ok && idx < len(r.record) {
		return strings.TrimSpace(r.record[idx])
	}
	return ""
}

func (r rowReader) getFloat(col string) float64 {
	val := r.get(col)
	if val == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(val, 64)
	return f
}

func (r rowReader) getInt64(col string) int64 {
	val := r.get(col)
	if val == "" {
		return 0
	}
	// Exports sometimes render ids as "12.0"
	f, _ := strconv.ParseFloat(val, 64)
	return int64(f)
}

func (r rowReader) getBool(col string) bool {
	val := strings.ToLower(r.get(col))
	return val == "1" || val == "true"
}

func (s *CSVSource) readFile(ctx context.Context, name string, required []string, process func(rowReader) error) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("open export %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", name, err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := colMap[col]; !ok {
			return fmt.Errorf("%s: missing required column %s", name, col)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record from %s: %w", name, err)
		}
		if err := process(rowReader{record: record, colMap: colMap}); err != nil {
			return err
		}
	}
	return nil
}

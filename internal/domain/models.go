// internal/domain/models.go
package domain

import "time"

// Product mirrors a product record owned by the source-of-record ERP.
// Rows are upserted by the sync job keyed on the ERP identifier and are
// treated as read-only everywhere else.
type Product struct {
	ID            int64     `json:"id" db:"id"`
	ErpID         int64     `json:"erp_id" db:"erp_id"`
	Name          string    `json:"name" db:"name"`
	Reference     string    `json:"reference" db:"reference"`
	Category      string    `json:"category" db:"category"`
	ListPrice     float64   `json:"list_price" db:"list_price"`
	StandardPrice float64   `json:"standard_price" db:"standard_price"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ProductSummary is the slimmed product view used to drive batch
// operations, ordered by sales volume so the busiest products go first.
type ProductSummary struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	SalesCount int    `json:"sales_count" db:"sales_count"`
}

// SalesRecord is one confirmed order line. Append-only.
type SalesRecord struct {
	ID           int64     `json:"id" db:"id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	OrderRef     string    `json:"order_ref" db:"order_ref"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	UnitPrice    float64   `json:"unit_price" db:"unit_price"`
	TotalAmount  float64   `json:"total_amount" db:"total_amount"`
	Margin       float64   `json:"margin" db:"margin"`
	OrderDate    time.Time `json:"order_date" db:"order_date"`
}

// StockSnapshot is a point-in-time stock reading for a product.
// The latest snapshot per product is the current on-hand stock.
type StockSnapshot struct {
	ID                 int64     `json:"id" db:"id"`
	ProductID          int64     `json:"product_id" db:"product_id"`
	QuantityOnHand     float64   `json:"quantity_on_hand" db:"quantity_on_hand"`
	QuantityForecasted float64   `json:"quantity_forecasted" db:"quantity_forecasted"`
	QuantityIncoming   float64   `json:"quantity_incoming" db:"quantity_incoming"`
	QuantityOutgoing   float64   `json:"quantity_outgoing" db:"quantity_outgoing"`
	RecordedAt         time.Time `json:"recorded_at" db:"recorded_at"`
}

// ForecastRow is one persisted forecast day for a product. The set of
// rows for a product is replaced wholesale on every forecast run.
type ForecastRow struct {
	ID                  int64     `json:"id" db:"id"`
	ProductID           int64     `json:"product_id" db:"product_id"`
	ForecastDate        time.Time `json:"forecast_date" db:"forecast_date"`
	PredictedDemand     float64   `json:"predicted_demand" db:"predicted_demand"`
	LowerBound          float64   `json:"lower_bound" db:"lower_bound"`
	UpperBound          float64   `json:"upper_bound" db:"upper_bound"`
	ConfidenceLevel     float64   `json:"confidence_level" db:"confidence_level"`
	RuptureRisk         float64   `json:"rupture_risk" db:"rupture_risk"`
	RecommendedOrderQty int       `json:"recommended_order_qty" db:"recommended_order_qty"`
	ModelVersion        string    `json:"model_version" db:"model_version"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Alert is a replenishment risk notification. At most one unresolved
// alert may exist per product; resolution is an operator action.
type Alert struct {
	ID                int64     `json:"id" db:"id"`
	ProductID         int64     `json:"product_id" db:"product_id"`
	AlertType         string    `json:"alert_type" db:"alert_type"`
	Severity          Severity  `json:"severity" db:"severity"`
	Message           string    `json:"message" db:"message"`
	RecommendedAction string    `json:"recommended_action" db:"recommended_action"`
	IsResolved        bool      `json:"is_resolved" db:"is_resolved"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// SyncLog records the outcome of one ETL sync phase.
type SyncLog struct {
	ID               int64     `json:"id" db:"id"`
	SyncType         string    `json:"sync_type" db:"sync_type"`
	Status           string    `json:"status" db:"status"`
	RecordsProcessed int       `json:"records_processed" db:"records_processed"`
	ErrorMessage     string    `json:"error_message" db:"error_message"`
	StartedAt        time.Time `json:"started_at" db:"started_at"`
	CompletedAt      time.Time `json:"completed_at" db:"completed_at"`
	DurationSeconds  int       `json:"duration_seconds" db:"duration_seconds"`
}

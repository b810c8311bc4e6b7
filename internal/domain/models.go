// internal/domain/models.go
package domain

import "time"

// LocationUnspecified is the sentinel location used when a caller does not
// scope a refresh to a concrete warehouse/store location.
const LocationUnspecified = "unspecified"

// Client represents a tenant on the platform
type Client struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Supplier carries the supplier-wide replenishment defaults
type Supplier struct {
	ID                  int64  `json:"id" db:"id"`
	ClientID            int64  `json:"client_id" db:"client_id"`
	Name                string `json:"name" db:"name"`
	DefaultMOQ          *int   `json:"default_moq" db:"default_moq"`
	DefaultLeadTimeDays *int   `json:"default_lead_time_days" db:"default_lead_time_days"`
}

// SupplierCondition is the product-supplier condition override, the most
// specific level of the MOQ / lead-time resolution chains.
type SupplierCondition struct {
	SupplierID   int64 `json:"supplier_id" db:"supplier_id"`
	ProductID    int64 `json:"product_id" db:"product_id"`
	MOQ          *int  `json:"moq" db:"moq"`
	LeadTimeDays *int  `json:"lead_time_days" db:"lead_time_days"`
}

// Product represents one SKU of a client
type Product struct {
	ID               int64    `json:"id" db:"id"`
	ClientID         int64    `json:"client_id" db:"client_id"`
	SKU              string   `json:"sku" db:"sku"`
	Name             string   `json:"name" db:"name"`
	SupplierID       *int64   `json:"supplier_id" db:"supplier_id"`
	UnitPrice        float64  `json:"unit_price" db:"unit_price"`
	SafetyBufferDays *float64 `json:"safety_buffer_days" db:"safety_buffer_days"`
}

// ClientSettings carries client-wide replenishment and stock-status settings.
// Every field is optional; unset fields fall through to system defaults.
type ClientSettings struct {
	ClientID              int64    `json:"client_id" db:"client_id"`
	SafetyBufferDays      *float64 `json:"safety_buffer_days" db:"safety_buffer_days"`
	UnderstockedThreshold *float64 `json:"understocked_threshold" db:"understocked_threshold"`
	OverstockedThreshold  *float64 `json:"overstocked_threshold" db:"overstocked_threshold"`
	DeadStockDays         *int     `json:"dead_stock_days" db:"dead_stock_days"`
}

// ProductOverrides bundles the already-loaded override records for one
// (client, product) pair so the resolver stays a pure function over them.
type ProductOverrides struct {
	Product   Product
	Condition *SupplierCondition
	Supplier  *Supplier
	Settings  *ClientSettings
}

// ReplenishmentParameters is the resolver output: the effective parameters
// for one (client, product) pair. Not persisted.
type ReplenishmentParameters struct {
	MOQ              int
	LeadTimeDays     int
	SafetyBufferDays float64
}

// DemandPoint is a single observation of a SKU's demand series
type DemandPoint struct {
	Date      time.Time `json:"date" db:"date"`
	UnitsSold float64   `json:"units_sold" db:"units_sold"`
}

// StockLevel is the current on-hand stock for an item at a location
type StockLevel struct {
	ClientID   int64      `json:"client_id" db:"client_id"`
	ItemID     int64      `json:"item_id" db:"item_id"`
	LocationID string     `json:"location_id" db:"location_id"`
	OnHand     float64    `json:"on_hand" db:"on_hand"`
	LastSaleAt *time.Time `json:"last_sale_at" db:"last_sale_at"`
}

// SKUClassification is the per (client, item) classification record.
// Recomputed periodically and overwritten, never versioned.
type SKUClassification struct {
	ClientID   int64     `json:"client_id" db:"client_id"`
	ItemID     int64     `json:"item_id" db:"item_id"`
	ABCClass   ABCClass  `json:"abc_class" db:"abc_class"`
	XYZClass   XYZClass  `json:"xyz_class" db:"xyz_class"`
	Pattern    Pattern   `json:"demand_pattern" db:"demand_pattern"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// InventoryMetricsSnapshot is the per (client, item, location) aggregate that
// downstream consumers read instead of recomputing per request.
// DaysOfSupply is nil when average demand is zero (the "infinite" sentinel).
type InventoryMetricsSnapshot struct {
	ClientID       int64      `json:"client_id" db:"client_id"`
	ItemID         int64      `json:"item_id" db:"item_id"`
	SKU            string     `json:"sku" db:"sku"`
	LocationID     string     `json:"location_id" db:"location_id"`
	AvgDailyDemand float64    `json:"avg_daily_demand" db:"avg_daily_demand"`
	OnHand         float64    `json:"on_hand" db:"on_hand"`
	DaysOfSupply   *float64   `json:"days_of_supply" db:"days_of_supply"`
	InventoryValue float64    `json:"inventory_value" db:"inventory_value"`
	StockCondition string     `json:"stock_condition" db:"stock_condition"`
	LastSaleAt     *time.Time `json:"last_sale_at" db:"last_sale_at"`
	ComputedAt     time.Time  `json:"computed_at" db:"computed_at"`
}

// SnapshotSummary counts snapshot rows per stock condition for a scope
type SnapshotSummary struct {
	Condition string `json:"condition" db:"stock_condition"`
	Count     int    `json:"count" db:"count"`
}

// SnapshotFilter represents filters for snapshot queries
type SnapshotFilter struct {
	ClientID   int64    `json:"client_id"`
	LocationID string   `json:"location_id"`
	ItemIDs    []int64  `json:"item_ids"`
	Conditions []string `json:"conditions"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}

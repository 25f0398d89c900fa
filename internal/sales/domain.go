package sales

import (
	"fmt"
	"time"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// ============================================================================
// STATUS & PAYMENT
// ============================================================================

type SaleStatus string

const (
	StatusPending           SaleStatus = "pending"
	StatusCompleted         SaleStatus = "completed"
	StatusCancelled         SaleStatus = "cancelled"
	StatusRefunded          SaleStatus = "refunded"
	StatusPartiallyRefunded SaleStatus = "partially_refunded"
)

// saleTransitions lists the reachable targets per state. Transitions are
// monotonic; cancellation is only valid from pending or completed and is
// terminal. Refund statuses are normally reached through the refund
// operation but remain legal explicit targets.
var saleTransitions = map[SaleStatus][]SaleStatus{
	StatusPending:           {StatusCompleted, StatusCancelled},
	StatusCompleted:         {StatusCancelled, StatusPartiallyRefunded, StatusRefunded},
	StatusPartiallyRefunded: {StatusRefunded},
}

// CanTransition reports whether to is reachable from from.
func CanTransition(from, to SaleStatus) bool {
	for _, next := range saleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// ============================================================================
// LINE ITEMS
// ============================================================================

// LineItemKind tags the two mutually exclusive line item variants.
type LineItemKind string

const (
	// LineItemCatalog links a catalog product; stock is decremented.
	LineItemCatalog LineItemKind = "catalog"
	// LineItemManual is a free-text entry with no inventory side effect.
	LineItemManual LineItemKind = "manual"
)

// LineItem is one entry within a sale. Exactly one variant payload is
// populated per kind, enforced at construction.
type LineItem struct {
	ID        int64        `json:"id" db:"id"`
	SaleID    int64        `json:"sale_id" db:"sale_id"`
	Kind      LineItemKind `json:"kind" db:"kind"`
	ProductID *int64       `json:"product_id,omitempty" db:"product_id"`
	Name      string       `json:"name" db:"name"`
	Quantity  int          `json:"quantity" db:"quantity"`
	UnitPrice float64      `json:"unit_price" db:"unit_price"`
	LineTotal float64      `json:"line_total" db:"line_total"`
}

// NewCatalogItem builds a catalog-linked line item.
func NewCatalogItem(productID int64, name string, quantity int, unitPrice float64) (LineItem, error) {
	if productID <= 0 {
		return LineItem{}, fmt.Errorf("%w: product id required for catalog item", shared.ErrValidation)
	}
	if err := checkQuantityPrice(quantity, unitPrice); err != nil {
		return LineItem{}, err
	}
	return LineItem{
		Kind:      LineItemCatalog,
		ProductID: &productID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: float64(quantity) * unitPrice,
	}, nil
}

// NewManualItem builds a free-text line item.
func NewManualItem(name string, quantity int, unitPrice float64) (LineItem, error) {
	if name == "" {
		return LineItem{}, fmt.Errorf("%w: name required for manual item", shared.ErrValidation)
	}
	if err := checkQuantityPrice(quantity, unitPrice); err != nil {
		return LineItem{}, err
	}
	return LineItem{
		Kind:      LineItemManual,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: float64(quantity) * unitPrice,
	}, nil
}

func checkQuantityPrice(quantity int, unitPrice float64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	if unitPrice < 0 {
		return fmt.Errorf("%w: unit price must not be negative", shared.ErrValidation)
	}
	return nil
}

// ============================================================================
// SALE
// ============================================================================

// Refund is one entry in a sale's append-only refund history.
type Refund struct {
	ID          string    `json:"id" db:"id"`
	SaleID      int64     `json:"sale_id" db:"sale_id"`
	Amount      float64   `json:"amount" db:"amount"`
	Reason      string    `json:"reason" db:"reason"`
	ProcessedBy int64     `json:"processed_by" db:"processed_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Sale is a completed or in-flight retail transaction. TotalAmount is
// derived at creation and never rewritten; refunds are additive records.
type Sale struct {
	ID            int64         `json:"id" db:"id"`
	CustomerID    int64         `json:"customer_id" db:"customer_id"`
	StoreID       int64         `json:"store_id" db:"store_id"`
	Items         []LineItem    `json:"items" db:"-"`
	TotalAmount   float64       `json:"total_amount" db:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	Status        SaleStatus    `json:"status" db:"status"`
	Refunds       []Refund      `json:"refunds" db:"-"`
	IsActive      bool          `json:"is_active" db:"is_active"`
	CreatedBy     int64         `json:"created_by" db:"created_by"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// RefundedTotal sums the refund history.
func (s *Sale) RefundedTotal() float64 {
	var total float64
	for _, r := range s.Refunds {
		total += r.Amount
	}
	return total
}

// RefundableBalance is what remains claimable.
func (s *Sale) RefundableBalance() float64 {
	return s.TotalAmount - s.RefundedTotal()
}

// ============================================================================
// REQUESTS
// ============================================================================

// LineItemInput is the wire form of a line item. Exactly one of ProductID
// and Name must be set; the service rejects ambiguous inputs before any
// stock mutation.
type LineItemInput struct {
	ProductID *int64   `json:"product_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Quantity  int      `json:"quantity" validate:"required,gt=0"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

type CreateSaleRequest struct {
	CustomerID    int64           `json:"customer_id" validate:"required,gt=0"`
	StoreID       int64           `json:"store_id" validate:"required,gt=0"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer"`
	Status        SaleStatus      `json:"status,omitempty" validate:"omitempty,oneof=pending completed"`
	Items         []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

type TransitionStatusRequest struct {
	Status SaleStatus `json:"status" validate:"required,oneof=pending completed cancelled refunded partially_refunded"`
	Reason *string    `json:"reason,omitempty"`
}

type RefundRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Reason      string  `json:"reason" validate:"required"`
	ProcessedBy int64   `json:"processed_by" validate:"required,gt=0"`
}

// DailyQuery scopes the daily sales listing.
type DailyQuery struct {
	Date    time.Time
	StoreID *int64
	Limit   int
}

// DailySummary is the response body for the daily sales listing.
type DailySummary struct {
	Date              string  `json:"date"`
	TotalSales        int     `json:"totalSales"`
	TotalAmount       float64 `json:"totalAmount"`
	TotalItemsSold    int     `json:"totalItemsSold"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	Sales             []Sale  `json:"sales"`
}

package repairs

import (
	"time"
)

// ============================================================================
// STATUS & PRIORITY
// ============================================================================

type RepairStatus string

const (
	StatusReceived       RepairStatus = "received"
	StatusDiagnosed      RepairStatus = "diagnosed"
	StatusInRepair       RepairStatus = "in_repair"
	StatusReadyForPickup RepairStatus = "ready_for_pickup"
	StatusDelivered      RepairStatus = "delivered"
	StatusCancelled      RepairStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the state.
func (s RepairStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether a repair may move from one status to
// another. Repairs walk the forward order received → diagnosed →
// in_repair → ready_for_pickup → delivered, but skipping intermediate
// states is routine in practice (a phone fixed on intake goes straight to
// ready_for_pickup), so the only hard rules are: nothing leaves a
// terminal state, and a transition must change the status.
func CanTransition(from, to RepairStatus) bool {
	if from.Terminal() || from == to {
		return false
	}
	return true
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ============================================================================
// REPAIR
// ============================================================================

// DeviceInfo describes the device a ticket was opened for.
type DeviceInfo struct {
	Type         string `json:"type" db:"device_type"`
	Brand        string `json:"brand" db:"device_brand"`
	Model        string `json:"model" db:"device_model"`
	SerialNumber string `json:"serial_number,omitempty" db:"device_serial"`
}

// CostBreakdown splits a repair's price into its components. TotalCost is
// always the sum of the other three.
type CostBreakdown struct {
	RepairCost float64 `json:"repair_cost" db:"repair_cost"`
	PartsCost  float64 `json:"parts_cost" db:"parts_cost"`
	LaborCost  float64 `json:"labor_cost" db:"labor_cost"`
	TotalCost  float64 `json:"total_cost" db:"total_cost"`
}

// withTotal returns the breakdown with TotalCost recomputed.
func (c CostBreakdown) withTotal() CostBreakdown {
	c.TotalCost = c.RepairCost + c.PartsCost + c.LaborCost
	return c
}

// PriceHistoryEntry is one snapshot in the append-only cost history.
type PriceHistoryEntry struct {
	ID         string    `json:"id" db:"id"`
	RepairID   int64     `json:"repair_id" db:"repair_id"`
	RepairCost float64   `json:"repair_cost" db:"repair_cost"`
	PartsCost  float64   `json:"parts_cost" db:"parts_cost"`
	LaborCost  float64   `json:"labor_cost" db:"labor_cost"`
	TotalCost  float64   `json:"total_cost" db:"total_cost"`
	Actor      int64     `json:"actor" db:"actor"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TimelineEntry is one event in a repair's ordered history. Status is
// empty for free-text customer updates.
type TimelineEntry struct {
	ID        string       `json:"id" db:"id"`
	RepairID  int64        `json:"repair_id" db:"repair_id"`
	Status    RepairStatus `json:"status,omitempty" db:"status"`
	Note      string       `json:"note,omitempty" db:"note"`
	Actor     int64        `json:"actor" db:"actor"`
	Notified  bool         `json:"notified" db:"notified"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Repair is one service ticket.
type Repair struct {
	ID           int64               `json:"id" db:"id"`
	TicketNumber string              `json:"ticket_number" db:"ticket_number"`
	CustomerID   int64               `json:"customer_id" db:"customer_id"`
	StoreID      int64               `json:"store_id" db:"store_id"`
	Device       DeviceInfo          `json:"device"`
	Issue        string              `json:"issue" db:"issue"`
	Diagnosis    string              `json:"diagnosis,omitempty" db:"diagnosis"`
	Costs        CostBreakdown       `json:"costs"`
	PriceHistory []PriceHistoryEntry `json:"price_history" db:"-"`
	Status       RepairStatus        `json:"status" db:"status"`
	Priority     Priority            `json:"priority" db:"priority"`
	Timeline     []TimelineEntry     `json:"timeline" db:"-"`
	IsActive     bool                `json:"is_active" db:"is_active"`
	CreatedBy    int64               `json:"created_by" db:"created_by"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty" db:"completed_at"`
}

// Customer is the slice of the customer record this package needs.
// Customer CRUD lives outside this service; the directory port resolves
// references and upserts walk-ins by contact details.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ============================================================================
// REQUESTS
// ============================================================================

// CustomerInput identifies an existing customer or supplies inline details
// for upsert by email/phone match.
type CustomerInput struct {
	ID    *int64 `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

type DeviceInfoInput struct {
	Type         string `json:"type" validate:"required,max=50"`
	Brand        string `json:"brand" validate:"required,max=100"`
	Model        string `json:"model" validate:"required,max=100"`
	SerialNumber string `json:"serial_number,omitempty" validate:"omitempty,max=100"`
}

type CostInput struct {
	RepairCost float64 `json:"repair_cost" validate:"gte=0"`
	PartsCost  float64 `json:"parts_cost" validate:"gte=0"`
	LaborCost  float64 `json:"labor_cost" validate:"gte=0"`
}

type CreateRepairRequest struct {
	Customer     CustomerInput   `json:"customer" validate:"required"`
	StoreID      int64           `json:"store_id" validate:"required,gt=0"`
	Device       DeviceInfoInput `json:"device" validate:"required"`
	Issue        string          `json:"issue" validate:"required"`
	Priority     Priority        `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	CostEstimate *CostInput      `json:"cost_estimate,omitempty"`
}

type TransitionStatusRequest struct {
	Status RepairStatus `json:"status" validate:"required,oneof=received diagnosed in_repair ready_for_pickup delivered cancelled"`
	Notes  *string      `json:"notes,omitempty"`
}

// UpdateCostRequest accepts either a flat price (applied to the repair
// cost component) or an explicit breakdown. Omitted components keep their
// current value.
type UpdateCostRequest struct {
	Price      *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	RepairCost *float64 `json:"repair_cost,omitempty" validate:"omitempty,gte=0"`
	PartsCost  *float64 `json:"parts_cost,omitempty" validate:"omitempty,gte=0"`
	LaborCost  *float64 `json:"labor_cost,omitempty" validate:"omitempty,gte=0"`
}

type CustomUpdateRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

package repairs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arcadia-retail/arcadia-retail/internal/identifier"
	"github.com/arcadia-retail/arcadia-retail/internal/notify"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

var (
	// ErrInvalidTransition rejects an unreachable status target.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shared.ErrBusinessRule)
	// ErrCostLocked rejects price changes on delivered or cancelled repairs.
	ErrCostLocked = fmt.Errorf("%w: cost is locked on a closed repair", shared.ErrBusinessRule)
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRepair(ctx context.Context, id int64) (*Repair, error)
	MarkTimelineNotified(ctx context.Context, entryID string) error
}

// CustomerDirectory resolves customer references. Customer records are
// owned elsewhere; repairs only look them up by id or upsert walk-ins by
// their contact details.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	// Upsert matches an existing customer by email or phone and creates
	// one when nothing matches.
	Upsert(ctx context.Context, c Customer) (*Customer, error)
}

// TicketIssuer allocates unique ticket numbers.
type TicketIssuer interface {
	Generate(ctx context.Context, seed identifier.Seed) (string, error)
}

// CacheInvalidator bumps the report cache after committed mutations.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service owns the repair lifecycle: intake with ticket allocation, cost
// revisions with an append-only history, status transitions with customer
// notification on completion.
type Service struct {
	repo        RepositoryPort
	directory   CustomerDirectory
	tickets     TicketIssuer
	dispatcher  notify.Dispatcher
	invalidator CacheInvalidator
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// NewService constructs a repair lifecycle service.
func NewService(
	repo RepositoryPort,
	directory CustomerDirectory,
	tickets TicketIssuer,
	dispatcher notify.Dispatcher,
	invalidator CacheInvalidator,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		directory:   directory,
		tickets:     tickets,
		dispatcher:  dispatcher,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// CreateRepair resolves the customer, allocates a ticket number and
// persists the ticket in the received state with its initial price
// snapshot and timeline entry.
func (s *Service) CreateRepair(ctx context.Context, req CreateRepairRequest, createdBy int64) (*Repair, error) {
	customer, err := s.resolveCustomer(ctx, req.Customer)
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.Generate(ctx, identifier.Seed{
		Date:        s.now(),
		PhoneDigits: customer.Phone,
	})
	if err != nil {
		return nil, err
	}

	var costs CostBreakdown
	if req.CostEstimate != nil {
		costs = CostBreakdown{
			RepairCost: req.CostEstimate.RepairCost,
			PartsCost:  req.CostEstimate.PartsCost,
			LaborCost:  req.CostEstimate.LaborCost,
		}.withTotal()
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	repair := Repair{
		TicketNumber: ticket,
		CustomerID:   customer.ID,
		StoreID:      req.StoreID,
		Device: DeviceInfo{
			Type:         req.Device.Type,
			Brand:        req.Device.Brand,
			Model:        req.Device.Model,
			SerialNumber: req.Device.SerialNumber,
		},
		Issue:     req.Issue,
		Costs:     costs,
		Status:    StatusReceived,
		Priority:  priority,
		IsActive:  true,
		CreatedBy: createdBy,
	}

	var repairID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertRepair(ctx, repair)
		if err != nil {
			return err
		}
		repairID = id
		if err := tx.AppendPriceHistory(ctx, s.priceSnapshot(id, costs, createdBy)); err != nil {
			return err
		}
		return tx.AppendTimeline(ctx, TimelineEntry{
			ID:        s.newID(),
			RepairID:  id,
			Status:    StatusReceived,
			Note:      req.Issue,
			Actor:     createdBy,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.bumpReports(ctx)
	return s.repo.GetRepair(ctx, repairID)
}

// resolveCustomer returns the referenced customer, upserting an inline
// record by its contact details when no id was given.
func (s *Service) resolveCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if input.ID != nil {
		return s.directory.GetByID(ctx, *input.ID)
	}
	if input.Email == "" && input.Phone == "" {
		return nil, fmt.Errorf("%w: customer requires an id or contact details", shared.ErrValidation)
	}
	return s.directory.Upsert(ctx, Customer{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
}

// UpdateCost recomputes the breakdown from the request and appends a
// snapshot to the price history. Omitted components keep their current
// value; a flat price lands on the repair cost component.
func (s *Service) UpdateCost(ctx context.Context, id int64, req UpdateCostRequest, actor int64) (*Repair, error) {
	if req.Price == nil && req.RepairCost == nil && req.PartsCost == nil && req.LaborCost == nil {
		return nil, fmt.Errorf("%w: at least one cost component is required", shared.ErrValidation)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		repair, err := tx.GetRepairForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if repair.Status.Terminal() {
			return fmt.Errorf("%w: status %s", ErrCostLocked, repair.Status)
		}

		costs := repair.Costs
		if req.Price != nil {
			costs.RepairCost = *req.Price
		}
		if req.RepairCost != nil {
			costs.RepairCost = *req.RepairCost
		}
		if req.PartsCost != nil {
			costs.PartsCost = *req.PartsCost
		}
		if req.LaborCost != nil {
			costs.LaborCost = *req.LaborCost
		}
		costs = costs.withTotal()

		if err := tx.UpdateRepairCosts(ctx, id, costs); err != nil {
			return err
		}
		return tx.AppendPriceHistory(ctx, s.priceSnapshot(id, costs, actor))
	})
	if err != nil {
		return nil, err
	}

	s.bumpReports(ctx)
	return s.repo.GetRepair(ctx, id)
}

func (s *Service) priceSnapshot(repairID int64, costs CostBreakdown, actor int64) PriceHistoryEntry {
	return PriceHistoryEntry{
		ID:         s.newID(),
		RepairID:   repairID,
		RepairCost: costs.RepairCost,
		PartsCost:  costs.PartsCost,
		LaborCost:  costs.LaborCost,
		TotalCost:  costs.TotalCost,
		Actor:      actor,
		CreatedAt:  s.now().UTC(),
	}
}

// TransitionStatus moves a repair to a new status and appends the matching
// timeline entry. Reaching delivered stamps completed_at and dispatches a
// completion notice after commit; a failed dispatch is reported in the
// result, never as an error, because the state change already happened.
func (s *Service) TransitionStatus(ctx context.Context, id int64, req TransitionStatusRequest, actor int64) (*Repair, *notify.DispatchResult, error) {
	note := ""
	if req.Notes != nil {
		note = *req.Notes
	}
	entryID := s.newID()

	var ticket string
	var customerID int64
	var totalCost float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		repair, err := tx.GetRepairForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(repair.Status, req.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, repair.Status, req.Status)
		}
		if err := tx.UpdateRepairStatus(ctx, id, repair.Status, req.Status, req.Status == StatusDelivered); err != nil {
			return err
		}
		if req.Status == StatusDiagnosed && note != "" {
			if err := tx.UpdateDiagnosis(ctx, id, note); err != nil {
				return err
			}
		}
		ticket = repair.TicketNumber
		customerID = repair.CustomerID
		totalCost = repair.Costs.TotalCost
		return tx.AppendTimeline(ctx, TimelineEntry{
			ID:        entryID,
			RepairID:  id,
			Status:    req.Status,
			Note:      note,
			Actor:     actor,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var result *notify.DispatchResult
	if req.Status == StatusDelivered {
		result = s.notifyCompleted(ctx, id, entryID, ticket, customerID, totalCost)
	}

	s.bumpReports(ctx)
	repair, err := s.repo.GetRepair(ctx, id)
	return repair, result, err
}

func (s *Service) notifyCompleted(ctx context.Context, id int64, entryID, ticket string, customerID int64, totalCost float64) *notify.DispatchResult {
	customer, err := s.directory.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Error("customer lookup for completion notice failed",
			slog.Int64("repair_id", id),
			slog.Int64("customer_id", customerID),
			slog.Any("error", err),
		)
		return &notify.DispatchResult{Delivered: false, Error: err.Error()}
	}

	r := s.dispatcher.DispatchRepairCompleted(ctx, notify.RepairCompletedEvent{
		CorrelationID: s.newID(),
		RepairID:      id,
		TicketNumber:  ticket,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		TotalCost:     totalCost,
		CompletedAt:   s.now().UTC(),
	})
	s.markNotified(ctx, entryID, r)
	return &r
}

// SendCustomUpdate appends a free-text entry to the timeline and forwards
// the message to the customer.
func (s *Service) SendCustomUpdate(ctx context.Context, id int64, req CustomUpdateRequest, actor int64) (*Repair, *notify.DispatchResult, error) {
	repair, err := s.repo.GetRepair(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	customer, err := s.directory.GetByID(ctx, repair.CustomerID)
	if err != nil {
		return nil, nil, err
	}

	entryID := s.newID()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.AppendTimeline(ctx, TimelineEntry{
			ID:        entryID,
			RepairID:  id,
			Note:      req.Message,
			Actor:     actor,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	result := s.dispatcher.DispatchCustomUpdate(ctx, notify.CustomUpdateEvent{
		CorrelationID: s.newID(),
		RepairID:      id,
		TicketNumber:  repair.TicketNumber,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		Message:       req.Message,
	})
	s.markNotified(ctx, entryID, result)

	repair, err = s.repo.GetRepair(ctx, id)
	return repair, &result, err
}

func (s *Service) markNotified(ctx context.Context, entryID string, result notify.DispatchResult) {
	if !result.Delivered {
		return
	}
	if err := s.repo.MarkTimelineNotified(ctx, entryID); err != nil {
		s.logger.Warn("timeline notified flag update failed",
			slog.String("entry_id", entryID),
			slog.Any("error", err),
		)
	}
}

// GetRepair retrieves a repair by id.
func (s *Service) GetRepair(ctx context.Context, id int64) (*Repair, error) {
	return s.repo.GetRepair(ctx, id)
}

// Deactivate soft-deletes a repair so historical reports stay stable.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeactivateRepair(ctx, id)
	})
	if err != nil {
		return err
	}
	s.bumpReports(ctx)
	return nil
}

func (s *Service) bumpReports(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}

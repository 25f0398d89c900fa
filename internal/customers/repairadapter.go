package customers

import (
	"context"

	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
)

// RepairDirectory adapts the directory to the repair intake port.
type RepairDirectory struct {
	dir *Directory
}

// NewRepairDirectory constructs the adapter.
func NewRepairDirectory(dir *Directory) *RepairDirectory {
	return &RepairDirectory{dir: dir}
}

func (a *RepairDirectory) GetByID(ctx context.Context, id int64) (*repairs.Customer, error) {
	c, err := a.dir.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRepairCustomer(c), nil
}

func (a *RepairDirectory) Upsert(ctx context.Context, c repairs.Customer) (*repairs.Customer, error) {
	saved, err := a.dir.Upsert(ctx, Customer{Name: c.Name, Email: c.Email, Phone: c.Phone})
	if err != nil {
		return nil, err
	}
	return toRepairCustomer(saved), nil
}

func toRepairCustomer(c *Customer) *repairs.Customer {
	return &repairs.Customer{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

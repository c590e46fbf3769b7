package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
)

// ServiceRepository implements usecase.ServiceRepository.
type ServiceRepository struct {
	queries *generated.Queries
}

// NewServiceRepository creates a new ServiceRepository.
func NewServiceRepository(db generated.DBTX) *ServiceRepository {
	return &ServiceRepository{queries: generated.New(db)}
}

// List returns the catalog ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]*domain.BillService, error) {
	rows, err := r.queries.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	services := make([]*domain.BillService, 0, len(rows))
	for _, row := range rows {
		services = append(services, rowToService(row))
	}

	return services, nil
}

// GetByID returns one catalog entry.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.BillService, error) {
	row, err := r.queries.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}

		return nil, err
	}

	return rowToService(row), nil
}

func rowToService(row generated.Service) *domain.BillService {
	return &domain.BillService{
		ID:           row.ID,
		Name:         row.Name,
		InvoiceValue: numericToDecimal(row.InvoiceValue),
		CreatedAt:    row.CreatedAt.Time,
	}
}

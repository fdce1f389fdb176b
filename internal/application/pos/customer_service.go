package pos

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/partner"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// CustomerService manages billing parties
type CustomerService struct {
	customers partner.CustomerRepository
	company   *config.CompanyConfig
	logger    *zap.Logger
}

// NewCustomerService creates a customer service
func NewCustomerService(customers partner.CustomerRepository, company *config.CompanyConfig, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		company:   company,
		logger:    logger.Named("customer-service"),
	}
}

// Create registers a new customer. Names are unique.
func (s *CustomerService) Create(ctx context.Context, name, mobile string) (*partner.Customer, error) {
	name = strings.TrimSpace(name)
	existing, err := s.customers.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_ENTRY", "A customer with this name already exists")
	}
	customer, err := partner.NewCustomer(name, mobile)
	if err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Ensure returns the named customer, creating it when missing. Blank
// names resolve to the configured walk-in customer.
func (s *CustomerService) Ensure(ctx context.Context, name string) (*partner.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.company.DefaultCustomer
	}
	existing, err := s.customers.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	customer, err := partner.NewCustomer(name, "")
	if err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		// Lost a create race; the other writer's row serves just as well.
		existing, findErr := s.customers.FindByName(ctx, name)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	s.logger.Info("created customer", zap.String("name", name))
	return customer, nil
}

// List returns customers ordered by name
func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]partner.Customer, error) {
	return s.customers.List(ctx, limit, offset)
}

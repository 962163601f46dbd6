package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerSortFields are the order_by values accepted by List
var CustomerSortFields = []string{"email", "name", "order_count", "total_spent", "last_order_at"}

// Contact identifies a buyer
type Contact struct {
	Email string
	Name  string
	Phone string
}

// Upsert finds the customer for contact.Email or creates one, filling in
// missing contact details. It works on any repository, including one bound
// to a transaction.
func Upsert(ctx context.Context, repo customer.CustomerRepository, contact Contact) (*customer.Customer, error) {
	email := shared.NormalizeEmail(contact.Email)
	c, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		version := c.Version
		if err := c.UpdateContact(contact.Name, contact.Phone); err != nil {
			return nil, err
		}
		if c.Version == version {
			return c, nil
		}
	case errors.Is(err, shared.ErrNotFound):
		if c, err = customer.NewCustomer(email, contact.Name); err != nil {
			return nil, err
		}
		if err := c.UpdateContact("", contact.Phone); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CustomerService handles customer records
type CustomerService struct {
	customerRepo customer.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo customer.CustomerRepository, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// UpsertByEmail returns the customer for an email, creating it when needed
func (s *CustomerService) UpsertByEmail(ctx context.Context, contact Contact) (*customer.Customer, error) {
	c, err := Upsert(ctx, s.customerRepo, contact)
	if err != nil {
		return nil, err
	}
	c.ClearDomainEvents()
	return c, nil
}

// GetByID returns a customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// List returns customers for admins
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
	}.Normalize(CustomerSortFields...)

	customers, err := s.customerRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = ToCustomerResponse(&customers[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

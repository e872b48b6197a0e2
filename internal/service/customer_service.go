package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// CustomerService manages requesters.
type CustomerService struct {
	customers repository.CustomerRepository
}

// NewCustomerService constructs the service.
func NewCustomerService(customers repository.CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// CreateCustomer validates and stores a customer.
func (s *CustomerService) CreateCustomer(ctx context.Context, firstName, lastName, email string) (*domain.Customer, error) {
	customer := &domain.Customer{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     normalizeEmail(email),
	}
	details := map[string]any{}
	if customer.FirstName == "" {
		details["first_name"] = "required"
	}
	if customer.LastName == "" {
		details["last_name"] = "required"
	}
	if _, err := mail.ParseAddress(customer.Email); err != nil {
		details["email"] = "invalid"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid customer", details)
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// ListCustomers returns all customers.
func (s *CustomerService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.List(ctx)
}

// GetCustomer fetches one customer.
func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return nil, err
	}
	return customer, nil
}

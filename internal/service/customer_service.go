package service

import (
	"strings"

	"bill-mart/internal/model"
	"bill-mart/internal/repository"
	"bill-mart/pkg/validator"

	"github.com/google/uuid"
)

type CustomerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

type CustomerService interface {
	Create(req *CustomerRequest, actor Actor) (*model.Customer, error)
	Update(id uuid.UUID, req *CustomerRequest, actor Actor) (*model.Customer, error)
	Delete(id uuid.UUID, actor Actor) error
	GetAll(opts repository.ListOptions) ([]model.Customer, error)
	Get(id uuid.UUID) (*model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	region       string
}

// NewCustomerService stores phone numbers in E.164, reading local numbers in region.
func NewCustomerService(customerRepo repository.CustomerRepository, region string) CustomerService {
	return &customerService{customerRepo: customerRepo, region: strings.ToUpper(region)}
}

func (s *customerService) normalize(req *CustomerRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validate(req); err != nil {
		return err
	}
	if req.Phone != "" {
		phone, err := validator.NormalizePhone(req.Phone, s.region)
		if err != nil {
			return validator.NewValidationError("CustomerRequest.Phone", "phone")
		}
		req.Phone = phone
	}
	return nil
}

func (s *customerService) Create(req *CustomerRequest, actor Actor) (*model.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}
	customer := &model.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone}
	customer.CreatedBy = actor.ID
	customer.UpdatedBy = actor.ID
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(id uuid.UUID, req *CustomerRequest, actor Actor) (*model.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}
	customer, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.UpdatedBy = actor.ID
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Delete(id uuid.UUID, actor Actor) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	count, err := s.customerRepo.CountInvoices(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCustomerInUse
	}
	return s.customerRepo.Delete(id, actor.ID)
}

func (s *customerService) GetAll(opts repository.ListOptions) ([]model.Customer, error) {
	return s.customerRepo.FindAll(opts)
}

func (s *customerService) Get(id uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

package repository

import (
	"bill-mart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindAll(opts ListOptions) ([]model.Customer, error)
	FindByID(id uuid.UUID) (*model.Customer, error)
	Update(customer *model.Customer) error
	Delete(id uuid.UUID, deletedBy string) error
	CountInvoices(id uuid.UUID) (int64, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(customer *model.Customer) error {
	return r.db.Create(customer).Error
}

func (r *customerRepo) FindAll(opts ListOptions) ([]model.Customer, error) {
	var customers []model.Customer
	err := opts.apply(r.db, "name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) FindByID(id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) Update(customer *model.Customer) error {
	return r.db.Model(customer).Select("name", "email", "phone", "updated_by", "updated_at").Updates(customer).Error
}

func (r *customerRepo) Delete(id uuid.UUID, deletedBy string) error {
	return softDelete(r.db.Model(&model.Customer{}).Where("id = ?", id), deletedBy).Error
}

func (r *customerRepo) CountInvoices(id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Invoice{}).Where("customer_id = ?", id).Count(&count).Error
	return count, err
}

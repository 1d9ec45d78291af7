package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// PageSize is the batch size used when a listing is read to exhaustion.
const PageSize = 100

// ListOptions narrows a listing. Zero values mean no limit and default order.
type ListOptions struct {
	Limit  int
	Offset int
	Order  string
}

func (o ListOptions) apply(q *gorm.DB, defaultOrder string) *gorm.DB {
	order := o.Order
	if order == "" {
		order = defaultOrder
	}
	if order != "" {
		q = q.Order(order)
	}
	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}
	if o.Offset > 0 {
		q = q.Offset(o.Offset)
	}
	return q
}

// IsNotFound reports whether err is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// softDelete marks rows deleted and records who did it.
func softDelete(q *gorm.DB, deletedBy string) *gorm.DB {
	return q.Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": deletedBy,
	})
}

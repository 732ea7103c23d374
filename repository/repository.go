package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const maxTxAttempts = 3

// MySQL error numbers that mean the transaction was rolled back by the server
// and can be replayed as a whole.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

type Repository struct {
	DB          *gorm.DB
	Inventories InventoryRepo
	Bookings    BookingRepo
	Catalog     CatalogRepo
	Payments    PaymentRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:          db,
		Inventories: NewInventoryRepo(db),
		Bookings:    NewBookingRepo(db),
		Catalog:     NewCatalogRepo(db),
		Payments:    NewPaymentRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx runs fn inside one transaction over every repo. A transaction that
// the server aborted with a deadlock or lock wait timeout is replayed.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(buildRepository(tx))
		})
		if err == nil || !IsRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func IsRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockWaitTimeout
	}
	return false
}

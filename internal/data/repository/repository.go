package repository

import (
	"errors"

	"lab-booking/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Lab          LabRepository
	Catalog      CatalogRepository
	Booking      BookingRepository
	BookingEvent BookingEventRepository
	Payment      PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Lab:          NewLabRepository(db, log),
		Catalog:      NewCatalogRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		BookingEvent: NewBookingEventRepository(db, log),
		Payment:      NewPaymentRepository(db, log),
	}
}

// unique_violation
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

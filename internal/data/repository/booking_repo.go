package repository

import (
	"context"
	"errors"
	"fmt"

	"lab-booking/internal/data/entity"
	"lab-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrConflict means the stored booking no longer matches the state a
	// transition was computed from. Re-read and retry.
	ErrConflict        = errors.New("booking was modified concurrently")
	ErrBookingNotFound = errors.New("booking not found")
)

// BookingChange is one atomic write: the updated booking, the state it was
// computed against, and the audit rows that go with it.
type BookingChange struct {
	Booking         *entity.Booking
	ExpectedStatus  entity.BookingStatus
	ExpectedPayment entity.PaymentStatus
	Event           *entity.BookingEvent
	Payment         *entity.Payment
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByLabID(ctx context.Context, labID uuid.UUID, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error)
	CountByLabID(ctx context.Context, labID uuid.UUID, status *entity.BookingStatus) (int64, error)

	// Save writes change only if the stored status and payment status still
	// equal the expected ones, otherwise it returns ErrConflict.
	Save(ctx context.Context, change BookingChange) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, order_id, user_id, lab_id, status, payment_status, payment_method,
		selected_tests, selected_packages, total_amount, report_file, test_results, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.OrderID,
		&booking.UserID,
		&booking.LabID,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentMethod,
		&booking.SelectedTests,
		&booking.SelectedPackages,
		&booking.TotalAmount,
		&booking.ReportFile,
		&booking.TestResults,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.OrderID,
		booking.UserID,
		booking.LabID,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		nonNil(booking.SelectedTests),
		nonNil(booking.SelectedPackages),
		booking.TotalAmount,
		booking.ReportFile,
		nonNil(booking.TestResults),
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindByLabID(ctx context.Context, labID uuid.UUID, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE lab_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, labID, statusArg(status), limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by lab ID",
			zap.Error(err),
			zap.String("lab_id", labID.String()),
		)
		return nil, fmt.Errorf("find bookings by lab ID %s: %w", labID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByLabID(ctx context.Context, labID uuid.UUID, status *entity.BookingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE lab_id = $1 AND ($2::text IS NULL OR status = $2)`

	var count int64
	if err := r.db.QueryRow(ctx, query, labID, statusArg(status)).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by lab ID",
			zap.Error(err),
			zap.String("lab_id", labID.String()),
		)
		return 0, fmt.Errorf("count bookings by lab ID %s: %w", labID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) Save(ctx context.Context, change BookingChange) error {
	booking := change.Booking

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = $2, payment_status = $3, report_file = $4, test_results = $5, updated_at = $6
			WHERE id = $1 AND status = $7 AND payment_status = $8
		`

		result, err := tx.Exec(ctx, query,
			booking.ID,
			booking.Status,
			booking.PaymentStatus,
			booking.ReportFile,
			nonNil(booking.TestResults),
			booking.UpdatedAt,
			change.ExpectedStatus,
			change.ExpectedPayment,
		)
		if err != nil {
			return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
		}

		if result.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, booking.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check booking %s: %w", booking.ID.String(), err)
			}
			if !exists {
				return ErrBookingNotFound
			}
			return ErrConflict
		}

		if change.Event != nil {
			if err := insertBookingEvent(ctx, tx, change.Event); err != nil {
				return err
			}
		}
		if change.Payment != nil {
			if err := insertPayment(ctx, tx, change.Payment); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil && !errors.Is(err, ErrConflict) && !errors.Is(err, ErrBookingNotFound) {
		r.log.Error("Failed to save booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("expected_status", string(change.ExpectedStatus)),
		)
	}

	return err
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func statusArg(status *entity.BookingStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

// nonNil keeps jsonb columns as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package repository

import (
	"context"
	"fmt"

	"lab-booking/internal/data/entity"
	"lab-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type BookingEventRepository interface {
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingEvent, error)
}

type bookingEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingEventRepository(db database.PgxIface, log *zap.Logger) BookingEventRepository {
	return &bookingEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_event")),
	}
}

func insertBookingEvent(ctx context.Context, ex execer, event *entity.BookingEvent) error {
	query := `
		INSERT INTO booking_events (id, booking_id, actor_id, kind, from_state, to_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := ex.Exec(ctx, query,
		event.ID,
		event.BookingID,
		event.ActorID,
		event.Kind,
		event.From,
		event.To,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking event for booking %s: %w", event.BookingID.String(), err)
	}

	return nil
}

func (r *bookingEventRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingEvent, error) {
	query := `
		SELECT id, booking_id, actor_id, kind, from_state, to_state, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking events",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find booking events for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var events []*entity.BookingEvent
	for rows.Next() {
		var event entity.BookingEvent
		err := rows.Scan(
			&event.ID,
			&event.BookingID,
			&event.ActorID,
			&event.Kind,
			&event.From,
			&event.To,
			&event.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan booking event row", zap.Error(err))
			return nil, fmt.Errorf("scan booking event row: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

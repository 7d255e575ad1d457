package usecase

import (
	"context"
	"io"

	"lab-booking/internal/workflow"

	"github.com/google/uuid"
)

// ArtifactStore keeps uploaded report files. The booking only records the
// returned reference.
type ArtifactStore interface {
	Save(ctx context.Context, bookingID uuid.UUID, filename string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (rc io.ReadCloser, contentType string, err error)
	Delete(ctx context.Context, ref string) error
}

// Notifier delivers owner notifications. Failures are logged, never rolled
// back into the booking.
type Notifier interface {
	Notify(ctx context.Context, effect workflow.SideEffect) error
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"lab-booking/internal/authz"
	"lab-booking/internal/data/entity"
	"lab-booking/internal/data/repository"
	"lab-booking/internal/dto/request"
	"lab-booking/internal/dto/response"
	"lab-booking/internal/workflow"
	"lab-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Patient endpoints
	CreateBooking(ctx context.Context, p *authz.Principal, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, p *authz.Principal, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, p *authz.Principal, bookingID string) (*response.BookingDetailResponse, error)
	OpenReport(ctx context.Context, p *authz.Principal, bookingID string) (io.ReadCloser, string, error)

	// Lab operator endpoints
	ListLabBookings(ctx context.Context, p *authz.Principal, labID string, req *request.LabBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	UpdateStatus(ctx context.Context, p *authz.Principal, bookingID string, req *request.UpdateStatusRequest) (*response.BookingResponse, error)
	UploadReport(ctx context.Context, p *authz.Principal, bookingID, filename string, file io.Reader) (*response.BookingResponse, error)
	SubmitResults(ctx context.Context, p *authz.Principal, bookingID string, req *request.SubmitResultsRequest) (*response.BookingResponse, error)
	UpdatePayment(ctx context.Context, p *authz.Principal, bookingID string, req *request.UpdatePaymentRequest) (*response.BookingResponse, error)

	// Drain blocks until queued owner notifications finish or ctx is done.
	Drain(ctx context.Context) error
}

type bookingService struct {
	repo         *repository.Repository
	store        ArtifactStore
	notifier     Notifier
	orchestrator *workflow.Orchestrator
	maxRetries   int
	log          *zap.Logger

	inflight sync.WaitGroup
}

func NewBookingService(
	repo *repository.Repository,
	store ArtifactStore,
	notifier Notifier,
	config utils.WorkflowConfig,
	log *zap.Logger,
) BookingService {
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &bookingService{
		repo:     repo,
		store:    store,
		notifier: notifier,
		orchestrator: workflow.NewOrchestrator(workflow.Policy{
			RequirePaymentForCompletion: config.RequirePaymentForCompletion,
		}),
		maxRetries: maxRetries,
		log:        log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, p *authz.Principal, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := authz.Authorize(p, authz.CapabilityUser, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	labID, err := uuid.Parse(req.LabID)
	if err != nil {
		return nil, invalid("invalid lab ID format %s", req.LabID)
	}

	lab, err := s.repo.Lab.FindByID(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("find lab: %w", err)
	}
	if lab == nil || !lab.IsActive {
		return nil, notFound("lab", req.LabID)
	}

	tests, err := s.resolveItems(ctx, labID, req.TestIDs, entity.CatalogKindTest)
	if err != nil {
		return nil, err
	}
	packages, err := s.resolveItems(ctx, labID, req.PackageIDs, entity.CatalogKindPackage)
	if err != nil {
		return nil, err
	}
	if len(tests)+len(packages) == 0 {
		return nil, invalid("select at least one test or package")
	}

	now := time.Now()
	booking := &entity.Booking{
		BaseNoDelete:     entity.NewBaseNoDelete(now),
		OrderID:          utils.GenerateOrderID(),
		UserID:           p.ID,
		LabID:            labID,
		Status:           entity.BookingStatusPending,
		PaymentStatus:    entity.PaymentStatusPending,
		PaymentMethod:    entity.PaymentMethod(req.PaymentMethod),
		SelectedTests:    tests,
		SelectedPackages: packages,
		TotalAmount:      entity.SumLineItems(tests, packages),
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", p.ID.String()),
			zap.String("lab_id", req.LabID),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.String("user_id", p.ID.String()),
		zap.String("lab_id", labID.String()),
		zap.Int("item_count", len(tests)+len(packages)),
		zap.String("total_amount", booking.TotalAmount.StringFixed(2)),
	)

	resp := response.BookingToResponse(booking, lab.Name, nil)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, p *authz.Principal, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := authz.Authorize(p, authz.CapabilityUser, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	req.Normalize()

	bookings, err := s.repo.Booking.FindByUserID(ctx, p.ID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", p.ID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, p.ID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	s.log.Info("User bookings retrieved",
		zap.String("user_id", p.ID.String()),
		zap.Int("count", len(bookings)),
		zap.Int64("total", total),
	)

	return response.NewPaginatedResponse(s.toResponses(ctx, p, bookings), req.Page, req.PerPage, total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, p *authz.Principal, bookingID string) (*response.BookingDetailResponse, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	decision := authz.AuthorizeReader(p, authz.Resource{LabID: booking.LabID, OwnerID: booking.UserID})
	if err := decision.Err(); err != nil {
		s.log.Warn("Booking read denied",
			zap.String("booking_id", bookingID),
			zap.String("reason", string(decision.Reason)),
		)
		return nil, err
	}

	events, err := s.repo.BookingEvent.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("get booking history: %w", err)
	}
	payments, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("get booking payments: %w", err)
	}

	detail := &response.BookingDetailResponse{
		BookingResponse: s.toResponse(ctx, p, booking),
		History:         make([]response.BookingEventResponse, len(events)),
		Payments:        make([]response.PaymentResponse, len(payments)),
	}
	for i, event := range events {
		detail.History[i] = response.BookingEventToResponse(event)
	}
	for i, payment := range payments {
		detail.Payments[i] = response.PaymentToResponse(payment)
	}

	return detail, nil
}

// OpenReport streams the report file. Owners see it only once results are
// published; operators as soon as it is uploaded.
func (s *bookingService) OpenReport(ctx context.Context, p *authz.Principal, bookingID string) (io.ReadCloser, string, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	if err := authz.AuthorizeReader(p, authz.Resource{LabID: booking.LabID, OwnerID: booking.UserID}).Err(); err != nil {
		return nil, "", err
	}

	if booking.ReportFile == nil || *booking.ReportFile == "" {
		return nil, "", notFound("report for booking", bookingID)
	}
	if p.IsUser() && booking.Status.Rank() < entity.BookingStatusResultPublished.Rank() {
		return nil, "", notFound("report for booking", bookingID)
	}

	rc, contentType, err := s.store.Open(ctx, *booking.ReportFile)
	if err != nil {
		s.log.Error("Failed to open report",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, "", fmt.Errorf("open report: %w", err)
	}

	return rc, contentType, nil
}

func (s *bookingService) ListLabBookings(ctx context.Context, p *authz.Principal, labID string, req *request.LabBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := uuid.Parse(labID)
	if err != nil {
		return nil, invalid("invalid lab ID format %s", labID)
	}

	if err := authz.AuthorizeOperator(p, authz.Resource{LabID: id}).Err(); err != nil {
		return nil, err
	}

	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	var status *entity.BookingStatus
	if req.Status != nil {
		st := entity.BookingStatus(*req.Status)
		status = &st
	}

	bookings, err := s.repo.Booking.FindByLabID(ctx, id, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get lab bookings: %w", err)
	}
	total, err := s.repo.Booking.CountByLabID(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("count lab bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.toResponses(ctx, p, bookings), req.Page, req.PerPage, total), nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, p *authz.Principal, bookingID string, req *request.UpdateStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	booking, err := s.execute(ctx, p, bookingID, workflow.StatusTransition(entity.BookingStatus(req.Status)), nil)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, p, booking)
	return &resp, nil
}

func (s *bookingService) UploadReport(ctx context.Context, p *authz.Principal, bookingID, filename string, file io.Reader) (*response.BookingResponse, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// check up front so nothing is stored for a request that cannot succeed
	if err := authz.AuthorizeOperator(p, authz.Resource{LabID: booking.LabID}).Err(); err != nil {
		return nil, err
	}
	if !workflow.CanTransition(booking.Status, entity.BookingStatusReportUploaded) {
		return nil, &workflow.RejectionError{
			Kind: workflow.KindNoSuchEdge,
			From: string(booking.Status),
			To:   string(entity.BookingStatusReportUploaded),
		}
	}

	ref, err := s.store.Save(ctx, booking.ID, filename, file)
	if err != nil {
		s.log.Warn("Failed to store report",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("store report: %w", err)
	}

	tr := workflow.StatusTransition(entity.BookingStatusReportUploaded)
	tr.Attachment = workflow.Attachment{ReportFile: &ref}

	updated, err := s.execute(ctx, p, bookingID, tr, nil)
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), ref); delErr != nil {
			s.log.Warn("Failed to remove orphaned report",
				zap.Error(delErr),
				zap.String("ref", ref),
			)
		}
		return nil, err
	}

	resp := s.toResponse(ctx, p, updated)
	return &resp, nil
}

func (s *bookingService) SubmitResults(ctx context.Context, p *authz.Principal, bookingID string, req *request.SubmitResultsRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	results := make([]entity.TestResult, len(req.Results))
	for i, r := range req.Results {
		var testID *uuid.UUID
		if r.TestID != nil {
			id, err := uuid.Parse(*r.TestID)
			if err != nil {
				return nil, invalid("invalid test ID format %s", *r.TestID)
			}
			testID = &id
		}
		results[i] = entity.TestResult{
			TestID:         testID,
			Name:           r.Name,
			Value:          r.Value,
			Unit:           r.Unit,
			ReferenceRange: r.ReferenceRange,
			Flag:           r.Flag,
		}
	}

	tr := workflow.StatusTransition(entity.BookingStatusReportUploaded)
	tr.Attachment = workflow.Attachment{TestResults: results}

	booking, err := s.execute(ctx, p, bookingID, tr, nil)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, p, booking)
	return &resp, nil
}

func (s *bookingService) UpdatePayment(ctx context.Context, p *authz.Principal, bookingID string, req *request.UpdatePaymentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	tr := workflow.PaymentTransition(entity.PaymentStatus(req.Status))
	booking, err := s.execute(ctx, p, bookingID, tr, req.TransactionID)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, p, booking)
	return &resp, nil
}

// execute runs one transition with optimistic concurrency: read the booking,
// decide, then write only if the stored state is still the one we read.
func (s *bookingService) execute(ctx context.Context, p *authz.Principal, bookingID string, tr workflow.Transition, transactionID *string) (*entity.Booking, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		booking, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		applied, err := s.orchestrator.Execute(p, *booking, tr)
		if err != nil {
			s.logRefusal(err, p, booking, tr)
			return nil, err
		}

		next := applied.Booking
		now := time.Now()
		next.UpdatedAt = now

		err = s.repo.Booking.Save(ctx, s.buildChange(p, applied, &next, transactionID, now))
		if errors.Is(err, repository.ErrConflict) {
			s.log.Warn("Booking changed during transition, retrying",
				zap.String("booking_id", bookingID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, notFound("booking", bookingID)
		}
		if err != nil {
			return nil, fmt.Errorf("save booking %s: %w", bookingID, err)
		}

		s.log.Info("Booking transition applied",
			zap.String("booking_id", bookingID),
			zap.String("actor_id", p.ID.String()),
			zap.String("kind", string(tr.Kind)),
			zap.String("from_status", string(applied.PriorStatus)),
			zap.String("status", string(next.Status)),
			zap.String("payment_status", string(next.PaymentStatus)),
		)

		s.dispatch(applied.SideEffects)
		return &next, nil
	}

	s.log.Warn("Booking transition gave up after conflicts",
		zap.String("booking_id", bookingID),
		zap.Int("retries", s.maxRetries),
	)
	return nil, fmt.Errorf("%w: %w", ErrConcurrencyConflict, repository.ErrConflict)
}

func (s *bookingService) buildChange(p *authz.Principal, applied *workflow.Applied, next *entity.Booking, transactionID *string, now time.Time) repository.BookingChange {
	change := repository.BookingChange{
		Booking:         next,
		ExpectedStatus:  applied.PriorStatus,
		ExpectedPayment: applied.PriorPayment,
	}

	event := &entity.BookingEvent{
		BaseSimple: entity.NewBaseSimple(now),
		BookingID:  next.ID,
		ActorID:    p.ID,
	}

	switch applied.Transition.Kind {
	case workflow.TransitionPayment:
		event.Kind = entity.BookingEventPayment
		event.From = string(applied.PriorPayment)
		event.To = string(next.PaymentStatus)
		change.Payment = &entity.Payment{
			BaseSimple:    entity.NewBaseSimple(now),
			BookingID:     next.ID,
			Method:        next.PaymentMethod,
			Amount:        next.TotalAmount,
			Status:        next.PaymentStatus,
			RecordedBy:    p.ID,
			TransactionID: transactionID,
		}
	default:
		event.Kind = entity.BookingEventStatus
		event.From = string(applied.PriorStatus)
		event.To = string(next.Status)
	}
	change.Event = event

	return change
}

// dispatch hands notifications to the notifier off the request path.
// PersistBooking is already satisfied by the save in execute.
func (s *bookingService) dispatch(effects []workflow.SideEffect) {
	for _, effect := range effects {
		if effect.Kind != workflow.EffectNotifyOwner || s.notifier == nil {
			continue
		}

		s.inflight.Add(1)
		go func(effect workflow.SideEffect) {
			defer s.inflight.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.notifier.Notify(ctx, effect); err != nil {
				s.log.Error("Failed to notify booking owner",
					zap.Error(err),
					zap.String("booking_id", effect.BookingID),
					zap.String("event", string(effect.Event)),
				)
			}
		}(effect)
	}
}

func (s *bookingService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain notifications: %w", ctx.Err())
	}
}

func (s *bookingService) logRefusal(err error, p *authz.Principal, booking *entity.Booking, tr workflow.Transition) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("booking_id", booking.ID.String()),
		zap.String("status", string(booking.Status)),
		zap.String("kind", string(tr.Kind)),
	}
	if p != nil {
		fields = append(fields, zap.String("actor_id", p.ID.String()), zap.String("role", string(p.Role)))
	}
	s.log.Warn("Booking transition refused", fields...)
}

func (s *bookingService) loadBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, invalid("invalid booking ID format %s", bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}

	return booking, nil
}

// resolveItems loads the catalog entries behind ids, keeping request order.
func (s *bookingService) resolveItems(ctx context.Context, labID uuid.UUID, ids []string, kind entity.CatalogKind) ([]entity.LineItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalid("invalid %s ID format %s", kind, raw)
		}
		if seen[id] {
			return nil, invalid("%s %s selected twice", kind, raw)
		}
		seen[id] = true
		parsed = append(parsed, id)
	}

	items, err := s.repo.Catalog.FindByIDs(ctx, labID, parsed)
	if err != nil {
		return nil, fmt.Errorf("find catalog items: %w", err)
	}

	byID := make(map[uuid.UUID]*entity.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	lineItems := make([]entity.LineItem, len(parsed))
	for i, id := range parsed {
		item, ok := byID[id]
		if !ok || item.Kind != kind {
			return nil, notFound(string(kind), id.String())
		}
		lineItems[i] = item.LineItem()
	}

	return lineItems, nil
}

func (s *bookingService) toResponse(ctx context.Context, p *authz.Principal, booking *entity.Booking) response.BookingResponse {
	return s.buildResponse(p, booking, s.labName(ctx, booking.LabID))
}

// labName is best effort; a failed lookup leaves the name blank.
func (s *bookingService) labName(ctx context.Context, labID uuid.UUID) string {
	lab, err := s.repo.Lab.FindByID(ctx, labID)
	if err != nil {
		s.log.Warn("Failed to resolve lab name",
			zap.Error(err),
			zap.String("lab_id", labID.String()),
		)
		return ""
	}
	if lab == nil {
		return ""
	}
	return lab.Name
}

func (s *bookingService) buildResponse(p *authz.Principal, booking *entity.Booking, labName string) response.BookingResponse {
	var allowed []entity.BookingStatus
	if authz.AuthorizeOperator(p, authz.Resource{LabID: booking.LabID}).Granted {
		allowed = workflow.NextStatuses(booking.Status)
	}

	return response.BookingToResponse(booking, labName, allowed)
}

func (s *bookingService) toResponses(ctx context.Context, p *authz.Principal, bookings []*entity.Booking) []response.BookingResponse {
	names := make(map[uuid.UUID]string)
	out := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		name, ok := names[booking.LabID]
		if !ok {
			name = s.labName(ctx, booking.LabID)
			names[booking.LabID] = name
		}
		out[i] = s.buildResponse(p, booking, name)
	}
	return out
}

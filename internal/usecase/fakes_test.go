package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"lab-booking/internal/data/entity"
	"lab-booking/internal/data/repository"
	"lab-booking/internal/workflow"

	"github.com/google/uuid"
)

// memStore backs every fake repository so that tests can inspect one place.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[string]*entity.Session
	labs     map[uuid.UUID]*entity.Lab
	catalog  map[uuid.UUID]*entity.CatalogItem
	bookings map[uuid.UUID]*entity.Booking
	events   []*entity.BookingEvent
	payments []*entity.Payment

	// beforeSave runs inside Save before the compare, to simulate a writer
	// that got there first.
	beforeSave func(stored *entity.Booking)
	saves      int
	labLookups int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*entity.User{},
		sessions: map[string]*entity.Session{},
		labs:     map[uuid.UUID]*entity.Lab{},
		catalog:  map[uuid.UUID]*entity.CatalogItem{},
		bookings: map[uuid.UUID]*entity.Booking{},
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:         fakeUserRepo{m},
		Session:      fakeSessionRepo{m},
		Lab:          fakeLabRepo{m},
		Catalog:      fakeCatalogRepo{m},
		Booking:      fakeBookingRepo{m},
		BookingEvent: fakeEventRepo{m},
		Payment:      fakePaymentRepo{m},
	}
}

func copyBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.SelectedTests = append([]entity.LineItem(nil), b.SelectedTests...)
	c.SelectedPackages = append([]entity.LineItem(nil), b.SelectedPackages...)
	c.TestResults = append([]entity.TestResult(nil), b.TestResults...)
	if b.ReportFile != nil {
		ref := *b.ReportFile
		c.ReportFile = &ref
	}
	return &c
}

// ---- users ----

type fakeUserRepo struct{ m *memStore }

func (r fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	u := *user
	r.m.users[user.ID] = &u
	return nil
}

func (r fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok && u.DeletedAt == nil {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r fakeUserRepo) find(match func(*entity.User) bool) *entity.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.DeletedAt == nil && match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (r fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r fakeUserRepo) FindAll(_ context.Context, limit, offset int, role *entity.UserRole) ([]*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.User
	for _, u := range r.m.users {
		if u.DeletedAt == nil && (role == nil || u.Role == *role) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, limit, offset), nil
}

func (r fakeUserRepo) CountAll(ctx context.Context, role *entity.UserRole) (int64, error) {
	users, _ := r.FindAll(ctx, 1<<30, 0, role)
	return int64(len(users)), nil
}

func (r fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[user.ID]; !ok || u.DeletedAt != nil {
		return repository.ErrUserNotFound
	}
	u := *user
	r.m.users[user.ID] = &u
	return nil
}

func (r fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok || u.DeletedAt != nil {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

// ---- sessions ----

type fakeSessionRepo struct{ m *memStore }

func (r fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s := *session
	r.m.sessions[session.Token.String()] = &s
	return nil
}

func (r fakeSessionRepo) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token]
	if !ok || s.RevokedAt != nil || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r fakeSessionRepo) Revoke(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.sessions[token]; ok {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (r fakeSessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now()
	for _, s := range r.m.sessions {
		if s.UserID == userID {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r fakeSessionRepo) PurgeStale(_ context.Context, olderThan time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, s := range r.m.sessions {
		if s.ExpiresAt.Before(olderThan) || (s.RevokedAt != nil && s.RevokedAt.Before(olderThan)) {
			delete(r.m.sessions, token)
			n++
		}
	}
	return n, nil
}

// ---- labs and catalog ----

type fakeLabRepo struct{ m *memStore }

func (r fakeLabRepo) Create(_ context.Context, lab *entity.Lab) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l := *lab
	r.m.labs[lab.ID] = &l
	return nil
}

func (r fakeLabRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Lab, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.labLookups++
	if l, ok := r.m.labs[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (r fakeLabRepo) FindAll(_ context.Context, limit, offset int, _ *string) ([]*entity.Lab, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Lab
	for _, l := range r.m.labs {
		if l.IsActive {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r fakeLabRepo) CountAll(ctx context.Context, name *string) (int64, error) {
	labs, _ := r.FindAll(ctx, 1<<30, 0, name)
	return int64(len(labs)), nil
}

func (r fakeLabRepo) Update(_ context.Context, lab *entity.Lab) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l := *lab
	r.m.labs[lab.ID] = &l
	return nil
}

type fakeCatalogRepo struct{ m *memStore }

func (r fakeCatalogRepo) Create(_ context.Context, item *entity.CatalogItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *item
	r.m.catalog[item.ID] = &c
	return nil
}

func (r fakeCatalogRepo) FindByLabID(_ context.Context, labID uuid.UUID) ([]*entity.CatalogItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.CatalogItem
	for _, item := range r.m.catalog {
		if item.LabID == labID && item.IsActive {
			c := *item
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeCatalogRepo) FindByIDs(_ context.Context, labID uuid.UUID, ids []uuid.UUID) ([]*entity.CatalogItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.CatalogItem
	for _, id := range ids {
		if item, ok := r.m.catalog[id]; ok && item.LabID == labID && item.IsActive {
			c := *item
			out = append(out, &c)
		}
	}
	return out, nil
}

// ---- bookings ----

type fakeBookingRepo struct{ m *memStore }

func (r fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (r fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if b, ok := r.m.bookings[id]; ok {
		return copyBooking(b), nil
	}
	return nil, nil
}

func (r fakeBookingRepo) filter(match func(*entity.Booking) bool) []*entity.Booking {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if match(b) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b *entity.Booking) bool { return b.UserID == userID }), limit, offset), nil
}

func (r fakeBookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b *entity.Booking) bool { return b.UserID == userID }))), nil
}

func labMatch(labID uuid.UUID, status *entity.BookingStatus) func(*entity.Booking) bool {
	return func(b *entity.Booking) bool {
		return b.LabID == labID && (status == nil || b.Status == *status)
	}
}

func (r fakeBookingRepo) FindByLabID(_ context.Context, labID uuid.UUID, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(labMatch(labID, status)), limit, offset), nil
}

func (r fakeBookingRepo) CountByLabID(_ context.Context, labID uuid.UUID, status *entity.BookingStatus) (int64, error) {
	return int64(len(r.filter(labMatch(labID, status)))), nil
}

func (r fakeBookingRepo) Save(_ context.Context, change repository.BookingChange) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.saves++

	stored, ok := r.m.bookings[change.Booking.ID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if r.m.beforeSave != nil {
		r.m.beforeSave(stored)
	}
	if stored.Status != change.ExpectedStatus || stored.PaymentStatus != change.ExpectedPayment {
		return repository.ErrConflict
	}

	r.m.bookings[change.Booking.ID] = copyBooking(change.Booking)
	if change.Event != nil {
		r.m.events = append(r.m.events, change.Event)
	}
	if change.Payment != nil {
		r.m.payments = append(r.m.payments, change.Payment)
	}
	return nil
}

type fakeEventRepo struct{ m *memStore }

func (r fakeEventRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.BookingEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.BookingEvent
	for _, e := range r.m.events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePaymentRepo struct{ m *memStore }

func (r fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.m.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ---- collaborators ----

type memArtifacts struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{files: map[string][]byte{}}
}

func (a *memArtifacts) Save(_ context.Context, bookingID uuid.UUID, filename string, r io.Reader) (string, error) {
	if a.saveErr != nil {
		return "", a.saveErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ref := bookingID.String() + "/" + filename
	a.files[ref] = body
	return ref, nil
}

func (a *memArtifacts) Open(_ context.Context, ref string) (io.ReadCloser, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	body, ok := a.files[ref]
	if !ok {
		return nil, "", errors.New("no such artifact")
	}
	return io.NopCloser(bytes.NewReader(body)), "application/pdf", nil
}

func (a *memArtifacts) Delete(_ context.Context, ref string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, ref)
	return nil
}

func (a *memArtifacts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.files)
}

type chanNotifier struct {
	ch chan workflow.SideEffect
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{ch: make(chan workflow.SideEffect, 16)}
}

func (n *chanNotifier) Notify(_ context.Context, effect workflow.SideEffect) error {
	n.ch <- effect
	return nil
}

// gatedNotifier holds every delivery until release is closed.
type gatedNotifier struct {
	release   chan struct{}
	delivered chan workflow.SideEffect
}

func newGatedNotifier() *gatedNotifier {
	return &gatedNotifier{
		release:   make(chan struct{}),
		delivered: make(chan workflow.SideEffect, 16),
	}
}

func (n *gatedNotifier) Notify(_ context.Context, effect workflow.SideEffect) error {
	<-n.release
	n.delivered <- effect
	return nil
}

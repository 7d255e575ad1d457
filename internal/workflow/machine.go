package workflow

import (
	"errors"
	"fmt"

	"lab-booking/internal/data/entity"
)

type RejectionKind string

const (
	KindNoSuchEdge  RejectionKind = "no_such_edge"
	KindGuardFailed RejectionKind = "guard_failed"
)

var (
	ErrNoSuchEdge  = errors.New("no such transition")
	ErrGuardFailed = errors.New("transition guard failed")
)

type RejectionError struct {
	Kind    RejectionKind
	From    string
	To      string
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cannot move from %s to %s: %s", e.From, e.To, e.Message)
	}
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *RejectionError) Unwrap() error {
	if e.Kind == KindGuardFailed {
		return ErrGuardFailed
	}
	return ErrNoSuchEdge
}

func noSuchEdge(from, to string) error {
	return &RejectionError{Kind: KindNoSuchEdge, From: from, To: to}
}

func guardFailed(from, to, msg string) error {
	return &RejectionError{Kind: KindGuardFailed, From: from, To: to, Message: msg}
}

// Attachment is the payload that travels with a transition request.
type Attachment struct {
	ReportFile  *string
	TestResults []entity.TestResult
}

func (a Attachment) present() bool {
	return (&entity.Booking{ReportFile: a.ReportFile, TestResults: a.TestResults}).HasReport()
}

type guard func(b *entity.Booking, a Attachment, p Policy) string

// Policy holds the switchable guard decisions.
type Policy struct {
	// RequirePaymentForCompletion blocks result_published -> completed until
	// the payment status is completed.
	RequirePaymentForCompletion bool
}

func DefaultPolicy() Policy {
	return Policy{RequirePaymentForCompletion: true}
}

var statusEdges = map[entity.BookingStatus]map[entity.BookingStatus]guard{
	entity.BookingStatusPending: {
		entity.BookingStatusConfirmed: nil,
		entity.BookingStatusCancelled: nil,
	},
	entity.BookingStatusConfirmed: {
		entity.BookingStatusInProgress: nil,
		entity.BookingStatusCancelled:  nil,
	},
	entity.BookingStatusInProgress: {
		entity.BookingStatusSampleCollected: nil,
		entity.BookingStatusCancelled:       nil,
	},
	entity.BookingStatusSampleCollected: {
		entity.BookingStatusReportUploaded: requireReport,
		entity.BookingStatusCancelled:      nil,
	},
	entity.BookingStatusReportUploaded: {
		entity.BookingStatusResultPublished: nil,
		entity.BookingStatusCancelled:       nil,
	},
	entity.BookingStatusResultPublished: {
		entity.BookingStatusCompleted: requirePayment,
		entity.BookingStatusCancelled: nil,
	},
	entity.BookingStatusCompleted: {},
	entity.BookingStatusCancelled: {},
}

func requireReport(_ *entity.Booking, a Attachment, _ Policy) string {
	if !a.present() {
		return "a report file or test results must be attached"
	}
	return ""
}

func requirePayment(b *entity.Booking, _ Attachment, p Policy) string {
	if p.RequirePaymentForCompletion && b.PaymentStatus != entity.PaymentStatusCompleted {
		return fmt.Sprintf("payment is %s, it must be completed first", b.PaymentStatus)
	}
	return ""
}

// CanTransition reports whether (from, to) is an edge, ignoring guards.
func CanTransition(from, to entity.BookingStatus) bool {
	edges, ok := statusEdges[from]
	if !ok {
		return false
	}
	_, ok = edges[to]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s entity.BookingStatus) bool {
	return len(statusEdges[s]) == 0
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s entity.BookingStatus) []entity.BookingStatus {
	var out []entity.BookingStatus
	for _, st := range entity.BookingStatuses {
		if CanTransition(s, st) {
			out = append(out, st)
		}
	}
	return out
}

// ApplyTransition moves b to target and returns the updated copy. b itself is
// never modified.
func ApplyTransition(b entity.Booking, target entity.BookingStatus, a Attachment, p Policy) (entity.Booking, error) {
	from, to := string(b.Status), string(target)

	edges, ok := statusEdges[b.Status]
	if !ok {
		return b, noSuchEdge(from, to)
	}
	g, ok := edges[target]
	if !ok {
		return b, noSuchEdge(from, to)
	}
	if g != nil {
		if msg := g(&b, a, p); msg != "" {
			return b, guardFailed(from, to, msg)
		}
	}

	next := cloneBooking(b)
	next.Status = target
	if target == entity.BookingStatusReportUploaded {
		if a.ReportFile != nil && *a.ReportFile != "" {
			ref := *a.ReportFile
			next.ReportFile = &ref
		}
		if len(a.TestResults) > 0 {
			next.TestResults = append([]entity.TestResult(nil), a.TestResults...)
		}
	}
	return next, nil
}

func cloneBooking(b entity.Booking) entity.Booking {
	out := b
	out.SelectedTests = append([]entity.LineItem(nil), b.SelectedTests...)
	out.SelectedPackages = append([]entity.LineItem(nil), b.SelectedPackages...)
	out.TestResults = append([]entity.TestResult(nil), b.TestResults...)
	if b.ReportFile != nil {
		ref := *b.ReportFile
		out.ReportFile = &ref
	}
	return out
}

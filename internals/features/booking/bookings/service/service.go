package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"studioku_backend/internals/helpers/dbtime"
	"studioku_backend/internals/notifications"
)

var tracer = otel.Tracer("studioku_backend/bookings")

type Options struct {
	Location     *time.Location // studio-local "today"
	BulkMaxItems int
	Guard        SubmitGuard // optional
	Now          func() time.Time
}

// Service is the booking admission engine: capacity ledger, entitlement
// resolution, single and bulk admission, cancellation and reschedule.
type Service struct {
	tx      Transactor
	events  EventSink
	guard   SubmitGuard
	loc     *time.Location
	bulkMax int
	now     func() time.Time
}

func NewService(tx Transactor, events EventSink, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BulkMaxItems <= 0 {
		opts.BulkMaxItems = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if events == nil {
		events = discardSink{}
	}
	return &Service{
		tx:      tx,
		events:  events,
		guard:   opts.Guard,
		loc:     opts.Location,
		bulkMax: opts.BulkMaxItems,
		now:     opts.Now,
	}
}

func (s *Service) BulkMaxItems() int { return s.bulkMax }

func (s *Service) today() time.Time {
	return dbtime.DateOf(s.now(), s.loc)
}

type discardSink struct{}

func (discardSink) Dispatch(context.Context, notifications.Event) {}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsStaff() bool {
	r := strings.ToLower(a.Role)
	return r == "admin" || r == "instructor"
}

func (a Actor) userRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// calendarDate drops clock and zone, keeping the y/m/d the caller sent.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inScope: nil scope means every sede.
func inScope(scope []uuid.UUID, sedeID uuid.UUID) bool {
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == sedeID {
			return true
		}
	}
	return false
}

// clientInScope: clients without a sede are visible everywhere.
func clientInScope(scope []uuid.UUID, sedeID *uuid.UUID) bool {
	if sedeID == nil {
		return true
	}
	return inScope(scope, *sedeID)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if _, ok := AsAdmissionError(err); !ok {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

func wrapInfra(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAdmissionError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

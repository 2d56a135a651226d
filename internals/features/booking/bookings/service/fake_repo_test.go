package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	paymentModel "studioku_backend/internals/features/finance/payments/model"
	promotionModel "studioku_backend/internals/features/finance/promotions/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	"studioku_backend/internals/notifications"
)

/* =========================================================
   In-memory store. InTx takes one global lock (which is at least as strict
   as the row locks the GORM repository takes) and works on a copy that is
   only swapped in when fn succeeds.
   ========================================================= */

type memState struct {
	clients     map[uuid.UUID]clientModel.ClientModel
	schedules   map[uuid.UUID]scheduleModel.ScheduleModel
	memberships map[uuid.UUID]membershipModel.MembershipModel
	payments    map[uuid.UUID]paymentModel.PaymentModel
	promotions  map[uuid.UUID]promotionModel.PromotionModel
	instances   map[uuid.UUID]promotionModel.PromotionInstanceModel
	members     map[uuid.UUID]map[uuid.UUID]bool // instance -> clients
	bookings    map[uuid.UUID]bookingModel.BookingModel
	bulks       map[uuid.UUID]bookingModel.BulkBookingModel
}

func newMemState() *memState {
	return &memState{
		clients:     map[uuid.UUID]clientModel.ClientModel{},
		schedules:   map[uuid.UUID]scheduleModel.ScheduleModel{},
		memberships: map[uuid.UUID]membershipModel.MembershipModel{},
		payments:    map[uuid.UUID]paymentModel.PaymentModel{},
		promotions:  map[uuid.UUID]promotionModel.PromotionModel{},
		instances:   map[uuid.UUID]promotionModel.PromotionInstanceModel{},
		members:     map[uuid.UUID]map[uuid.UUID]bool{},
		bookings:    map[uuid.UUID]bookingModel.BookingModel{},
		bulks:       map[uuid.UUID]bookingModel.BulkBookingModel{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	members := make(map[uuid.UUID]map[uuid.UUID]bool, len(s.members))
	for k, v := range s.members {
		members[k] = cloneMap(v)
	}
	return &memState{
		clients:     cloneMap(s.clients),
		schedules:   cloneMap(s.schedules),
		memberships: cloneMap(s.memberships),
		payments:    cloneMap(s.payments),
		promotions:  cloneMap(s.promotions),
		instances:   cloneMap(s.instances),
		members:     members,
		bookings:    cloneMap(s.bookings),
		bulks:       cloneMap(s.bulks),
	}
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// failInsert makes the next InsertBooking calls fail with this error
	failInsert error
	// failSaveBulk makes finalizing a bulk tracking row fail
	failSaveBulk error
	txCount      int
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) InTx(ctx context.Context, fn func(repo Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++
	work := m.state.clone()
	if err := fn(&memRepo{st: work, store: m}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// snapshot reads committed state outside any transaction.
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) seed(fn func(st *memState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.state)
}

type memRepo struct {
	st    *memState
	store *memStore
}

func (r *memRepo) LockClient(_ context.Context, id uuid.UUID) (*clientModel.ClientModel, error) {
	return r.GetClient(context.Background(), id)
}

func (r *memRepo) GetClient(_ context.Context, id uuid.UUID) (*clientModel.ClientModel, error) {
	c, ok := r.st.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memRepo) LockSchedule(ctx context.Context, id uuid.UUID) (*scheduleModel.ScheduleModel, error) {
	return r.GetSchedule(ctx, id)
}

func (r *memRepo) GetSchedule(_ context.Context, id uuid.UUID) (*scheduleModel.ScheduleModel, error) {
	s, ok := r.st.schedules[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memRepo) FindMembership(_ context.Context, id uuid.UUID) (*membershipModel.MembershipModel, error) {
	m, ok := r.st.memberships[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func excluded(id uuid.UUID, exclude *uuid.UUID) bool {
	return exclude != nil && *exclude == id
}

func (r *memRepo) LiveBookingExists(_ context.Context, clientID, scheduleID uuid.UUID, date time.Time, exclude *uuid.UUID) (bool, error) {
	for id, b := range r.st.bookings {
		if excluded(id, exclude) {
			continue
		}
		if b.BookingClientID == clientID && b.BookingScheduleID == scheduleID &&
			b.BookingClassDate.Equal(date) && b.BookingStatus != bookingModel.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CountOccupied(_ context.Context, scheduleID uuid.UUID, date time.Time, exclude *uuid.UUID) (int, error) {
	n := 0
	for id, b := range r.st.bookings {
		if excluded(id, exclude) {
			continue
		}
		if b.BookingScheduleID == scheduleID && b.BookingClassDate.Equal(date) && b.OccupiesSeat() {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) FindActivePayment(_ context.Context, clientID uuid.UUID, day time.Time) (*ActivePayment, error) {
	var candidates []paymentModel.PaymentModel
	for _, p := range r.st.payments {
		if p.PaymentClientID != clientID || p.PaymentStatus != paymentModel.PaymentStatusPaid || !p.CoversDate(day) {
			continue
		}
		m := r.st.memberships[p.PaymentMembershipID]
		if m.IsIndividual() {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].PaymentDatePaid.Equal(candidates[j].PaymentDatePaid) {
			return candidates[i].PaymentDatePaid.After(candidates[j].PaymentDatePaid)
		}
		return candidates[i].PaymentCreatedAt.After(candidates[j].PaymentCreatedAt)
	})
	p := candidates[0]
	m := r.st.memberships[p.PaymentMembershipID]
	return &ActivePayment{
		PaymentID:           p.PaymentID,
		MembershipID:        m.MembershipID,
		MembershipName:      m.MembershipName,
		MembershipScope:     m.MembershipScope,
		MembershipSedeID:    m.MembershipSedeID,
		ClassesPerMonth:     m.MembershipClassesPerMonth,
		ExtraClasses:        p.PaymentExtraClasses,
		PromotionID:         p.PaymentPromotionID,
		PromotionInstanceID: p.PaymentPromotionInstanceID,
		ValidFrom:           p.PaymentValidFrom,
		ValidUntil:          p.PaymentValidUntil,
	}, nil
}

func (r *memRepo) FindPromotionGrant(_ context.Context, clientID, promotionID uuid.UUID, instanceID *uuid.UUID) (*PromotionGrant, error) {
	promo, ok := r.st.promotions[promotionID]
	if !ok {
		return nil, nil
	}
	for id, inst := range r.st.instances {
		if inst.PromotionInstancePromotionID != promotionID || !r.st.members[id][clientID] {
			continue
		}
		if instanceID != nil && *instanceID != id {
			continue
		}
		return &PromotionGrant{
			InstanceID:       id,
			PromotionID:      promotionID,
			ClassesPerClient: promo.PromotionClassesPerClient,
			StartDate:        inst.PromotionInstanceStartDate,
			EndDate:          inst.PromotionInstanceEndDate,
		}, nil
	}
	return nil, nil
}

func (r *memRepo) CountConsumed(_ context.Context, clientID, paymentID uuid.UUID, today time.Time) (int, error) {
	n := 0
	for _, b := range r.st.bookings {
		if b.BookingClientID != clientID || b.BookingPaymentID == nil || *b.BookingPaymentID != paymentID {
			continue
		}
		if b.BookingStatus != bookingModel.BookingStatusActive {
			continue
		}
		if b.BookingAttendanceStatus == bookingModel.AttendanceAttended ||
			(b.BookingAttendanceStatus == bookingModel.AttendancePending && !b.BookingClassDate.Before(today)) {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) HasNoShow(_ context.Context, clientID, paymentID uuid.UUID) (bool, error) {
	for _, b := range r.st.bookings {
		if b.BookingClientID == clientID && b.BookingPaymentID != nil && *b.BookingPaymentID == paymentID &&
			b.BookingAttendanceStatus == bookingModel.AttendanceNoShow && b.BookingStatus != bookingModel.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) InsertBooking(ctx context.Context, b *bookingModel.BookingModel) error {
	if r.store.failInsert != nil {
		return r.store.failInsert
	}
	// partial unique index on live (client, schedule, class_date)
	if dup, _ := r.LiveBookingExists(ctx, b.BookingClientID, b.BookingScheduleID, b.BookingClassDate, nil); dup {
		return ErrDuplicateBooking
	}
	if b.BookingID == uuid.Nil {
		b.BookingID = uuid.New()
	}
	r.st.bookings[b.BookingID] = *b
	return nil
}

func (r *memRepo) SaveBooking(_ context.Context, b *bookingModel.BookingModel) error {
	r.st.bookings[b.BookingID] = *b
	return nil
}

func (r *memRepo) LockBooking(_ context.Context, id uuid.UUID) (*bookingModel.BookingModel, error) {
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memRepo) MarkTrialUsed(_ context.Context, clientID uuid.UUID) (bool, error) {
	c, ok := r.st.clients[clientID]
	if !ok || c.ClientTrialUsed {
		return false, nil
	}
	c.ClientTrialUsed = true
	r.st.clients[clientID] = c
	return true, nil
}

func (r *memRepo) CreateBulkBooking(_ context.Context, b *bookingModel.BulkBookingModel) error {
	r.st.bulks[b.BulkBookingID] = *b
	return nil
}

func (r *memRepo) SaveBulkBooking(_ context.Context, b *bookingModel.BulkBookingModel) error {
	if r.store.failSaveBulk != nil {
		return r.store.failSaveBulk
	}
	r.st.bulks[b.BulkBookingID] = *b
	return nil
}

func (r *memRepo) LockPayment(_ context.Context, id uuid.UUID) (*paymentModel.PaymentModel, error) {
	p, ok := r.st.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memRepo) SavePayment(_ context.Context, p *paymentModel.PaymentModel) error {
	r.st.payments[p.PaymentID] = *p
	return nil
}

/* =========================================================
   Sinks and guards
   ========================================================= */

type recordingSink struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (s *recordingSink) Dispatch(_ context.Context, ev notifications.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) types() []notifications.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notifications.EventType, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

func (s *recordingSink) last() notifications.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

type memGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

func (g *memGuard) Acquire(_ context.Context, key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held == nil {
		g.held = map[string]bool{}
	}
	if g.held[key] {
		return nil, false
	}
	g.held[key] = true
	return func() {
		g.mu.Lock()
		delete(g.held, key)
		g.mu.Unlock()
	}, true
}

/* =========================================================
   Fixture
   ========================================================= */

// 2026-03-02 is a Monday.
var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, 3, 2+offset, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	t     *testing.T
	store *memStore
	sink  *recordingSink
	svc   *Service
	sede  uuid.UUID
}

var (
	staff      = Actor{UserID: uuid.New(), Role: "admin"}
	instructor = Actor{UserID: uuid.New(), Role: "instructor"}
	member     = Actor{UserID: uuid.New(), Role: "client"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	sink := &recordingSink{}
	svc := NewService(store, sink, Options{
		Location:     time.UTC,
		BulkMaxItems: 20,
		Now:          func() time.Time { return fixedNow },
	})
	return &fixture{t: t, store: store, sink: sink, svc: svc, sede: uuid.New()}
}

func (f *fixture) client(trialUsed bool) clientModel.ClientModel {
	email := "client-" + uuid.NewString()[:8] + "@example.com"
	c := clientModel.ClientModel{
		ClientID:        uuid.New(),
		ClientSedeID:    &f.sede,
		ClientFirstName: "Ana",
		ClientLastName:  "Pérez",
		ClientEmail:     &email,
		ClientStatus:    clientModel.ClientStatusActive,
		ClientTrialUsed: trialUsed,
	}
	f.store.seed(func(st *memState) { st.clients[c.ClientID] = c })
	return c
}

// schedule on the given ISO weekday (Monday = 1).
func (f *fixture) schedule(dow, capacity int) scheduleModel.ScheduleModel {
	s := scheduleModel.ScheduleModel{
		ScheduleID:              uuid.New(),
		ScheduleSedeID:          f.sede,
		ScheduleDayOfWeek:       dow,
		ScheduleDurationMinutes: 50,
		ScheduleClassType:       scheduleModel.ClassTypeReformer,
		ScheduleCapacity:        capacity,
		ScheduleIsActive:        true,
	}
	f.store.seed(func(st *memState) { st.schedules[s.ScheduleID] = s })
	return s
}

func (f *fixture) membership(kind membershipModel.MembershipKind, perMonth int) membershipModel.MembershipModel {
	m := membershipModel.MembershipModel{
		MembershipID:       uuid.New(),
		MembershipName:     "Plan " + string(kind),
		MembershipKind:     kind,
		MembershipScope:    membershipModel.MembershipScopeGlobal,
		MembershipPrice:    400000,
		MembershipIsActive: true,
	}
	if perMonth > 0 {
		m.MembershipClassesPerMonth = &perMonth
	}
	f.store.seed(func(st *memState) { st.memberships[m.MembershipID] = m })
	return m
}

func (f *fixture) payment(clientID uuid.UUID, m membershipModel.MembershipModel, extra int) paymentModel.PaymentModel {
	p := paymentModel.PaymentModel{
		PaymentID:           uuid.New(),
		PaymentClientID:     clientID,
		PaymentMembershipID: m.MembershipID,
		PaymentAmount:       m.MembershipPrice,
		PaymentExtraClasses: extra,
		PaymentDatePaid:     day(-1),
		PaymentValidFrom:    day(-30),
		PaymentValidUntil:   day(60),
		PaymentMethod:       paymentModel.PaymentMethodCash,
		PaymentStatus:       paymentModel.PaymentStatusPaid,
	}
	f.store.seed(func(st *memState) { st.payments[p.PaymentID] = p })
	return p
}

func (f *fixture) admit(clientID, scheduleID uuid.UUID, date time.Time, actor Actor) (*Admission, error) {
	return f.svc.Admit(context.Background(), AdmitRequest{
		ClientID:   clientID,
		ScheduleID: scheduleID,
		ClassDate:  date,
		Actor:      actor,
	})
}

func (f *fixture) mustAdmit(clientID, scheduleID uuid.UUID, date time.Time, actor Actor) *Admission {
	f.t.Helper()
	adm, err := f.admit(clientID, scheduleID, date, actor)
	require.NoError(f.t, err)
	return adm
}

func (f *fixture) booking(id uuid.UUID) bookingModel.BookingModel {
	f.t.Helper()
	b, ok := f.store.snapshot().bookings[id]
	require.True(f.t, ok, "booking %s not stored", id)
	return b
}

func (f *fixture) occupied(scheduleID uuid.UUID, date time.Time) int {
	f.t.Helper()
	snap, err := f.svc.Capacity(context.Background(), scheduleID, date, nil)
	require.NoError(f.t, err)
	return snap.Occupied
}

// seedBooking stores a booking charged to a payment, bypassing admission.
func (f *fixture) seedBooking(clientID, scheduleID uuid.UUID, date time.Time, paymentID *uuid.UUID, att bookingModel.AttendanceStatus) bookingModel.BookingModel {
	b := bookingModel.BookingModel{
		BookingID:               uuid.New(),
		BookingClientID:         clientID,
		BookingScheduleID:       scheduleID,
		BookingClassDate:        date,
		BookingStatus:           bookingModel.BookingStatusActive,
		BookingAttendanceStatus: att,
		BookingPaymentID:        paymentID,
	}
	f.store.seed(func(st *memState) { st.bookings[b.BookingID] = b })
	return b
}

package service

import (
	"bytes"
	"context"
	"fmt"
	bookingserrors "meshwar/internal/bookings/errors"
	"meshwar/internal/bookings/events"
	"meshwar/internal/bookings/validator"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory stand-in for the bookings, activities and users collections.
// Transactions are serialised and roll back to a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings   map[string]model.Booking
	activities map[string]model.Activity
	users      map[string]bool

	// conflicts makes the next N transactions fail with a write conflict.
	conflicts int
	// incrementErr fails IncrementParticipants after the booking was inserted.
	incrementErr error
	// staleActivity makes FindByID report an empty activity, as a snapshot taken
	// before concurrent admissions committed would.
	staleActivity bool
	// txDelay holds every transaction open for a while to widen race windows.
	txDelay time.Duration
	// lostCommits makes the next N transactions commit and then report an unknown
	// commit result, as when the commit reply is lost on the network.
	lostCommits int

	txCalls int
	touches int
}

func newMemStore() *memStore {
	return &memStore{
		bookings:   make(map[string]model.Booking),
		activities: make(map[string]model.Activity),
		users:      make(map[string]bool),
	}
}

func (s *memStore) addUser() string {
	id := primitive.NewObjectID().Hex()
	s.mu.Lock()
	s.users[id] = true
	s.mu.Unlock()
	return id
}

func (s *memStore) addActivity(limit, current int) string {
	id := primitive.NewObjectID().Hex()
	s.mu.Lock()
	s.activities[id] = model.Activity{
		ID:                  id,
		Title:               "Wadi Rum hike",
		ParticipantLimit:    limit,
		CurrentParticipants: current,
	}
	s.mu.Unlock()
	return id
}

func (s *memStore) addBooking(userID, activityID, status string) string {
	id := primitive.NewObjectID().Hex()
	s.mu.Lock()
	s.bookings[id] = model.Booking{ID: id, UserID: userID, ActivityID: activityID, Status: status}
	s.mu.Unlock()
	return id
}

func (s *memStore) participants(activityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activities[activityID].CurrentParticipants
}

func (s *memStore) bookingCount(activityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.ActivityID == activityID {
			n++
		}
	}
	return n
}

// --- BookingRepository ---

func (s *memStore) Create(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if booking.ID == "" {
		booking.ID = primitive.NewObjectID().Hex()
	}
	if _, ok := s.bookings[booking.ID]; ok {
		return fmt.Errorf("duplicate key: %s", booking.ID)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return &b, nil
}

func (s *memStore) FindAll(_ context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if matches(b, filter) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= int64(len(out)) {
		return []*model.Booking{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bookings {
		if matches(b, filter) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ExistsActive(_ context.Context, userID, activityID, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ID != excludeID && b.UserID == userID && b.ActivityID == activityID && b.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id, status string, now time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	previous := b
	b.Status = status
	b.UpdatedAt = now
	s.bookings[id] = b
	return &previous, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	delete(s.bookings, id)
	return nil
}

func (s *memStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCalls++
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return fmt.Errorf("transaction failed: %w", writeConflict())
	}
	bookings := make(map[string]model.Booking, len(s.bookings))
	for k, v := range s.bookings {
		bookings[k] = v
	}
	activities := make(map[string]model.Activity, len(s.activities))
	for k, v := range s.activities {
		activities[k] = v
	}
	s.mu.Unlock()

	if s.txDelay > 0 {
		time.Sleep(s.txDelay)
	}

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.bookings = bookings
		s.activities = activities
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lostCommits > 0 {
		s.lostCommits--
		return fmt.Errorf("transaction failed: %w", unknownCommitResult())
	}
	return nil
}

// --- ActivityCounter ---

type memActivities struct{ s *memStore }

func (a memActivities) FindByID(_ context.Context, id string) (*model.Activity, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	act, ok := a.s.activities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrActivityNotFound, id)
	}
	if a.s.staleActivity {
		act.CurrentParticipants = 0
	}
	return &act, nil
}

func (a memActivities) IncrementParticipants(_ context.Context, id string, now time.Time) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if a.s.incrementErr != nil {
		return false, a.s.incrementErr
	}
	act, ok := a.s.activities[id]
	if !ok {
		return false, nil
	}
	if act.ParticipantLimit > 0 && act.CurrentParticipants >= act.ParticipantLimit {
		return false, nil
	}
	act.CurrentParticipants++
	act.UpdatedAt = now
	a.s.activities[id] = act
	return true, nil
}

func (a memActivities) DecrementParticipants(_ context.Context, id string, now time.Time) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	act, ok := a.s.activities[id]
	if !ok || act.CurrentParticipants <= 0 {
		return false, nil
	}
	act.CurrentParticipants--
	act.UpdatedAt = now
	a.s.activities[id] = act
	return true, nil
}

func (a memActivities) Touch(_ context.Context, id string, now time.Time) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.touches++
	if act, ok := a.s.activities[id]; ok {
		act.UpdatedAt = now
		a.s.activities[id] = act
	}
	return nil
}

// --- UserLookup ---

type memUsers struct{ s *memStore }

func (u memUsers) Exists(_ context.Context, id string) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.s.users[id], nil
}

// --- Publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// syncBuffer lets the service log from several goroutines into one buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	store     *memStore
	publisher *recordingPublisher
	logs      *syncBuffer
	service   BookingService
}

func newFixture() *fixture {
	logs := &syncBuffer{}
	log := logger.New(logger.Config{
		Level:   "debug",
		Format:  logger.JSON,
		Output:  logs,
		Service: "test",
	})
	cfg := &config.Config{
		Log:                     log,
		ReadTimeout:             5 * time.Second,
		WriteTimeout:            5 * time.Second,
		BookingTxTimeout:        2 * time.Second,
		BookingTxMaxAttempts:    3,
		BookingTxInitialBackoff: time.Millisecond,
		BookingTxMaxBackoff:     5 * time.Millisecond,
	}

	store := newMemStore()
	publisher := &recordingPublisher{}
	svc := NewBookingService(
		store,
		memActivities{s: store},
		memUsers{s: store},
		publisher,
		validator.NewBookingValidator(),
		cfg,
	)
	return &fixture{store: store, publisher: publisher, logs: logs, service: svc}
}

func matches(b model.Booking, f model.BookingFilter) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.ActivityID != "" && b.ActivityID != f.ActivityID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

func writeConflict() error {
	return mongo.CommandError{
		Code:    112,
		Name:    "WriteConflict",
		Message: "write conflict during plan execution",
		Labels:  []string{"TransientTransactionError"},
	}
}

func unknownCommitResult() error {
	return mongo.CommandError{
		Code:    50,
		Name:    "MaxTimeMSExpired",
		Message: "operation exceeded time limit",
		Labels:  []string{"UnknownTransactionCommitResult"},
	}
}

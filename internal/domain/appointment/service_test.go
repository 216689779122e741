package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mocks --

type mockTx struct{ mu sync.Mutex }

func (m *mockTx) InTenantTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Emulates the partial unique index on (doctor, timestamp).
	for _, other := range m.items {
		if other.DoctorID == a.DoctorID && other.ScheduledAt.Equal(a.ScheduledAt) &&
			other.Status != StatusCancelled {
			return ErrDuplicateSlot
		}
	}
	a.ID = uuid.New()
	a.TenantID = "clinic_a"
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.items[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) FindConflict(_ context.Context, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.DoctorID == doctorID && a.ScheduledAt.Equal(at) && a.Status != StatusCancelled {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) UpdateStatus(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[a.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = a.Status
	stored.CancelledAt = a.CancelledAt
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) ListDay(_ context.Context, day time.Time, doctorID *uuid.UUID) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := day.Add(24 * time.Hour)
	var out []*Appointment
	for _, a := range m.items {
		if a.ScheduledAt.Before(day) || !a.ScheduledAt.Before(end) {
			continue
		}
		if doctorID != nil && a.DoctorID != *doctorID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.items {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(&mockTx{}, repo), repo
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// -- Booking and conflicts --

func TestBookExactTimestampConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor, patientA, patientB := uuid.New(), uuid.New(), uuid.New()
	slot := at("2026-09-01T10:00:00Z")

	first, err := svc.Book(ctx, BookInput{PatientID: patientA, DoctorID: doctor, ScheduledAt: slot})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if first.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", first.Status)
	}

	_, err = svc.Book(ctx, BookInput{PatientID: patientB, DoctorID: doctor, ScheduledAt: slot})
	var taken *SlotTakenError
	if !errors.As(err, &taken) {
		t.Fatalf("second booking: err = %v, want SlotTakenError", err)
	}
	if taken.Conflict.ID != first.ID {
		t.Errorf("conflict reports %s, want %s", taken.Conflict.ID, first.ID)
	}
}

func TestBookDifferentMinutesBothSucceed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()

	if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: doctor, ScheduledAt: at("2026-09-01T10:00:00Z")}); err != nil {
		t.Fatalf("10:00 booking: %v", err)
	}
	if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: doctor, ScheduledAt: at("2026-09-01T10:30:00Z")}); err != nil {
		t.Fatalf("10:30 booking: %v", err)
	}
}

func TestBookOtherDoctorSameSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	slot := at("2026-09-01T10:00:00Z")

	if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: slot}); err != nil {
		t.Fatalf("first doctor: %v", err)
	}
	if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: slot}); err != nil {
		t.Fatalf("second doctor: %v", err)
	}
}

func TestBookCancelledSlotIsFree(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()
	slot := at("2026-09-01T10:00:00Z")

	first, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: doctor, ScheduledAt: slot})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := svc.SetStatus(ctx, first.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: doctor, ScheduledAt: slot}); err != nil {
		t.Fatalf("rebooking cancelled slot: %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Book(ctx, BookInput{DoctorID: uuid.New(), ScheduledAt: at("2026-09-01T10:00:00Z")}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("missing patient: err = %v, want ErrInvalidPayload", err)
	}
	if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: uuid.New()}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("zero time: err = %v, want ErrInvalidDate", err)
	}
}

func TestBookRaceLoserGetsConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()
	slot := at("2026-09-01T10:00:00Z")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: doctor, ScheduledAt: slot})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var taken *SlotTakenError
		if errors.As(err, &taken) {
			conflicts++
		} else {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("wins = %d, conflicts = %d; want exactly one of each", wins, conflicts)
	}
}

// -- Status transitions --

func TestSetStatusWhitelist(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: at("2026-09-01T10:00:00Z")})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	for _, valid := range []string{"confirmed", "completed", "no_show", "scheduled"} {
		if _, err := svc.SetStatus(ctx, a.ID, valid); err != nil {
			t.Errorf("SetStatus(%q): %v", valid, err)
		}
	}
	if _, err := svc.SetStatus(ctx, a.ID, "rescheduled"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("SetStatus(rescheduled): err = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.SetStatus(ctx, uuid.New(), "confirmed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestCancelledAtStampedOnceNeverCleared(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: at("2026-09-01T10:00:00Z")})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	cancelled, err := svc.SetStatus(ctx, a.ID, "cancelled")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("CancelledAt not stamped on cancellation")
	}
	stamp := *cancelled.CancelledAt

	revived, err := svc.SetStatus(ctx, a.ID, "scheduled")
	if err != nil {
		t.Fatalf("revive: %v", err)
	}
	if revived.CancelledAt == nil || !revived.CancelledAt.Equal(stamp) {
		t.Errorf("CancelledAt changed after leaving cancelled: %v, want %v", revived.CancelledAt, stamp)
	}

	again, err := svc.SetStatus(ctx, a.ID, "cancelled")
	if err != nil {
		t.Fatalf("re-cancel: %v", err)
	}
	if !again.CancelledAt.Equal(stamp) {
		t.Errorf("CancelledAt restamped on second cancellation: %v, want %v", again.CancelledAt, stamp)
	}
}

// -- Day listing --

func TestDayListing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	doctor := uuid.New()

	for _, ts := range []string{"2026-09-01T09:00:00Z", "2026-09-01T14:00:00Z", "2026-09-02T09:00:00Z"} {
		if _, err := svc.Book(ctx, BookInput{PatientID: uuid.New(), DoctorID: doctor, ScheduledAt: at(ts)}); err != nil {
			t.Fatalf("Book(%s): %v", ts, err)
		}
	}

	items, err := svc.Day(ctx, at("2026-09-01T00:00:00Z"), &doctor)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("day listing = %d appointments, want 2", len(items))
	}
}

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/julianstephens/chime/internal/errors"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/service"
)

// TestPhase is the state of test playback. There is one test playback per
// store, not one per schedule
type TestPhase int

const (
	TestIdle TestPhase = iota
	TestStarting
	TestActive
	TestStopping
)

func (p TestPhase) String() string {
	switch p {
	case TestIdle:
		return "idle"
	case TestStarting:
		return "starting"
	case TestActive:
		return "active"
	case TestStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ScheduleState is a snapshot of a ScheduleStore
type ScheduleState struct {
	Schedules    []models.Schedule
	IsLoading    bool
	Error        string
	ActiveTestID string
	IsTestBusy   bool
	TestPhase    TestPhase
}

func (s ScheduleState) clone() ScheduleState {
	s.Schedules = slices.Clone(s.Schedules)
	return s
}

// ScheduleStore keeps the schedule list and test playback state
type ScheduleStore struct {
	svc  service.Service
	subs subscribers[ScheduleState]

	mu    sync.Mutex
	state ScheduleState
}

func NewScheduleStore(svc service.Service) *ScheduleStore {
	return &ScheduleStore{svc: svc}
}

// Snapshot returns a copy of the current state
func (s *ScheduleStore) Snapshot() ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every state change. The returned func unsubscribes
func (s *ScheduleStore) Subscribe(fn func(ScheduleState)) func() {
	return s.subs.add(fn)
}

func (s *ScheduleStore) set(mutate func(*ScheduleState)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.subs.notify(snapshot)
}

func (s *ScheduleStore) fail(f *errors.Failure, mutate func(*ScheduleState)) error {
	logger.Error(f.Message, "op", f.Op, "kind", f.Kind, "error", f.Err)
	s.set(func(st *ScheduleState) {
		if mutate != nil {
			mutate(st)
		}
		st.Error = f.Message
	})
	return f
}

// Find returns the schedule with id from the current list
func (s *ScheduleStore) Find(id string) (models.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.state.Schedules, id)
	if i < 0 {
		return models.Schedule{}, false
	}
	return s.state.Schedules[i], true
}

// IsTesting reports whether id is the schedule under test playback
func (s *ScheduleStore) IsTesting(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveTestID != "" && s.state.ActiveTestID == id
}

// FetchAll replaces the list with the backend's. On failure the list is kept
func (s *ScheduleStore) FetchAll(ctx context.Context) error {
	s.set(func(st *ScheduleState) {
		st.IsLoading = true
		st.Error = ""
	})

	records, err := s.svc.ListSchedules(ctx)
	if err != nil {
		return s.fail(errors.Load("schedules.fetch", "Failed to load schedules", err), func(st *ScheduleState) {
			st.IsLoading = false
		})
	}

	schedules := make([]models.Schedule, 0, len(records))
	for _, rec := range records {
		schedules = append(schedules, models.ScheduleFromRecord(rec))
	}
	s.set(func(st *ScheduleState) {
		st.Schedules = schedules
		st.IsLoading = false
		st.Error = ""
	})
	return nil
}

// Create appends the created schedule. On failure the list is untouched and
// the failure is returned so the caller can keep its input
func (s *ScheduleStore) Create(ctx context.Context, in models.ScheduleInput) (models.Schedule, error) {
	s.set(func(st *ScheduleState) { st.Error = "" })

	rec, err := s.svc.CreateSchedule(ctx, models.ToCreatePayload(in))
	if err != nil {
		return models.Schedule{}, s.fail(errors.Write("schedules.create", "Failed to create schedule", err), nil)
	}

	created := models.ScheduleFromRecord(rec)
	s.set(func(st *ScheduleState) {
		st.Schedules = append(st.Schedules, created)
	})
	return created, nil
}

// Update sends only the fields present in patch and replaces the entry in
// place once the backend confirms. Nothing is applied before that
func (s *ScheduleStore) Update(ctx context.Context, id string, patch models.SchedulePatch) (models.Schedule, error) {
	s.set(func(st *ScheduleState) { st.Error = "" })

	rec, err := s.svc.UpdateSchedule(ctx, id, models.ToUpdatePayload(patch))
	if err != nil {
		return models.Schedule{}, s.fail(errors.Write("schedules.update", "Failed to update schedule", err), nil)
	}

	updated := models.ScheduleFromRecord(rec)
	s.set(func(st *ScheduleState) {
		if i := indexOf(st.Schedules, id); i >= 0 {
			st.Schedules[i] = updated
		}
	})
	return updated, nil
}

// Delete removes the entry once the backend confirms
func (s *ScheduleStore) Delete(ctx context.Context, id string) error {
	s.set(func(st *ScheduleState) { st.Error = "" })

	if err := s.svc.DeleteSchedule(ctx, id); err != nil {
		return s.fail(errors.Write("schedules.delete", "Failed to delete schedule", err), nil)
	}

	s.set(func(st *ScheduleState) {
		st.Schedules = slices.DeleteFunc(st.Schedules, func(sch models.Schedule) bool { return sch.ID == id })
	})
	return nil
}

// ToggleEnabled flips the entry immediately, then confirms with the backend.
// On failure the whole pre-toggle list is restored
func (s *ScheduleStore) ToggleEnabled(ctx context.Context, id string, enabled bool) error {
	var previous []models.Schedule
	s.set(func(st *ScheduleState) {
		st.Error = ""
		previous = slices.Clone(st.Schedules)
		if i := indexOf(st.Schedules, id); i >= 0 {
			st.Schedules[i].Enabled = enabled
		}
	})

	rec, err := s.svc.ToggleScheduleEnabled(ctx, id, enabled)
	if err != nil {
		return s.fail(errors.Write("schedules.toggle", "Failed to toggle schedule", err), func(st *ScheduleState) {
			st.Schedules = previous
		})
	}

	canonical := models.ScheduleFromRecord(rec)
	s.set(func(st *ScheduleState) {
		if i := indexOf(st.Schedules, id); i >= 0 {
			st.Schedules[i] = canonical
		}
	})
	return nil
}

// PlayTest starts test playback of sch. A test of a different schedule is
// stopped first, and its outcome does not block the new test
func (s *ScheduleStore) PlayTest(ctx context.Context, sch models.Schedule) error {
	s.mu.Lock()
	active := s.state.ActiveTestID
	s.mu.Unlock()

	if active != "" && active != sch.ID {
		_ = s.StopTest(ctx)
	}

	s.set(func(st *ScheduleState) {
		st.IsTestBusy = true
		st.ActiveTestID = sch.ID
		st.TestPhase = TestStarting
		st.Error = ""
	})

	if err := s.svc.PlayAudio(ctx, sch.AudioFilePath, sch.Volume); err != nil {
		return s.fail(errors.Playback("audio.play", "Failed to play audio test", err), func(st *ScheduleState) {
			st.IsTestBusy = false
			st.ActiveTestID = ""
			st.TestPhase = TestIdle
		})
	}

	s.set(func(st *ScheduleState) {
		st.IsTestBusy = false
		st.TestPhase = TestActive
	})
	return nil
}

// StopTest stops test playback. The test state always returns to idle, even
// when the backend call fails or panics
func (s *ScheduleStore) StopTest(ctx context.Context) error {
	s.set(func(st *ScheduleState) {
		st.IsTestBusy = true
		st.TestPhase = TestStopping
	})
	defer s.set(func(st *ScheduleState) {
		st.IsTestBusy = false
		st.ActiveTestID = ""
		st.TestPhase = TestIdle
	})

	if err := s.svc.StopAudio(ctx); err != nil {
		return s.fail(errors.Playback("audio.stop", "Failed to stop audio test", err), nil)
	}
	return nil
}

func indexOf(schedules []models.Schedule, id string) int {
	return slices.IndexFunc(schedules, func(sch models.Schedule) bool { return sch.ID == id })
}

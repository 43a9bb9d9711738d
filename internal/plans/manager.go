package plans

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mbasaric/fitplan/internal/changefeed"
	"github.com/mbasaric/fitplan/internal/telemetry/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TableDayPlans is the storage table watched for change events.
const TableDayPlans = "day_plan"

type daysRepo interface {
	ListRange(ctx context.Context, params RangeParams) ([]DayPlan, error)
	Upsert(ctx context.Context, day DayPlan) (*DayPlan, error)
	InsertBatch(ctx context.Context, days []DayPlan) error
	SetArchived(ctx context.Context, id string, archived bool) error
	OldestActive(ctx context.Context, ownerID string) (*DayPlan, error)
	ActiveCount(ctx context.Context, ownerID string) (int, error)
	ListArchived(ctx context.Context, ownerID string) ([]DayPlan, error)
	Delete(ctx context.Context, id string) error
}

type changePublisher interface {
	Publish(ctx context.Context, event changefeed.Event)
}

type ManagerParams struct {
	OwnerID string
	Repo    daysRepo

	// ActiveDayCeiling caps the owner's non-archived days; when a new day
	// would push past it, the oldest active day is archived first.
	// Zero disables archival (the personal schedule variant).
	ActiveDayCeiling int

	Publisher changePublisher
	Metrics   *metrics.Manager

	// OnWriteError is called when an optimistic local update fails to
	// persist. Local state is NOT rolled back; the callback lets the
	// caller compensate if it wants to.
	OnWriteError func(day DayPlan, err error)
}

// Manager owns one owner's day-plan window and runs every operation on
// it: initial load, jumps, history extension, adding days, saves and the
// completed/missed toggles. Mutations update the window optimistically
// and then persist; a failed persist leaves the optimistic state in
// place and surfaces the error.
type Manager struct {
	ownerID      string
	repo         daysRepo
	ceiling      int
	publisher    changePublisher
	metrics      *metrics.Manager
	onWriteError func(day DayPlan, err error)

	mu      sync.Mutex
	window  *Window
	lastErr error
}

func NewManager(params ManagerParams) *Manager {
	return &Manager{
		ownerID:      params.OwnerID,
		repo:         params.Repo,
		ceiling:      params.ActiveDayCeiling,
		publisher:    params.Publisher,
		metrics:      params.Metrics,
		onWriteError: params.OnWriteError,
		window:       NewWindow(),
	}
}

func (m *Manager) OwnerID() string {
	return m.ownerID
}

// LoadInitial fetches the default range around the center date (today
// when zero). An owner with no stored days gets seeded with seven
// consecutive empty days starting today, persisted in one batch, so the
// window is never empty after a successful call.
func (m *Manager) LoadInitial(ctx context.Context, center time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := TodayMidnight()
	if center.IsZero() {
		center = today
	}

	days, err := m.repo.ListRange(ctx, RangeParams{
		OwnerID: m.ownerID,
		From:    today.AddDate(0, 0, -windowDaysBack),
		To:      Midnight(center).AddDate(0, 0, windowDaysForward),
	})
	if err != nil {
		m.lastErr = err
		return fmt.Errorf("load initial window: %w", err)
	}

	if len(days) == 0 {
		seeded := make([]DayPlan, 0, seedDays)
		for i := 0; i < seedDays; i++ {
			seeded = append(seeded, NewEmptyDay(m.ownerID, today.AddDate(0, 0, i)))
		}
		if err := m.repo.InsertBatch(ctx, seeded); err != nil {
			m.lastErr = err
			return fmt.Errorf("seed initial days: %w", err)
		}
		m.publish(ctx, changefeed.OpInsert)
		days = seeded
	}

	m.window.SetEntries(days)
	m.window.ResetDisplayLimit()
	m.lastErr = nil
	return nil
}

// JumpTo re-centers the window on the given date. When the date is
// present in the fetched range, the window is rotated (not sorted) so
// the display starts at that date. The display limit resets.
func (m *Manager) JumpTo(ctx context.Context, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	date = Midnight(date)
	days, err := m.repo.ListRange(ctx, RangeParams{
		OwnerID: m.ownerID,
		From:    date.AddDate(0, 0, -windowDaysBack),
		To:      date.AddDate(0, 0, windowDaysForward),
	})
	if err != nil {
		m.lastErr = err
		return fmt.Errorf("jump to %s: %w", date.Format("2006-01-02"), err)
	}

	m.window.SetEntries(days)
	if pivot, ok := m.window.Find(date); ok {
		m.window.Rotate(pivot.ID)
	}
	m.window.ResetDisplayLimit()
	return nil
}

// LoadPreviousWeek extends the loaded set seven days back from the
// earliest loaded date. Merging de-duplicates by id, so calling it again
// with no new data is a no-op.
func (m *Manager) LoadPreviousWeek(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	earliest, ok := m.window.EarliestDate()
	if !ok {
		return ErrEmptyWindow
	}
	if !m.window.HasMoreWeeks(TodayMidnight()) {
		return ErrHistoryLimit
	}

	days, err := m.repo.ListRange(ctx, RangeParams{
		OwnerID: m.ownerID,
		From:    earliest.AddDate(0, 0, -7),
		To:      earliest.AddDate(0, 0, -1),
	})
	if err != nil {
		m.lastErr = err
		return fmt.Errorf("load previous week: %w", err)
	}

	m.window.Merge(days)
	return nil
}

// LoadMoreDisplay reveals another page of the already loaded set,
// without fetching.
func (m *Manager) LoadMoreDisplay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window.RaiseDisplayLimit()
}

// AddNextDay creates an empty day right after the latest loaded one.
// With an active-day ceiling configured, the oldest active day gets
// archived first when the ceiling is reached; a failed archive is logged
// and the new day is added anyway.
func (m *Manager) AddNextDay(ctx context.Context) (*DayPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latest, ok := m.window.LatestDate()
	if !ok {
		return nil, ErrEmptyWindow
	}
	next := latest.AddDate(0, 0, 1)

	if m.ceiling > 0 {
		m.archiveOldestIfAtCeiling(ctx)
	}

	stored, err := m.repo.Upsert(ctx, NewEmptyDay(m.ownerID, next))
	if err != nil {
		m.lastErr = err
		return nil, fmt.Errorf("add next day: %w", err)
	}

	m.window.Upsert(*stored)
	m.window.EnsureVisible(stored.ID)
	m.publish(ctx, changefeed.OpInsert)
	return stored, nil
}

// archiveOldestIfAtCeiling is best-effort: losing an archive write is
// preferable to blocking the user from adding a new day.
func (m *Manager) archiveOldestIfAtCeiling(ctx context.Context) {
	count, err := m.repo.ActiveCount(ctx, m.ownerID)
	if err != nil {
		log.Errorf("add next day [%s]: active count: %s", m.ownerID, err)
		return
	}
	if count < m.ceiling {
		return
	}

	oldest, err := m.repo.OldestActive(ctx, m.ownerID)
	if err != nil {
		log.Errorf("add next day [%s]: get oldest active: %s", m.ownerID, err)
		return
	}
	if err := m.repo.SetArchived(ctx, oldest.ID, true); err != nil {
		log.Errorf("add next day [%s]: archive day %s: %s", m.ownerID, oldest.ID, err)
		return
	}

	m.window.Remove(oldest.ID)
	if m.metrics != nil {
		m.metrics.CounterDaysArchived.Inc()
	}
	m.publish(ctx, changefeed.OpUpdate)
}

// SaveDay validates and persists a full day replacement. The window is
// updated optimistically before the write; on write failure the
// optimistic state stays (see OnWriteError).
func (m *Manager) SaveDay(ctx context.Context, day DayPlan) (*DayPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day.OwnerID = m.ownerID
	day.Date = Midnight(day.Date)
	if day.Status == "" {
		// a save body that omits the status means unset
		day.Status = StatusUnset
	}
	if err := day.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDay, err)
	}

	if day.ID == "" {
		if existing, ok := m.window.Find(day.Date); ok {
			day.ID = existing.ID
		} else {
			day.ID = uuid.NewString()
		}
	}

	return m.persist(ctx, day)
}

// ToggleCompleted flips the completed state of the day at the given
// date: unset or missed become completed, completed becomes unset.
// Unplanned (empty) days are silently left alone.
func (m *Manager) ToggleCompleted(ctx context.Context, date time.Time) (*DayPlan, error) {
	return m.toggle(ctx, date, "completed", Status.ToggleCompleted)
}

// ToggleMissed is the mirror of ToggleCompleted for the missed state.
func (m *Manager) ToggleMissed(ctx context.Context, date time.Time) (*DayPlan, error) {
	return m.toggle(ctx, date, "missed", Status.ToggleMissed)
}

func (m *Manager) toggle(
	ctx context.Context,
	date time.Time,
	name string,
	transition func(Status) Status,
) (*DayPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day, ok := m.window.Find(date)
	if !ok {
		return nil, ErrDateNotLoaded
	}
	if !day.CanToggle() {
		// the UI should not offer toggles on unplanned days, but the
		// state machine stays defensive and ignores the request
		return &day, nil
	}

	day.Status = transition(day.Status)
	if m.metrics != nil {
		m.metrics.CounterDayToggles.WithLabelValues(name).Inc()
	}
	return m.persist(ctx, day)
}

// persist applies the optimistic window update, then writes through the
// shared upsert path. Callers hold the mutex.
func (m *Manager) persist(ctx context.Context, day DayPlan) (*DayPlan, error) {
	m.window.Upsert(day)

	stored, err := m.repo.Upsert(ctx, day)
	if err != nil {
		m.lastErr = err
		if m.onWriteError != nil {
			m.onWriteError(day, err)
		}
		return nil, fmt.Errorf("persist day %s: %w", day.Date.Format("2006-01-02"), err)
	}

	m.window.Upsert(*stored)
	if m.metrics != nil {
		m.metrics.CounterDaysSaved.Inc()
	}
	m.publish(ctx, changefeed.OpUpdate)
	return stored, nil
}

// Archived lists the owner's archived days (the archive view).
func (m *Manager) Archived(ctx context.Context) ([]DayPlan, error) {
	days, err := m.repo.ListArchived(ctx, m.ownerID)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return nil, fmt.Errorf("list archived: %w", err)
	}
	return days, nil
}

// DeleteArchived hard-deletes a day from the archive view, the only
// place a day plan can be removed for good.
func (m *Manager) DeleteArchived(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return fmt.Errorf("delete archived day %s: %w", id, err)
	}
	m.publish(ctx, changefeed.OpDelete)
	return nil
}

// Refetch re-reads the currently loaded range and replaces the window
// content, used as the convergence path after a change notification.
// Rotation and display limit survive the refetch.
func (m *Manager) Refetch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	earliest, ok := m.window.EarliestDate()
	if !ok {
		return nil
	}
	latest, _ := m.window.LatestDate()

	days, err := m.repo.ListRange(ctx, RangeParams{
		OwnerID: m.ownerID,
		From:    earliest,
		To:      latest,
	})
	if err != nil {
		m.lastErr = err
		return fmt.Errorf("refetch window: %w", err)
	}

	pivot := m.window.pivotID
	m.window.SetEntries(days)
	if pivot != "" {
		m.window.Rotate(pivot)
	}
	return nil
}

// SubscribeChanges wires the manager to the change feed: any day_plan
// change for this owner triggers a full refetch of the loaded range.
func (m *Manager) SubscribeChanges(
	ctx context.Context,
	subscriber *changefeed.Subscriber,
) (func() error, error) {
	return subscriber.Subscribe(ctx, TableDayPlans, m.ownerID, func(changefeed.Event) {
		if err := m.Refetch(ctx); err != nil {
			log.Errorf("change-triggered refetch [%s]: %s", m.ownerID, err)
		}
	})
}

func (m *Manager) publish(ctx context.Context, op string) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(ctx, changefeed.Event{
		Table:   TableDayPlans,
		OwnerID: m.ownerID,
		Op:      op,
	})
}

// Visible returns the slice of the window the UI may render.
func (m *Manager) Visible() []DayPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Visible()
}

// Loaded returns the full loaded set, wider than what is displayed.
func (m *Manager) Loaded() []DayPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Loaded()
}

func (m *Manager) HasMoreDays() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.HasMoreDays()
}

func (m *Manager) HasMoreWeeks() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.HasMoreWeeks(TodayMidnight())
}

func (m *Manager) DisplayLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.DisplayLimit()
}

// CompletedWorkouts counts completed workout days over the loaded (not
// just displayed) set.
func (m *Manager) CompletedWorkouts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CompletedWorkouts(m.window.Loaded())
}

// LastError returns the most recent storage failure, if any. Fetch
// failures leave the previous window intact, so callers can keep
// rendering last-known-good data next to the reported error.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/dispatch/logging"
	"github.com/kilianp07/hems/core/entity"
	"github.com/kilianp07/hems/core/events"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/monitoring"
	"github.com/kilianp07/hems/core/status"
	"github.com/kilianp07/hems/internal/eventbus"
)

const logAppendTimeout = 5 * time.Second

// Skipped describes a control signal dropped by UpdateControlSignals.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ErrClosed marks control signals received after Close.
var ErrClosed = errors.New("schedule: manager closed")

// Result summarizes an UpdateControlSignals call.
type Result struct {
	Applied []model.DeviceID `json:"applied"`
	Skipped []Skipped        `json:"skipped"`
}

// Manager owns the schedule table and drives the per-device timers.
type Manager struct {
	mu        sync.Mutex
	schedules map[model.DeviceID]*schedule
	epoch     uint64

	port     dispatch.Port
	resolver entity.Resolver
	status   *status.Registry
	clock    Clock
	interval time.Duration
	timeout  time.Duration
	parallel int
	logger   logger.Logger
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	store    logging.LogStore

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// tickJob is one dispatch prepared under the table lock and sent outside it.
type tickJob struct {
	id       model.DeviceID
	epoch    uint64
	tick     int
	value    float64
	fallback bool
	token    string
	at       time.Time
}

// NewManager creates a Manager dispatching through port. A nil registry is
// replaced by an empty one.
func NewManager(port dispatch.Port, reg *status.Registry, log logger.Logger, cfg Config) (*Manager, error) {
	if port == nil {
		return nil, fmt.Errorf("schedule: port is required")
	}
	if log == nil {
		return nil, fmt.Errorf("schedule: logger is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if reg == nil {
		reg = status.NewRegistry(cfg.DegradedAfter)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		schedules: make(map[model.DeviceID]*schedule),
		port:      port,
		resolver:  entity.NewResolver(entity.WithDomains(cfg.DomainList()...), entity.WithStrict(cfg.StrictNames)),
		status:    reg,
		clock:     RealClock(),
		interval:  cfg.Interval(),
		timeout:   cfg.Timeout(),
		parallel:  cfg.MaxParallelDispatch,
		logger:    log,
		sink:      metrics.NopSink{},
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// SetClock replaces the clock. It must be called before the first update.
func (m *Manager) SetClock(c Clock) {
	m.mu.Lock()
	m.clock = c
	m.mu.Unlock()
}

// SetSink configures the metrics sink receiving outcomes and lifecycle events.
func (m *Manager) SetSink(s metrics.MetricsSink) {
	if s == nil {
		s = metrics.NopSink{}
	}
	m.mu.Lock()
	m.sink = s
	m.mu.Unlock()
}

// SetEventBus configures the bus receiving ScheduleEvent and OutcomeEvent.
func (m *Manager) SetEventBus(bus eventbus.EventBus) {
	m.mu.Lock()
	m.bus = bus
	m.mu.Unlock()
}

// SetLogStore configures the store used to persist dispatch outcomes.
func (m *Manager) SetLogStore(store logging.LogStore) {
	m.mu.Lock()
	m.store = store
	m.mu.Unlock()
}

// Registry returns the status registry fed by the manager.
func (m *Manager) Registry() *status.Registry { return m.status }

// Apply installs the signals of batch.
func (m *Manager) Apply(ctx context.Context, batch model.ControlSignalBatch) Result {
	return m.UpdateControlSignals(ctx, batch.APIKey, batch.Signals)
}

// UpdateControlSignals installs one schedule per resolvable signal, replacing
// any schedule the device already had, and dispatches every first value
// before returning. Later signals win when two names resolve to the same
// device. apiKey is forwarded to the port on every dispatch of the installed
// schedules. The first values are sent under the manager's lifetime, so
// cancelling ctx does not abort them once the schedules are installed.
func (m *Manager) UpdateControlSignals(ctx context.Context, apiKey string, signals []model.ControlSignal) Result {
	var (
		res       Result
		lifecycle []events.ScheduleEvent
		installed []*schedule
	)

	m.mu.Lock()
	now := m.clock.Now()
	if m.closed {
		m.mu.Unlock()
		for _, sig := range signals {
			skippedNames.WithLabelValues(skipReason(ErrClosed)).Inc()
			res.Skipped = append(res.Skipped, Skipped{Name: sig.Name, Reason: skipReason(ErrClosed)})
		}
		m.logger.Warnf("manager closed: %d control signals ignored", len(signals))
		return res
	}
	for _, sig := range signals {
		r, err := m.resolver.Resolve(sig.Name)
		if err != nil {
			reason := skipReason(err)
			skippedNames.WithLabelValues(reason).Inc()
			m.logger.Debugw("skipping control signal", map[string]any{"name": sig.Name, "reason": err.Error()})
			res.Skipped = append(res.Skipped, Skipped{Name: sig.Name, Reason: reason})
			lifecycle = append(lifecycle, events.ScheduleEvent{Action: events.ActionSkipped, Name: sig.Name, Reason: err.Error(), Time: now})
			continue
		}
		if r.Ambiguous() {
			ambiguousNames.Inc()
			m.logger.Warnw("control signal name resolved as a whole", map[string]any{"name": sig.Name, "device_id": r.ID.String()})
		}

		action := events.ActionInstalled
		if old, ok := m.schedules[r.ID]; ok {
			old.stop()
			m.status.Remove(r.ID)
			action = events.ActionReplaced
		}
		m.epoch++
		s := newSchedule(r.ID, sig.Signal, m.epoch, apiKey, now)
		s.nextAt = now.Add(m.interval)
		m.schedules[r.ID] = s

		value, fb := s.at(0)
		next, _ := s.at(1)
		m.status.Record(r.ID, status.Dispatch{
			LastValue:  value,
			LastSentAt: now,
			NextValue:  next,
			NextSentAt: s.nextAt,
			Fallback:   fb,
		})
		installed = append(installed, s)
		lifecycle = append(lifecycle, events.ScheduleEvent{
			Action:   action,
			DeviceID: r.ID,
			Name:     sig.Name,
			Values:   len(s.values),
			Time:     now,
		})
	}

	var jobs []tickJob
	for _, s := range installed {
		// A later signal of the same batch may have replaced s already.
		if m.schedules[s.id] != s {
			continue
		}
		value, fb := s.at(0)
		jobs = append(jobs, tickJob{id: s.id, epoch: s.epoch, value: value, fallback: fb, token: s.token, at: now})
		res.Applied = append(res.Applied, s.id)
	}
	active := len(m.schedules)
	activeSchedules.Set(float64(active))
	m.mu.Unlock()

	m.publishLifecycle(lifecycle, active)

	var g errgroup.Group
	if m.parallel > 0 {
		g.SetLimit(m.parallel)
	}
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			m.run(m.ctx, j)
			return nil
		})
	}
	_ = g.Wait()

	if len(res.Applied) > 0 || len(res.Skipped) > 0 {
		m.logger.Infof("control signals applied: %d installed, %d skipped", len(res.Applied), len(res.Skipped))
	}
	return res
}

// tick advances the schedule of id by one value and dispatches it. It is the
// timer callback and does nothing when the schedule was replaced or cleared
// since the timer was armed.
func (m *Manager) tick(id model.DeviceID, epoch uint64) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.CapturePanic(r, map[string]string{"module": "scheduler", "device_id": id.String()})
			m.logger.Errorf("tick %s: %v", id, monitoring.PanicError(r))
		}
	}()

	m.mu.Lock()
	s, ok := m.schedules[id]
	if !ok || s.epoch != epoch {
		m.mu.Unlock()
		return
	}
	s.timer = nil
	s.cursor++
	now := m.clock.Now()
	value, fb := s.at(s.cursor)
	next, _ := s.at(s.cursor + 1)
	s.nextAt = s.nextAt.Add(m.interval)
	if !s.nextAt.After(now) {
		s.nextAt = now.Add(m.interval)
	}
	m.status.Record(id, status.Dispatch{
		LastValue:  value,
		LastSentAt: now,
		NextValue:  next,
		NextSentAt: s.nextAt,
		Fallback:   fb,
	})
	j := tickJob{id: id, epoch: epoch, tick: s.cursor, value: value, fallback: fb, token: s.token, at: now}
	m.mu.Unlock()

	m.run(m.ctx, j)
}

// run sends j, records the result and arms the next tick if the schedule is
// still current.
func (m *Manager) run(ctx context.Context, j tickJob) {
	ticksTotal.WithLabelValues(tickSource(j.fallback)).Inc()
	lat, err := dispatch.Send(dispatch.WithToken(ctx, j.token), m.port, j.id, j.value, m.timeout)

	m.mu.Lock()
	if s, ok := m.schedules[j.id]; ok && s.epoch == j.epoch {
		m.status.MarkOutcome(j.id, err)
		m.arm(s)
	}
	sink, bus, store := m.sink, m.bus, m.store
	m.mu.Unlock()

	m.report(dispatch.Outcome{
		ID:       uuid.NewString(),
		DeviceID: j.id,
		Value:    j.value,
		Tick:     j.tick,
		Fallback: j.fallback,
		Err:      err,
		Latency:  lat,
		At:       j.at,
	}, sink, bus, store)
}

// arm schedules the next tick of s. The caller holds m.mu.
func (m *Manager) arm(s *schedule) {
	delay := s.nextAt.Sub(m.clock.Now())
	if delay < 0 {
		delay = 0
	}
	id, epoch := s.id, s.epoch
	s.timer = m.clock.AfterFunc(delay, func() { m.tick(id, epoch) })
}

func (m *Manager) report(o dispatch.Outcome, sink metrics.MetricsSink, bus eventbus.EventBus, store logging.LogStore) {
	if o.Err != nil {
		m.logger.Errorf("dispatch %s=%g (tick %d) failed: %v", o.DeviceID, o.Value, o.Tick, o.Err)
		monitoring.CaptureException(o.Err, map[string]string{"module": "scheduler", "device_id": o.DeviceID.String()})
	} else {
		m.logger.Debugw("dispatched", map[string]any{
			"device_id":  o.DeviceID.String(),
			"value":      o.Value,
			"tick":       o.Tick,
			"fallback":   o.Fallback,
			"latency_ms": o.Latency.Milliseconds(),
		})
	}
	if err := sink.RecordOutcome(o); err != nil {
		m.logger.Warnf("metrics sink: %v", err)
	}
	if bus != nil {
		bus.Publish(events.OutcomeEvent{Outcome: o})
	}
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), logAppendTimeout)
		if err := store.Append(ctx, logging.FromOutcome(o)); err != nil {
			m.logger.Warnf("dispatch log: %v", err)
		}
		cancel()
	}
}

func (m *Manager) publishLifecycle(evs []events.ScheduleEvent, active int) {
	m.mu.Lock()
	sink, bus := m.sink, m.bus
	m.mu.Unlock()
	for _, ev := range evs {
		if rec, ok := sink.(metrics.ScheduleRecorder); ok {
			if err := rec.RecordSchedule(ev); err != nil {
				m.logger.Warnf("metrics sink: %v", err)
			}
		}
		if bus != nil {
			bus.Publish(ev)
		}
	}
	if rec, ok := sink.(metrics.ActiveSchedulesRecorder); ok {
		if err := rec.RecordActiveSchedules(active); err != nil {
			m.logger.Warnf("metrics sink: %v", err)
		}
	}
}

// ClearAllSchedules stops every schedule and empties the status registry. It
// returns the number of schedules removed; calling it on an empty table is a
// no-op. A dispatch already in flight completes but does not re-arm.
func (m *Manager) ClearAllSchedules() int {
	m.mu.Lock()
	n := len(m.schedules)
	for id, s := range m.schedules {
		s.stop()
		delete(m.schedules, id)
	}
	m.status.Clear()
	activeSchedules.Set(0)
	now := m.clock.Now()
	m.mu.Unlock()

	if n == 0 {
		return 0
	}
	m.publishLifecycle([]events.ScheduleEvent{{Action: events.ActionCleared, Values: n, Time: now}}, 0)
	m.logger.Infof("cleared %d schedules", n)
	return n
}

// Status returns a copy of the status registry keyed by device.
func (m *Manager) Status() map[model.DeviceID]status.Entry { return m.status.Snapshot() }

// Plans returns the installed schedules sorted by device id.
func (m *Manager) Plans() []Plan {
	m.mu.Lock()
	out := make([]Plan, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s.plan())
	}
	m.mu.Unlock()
	sortPlans(out)
	return out
}

// Plan returns the schedule installed for id.
func (m *Manager) Plan(id model.DeviceID) (Plan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return Plan{}, false
	}
	return s.plan(), true
}

// Len returns the number of installed schedules.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}

// Close clears all schedules, rejects later updates, aborts in-flight timer dispatches and closes the
// log store.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.ClearAllSchedules()
	m.cancel()
	m.mu.Lock()
	store := m.store
	m.store = nil
	m.mu.Unlock()
	if store != nil {
		return store.Close()
	}
	return nil
}

// Package optimization drives one optimization job on the remote backend and
// hands its control signals to the scheduler.
package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/hems/auth"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/monitoring"
	"github.com/kilianp07/hems/core/schedule"
)

// Job states reported by the backend.
const (
	StateFinished = "FINISHED"
	StateFailed   = "FAILED"
)

var (
	ErrNoJobID   = errors.New("optimization: no job id returned from startOptimization")
	ErrJobFailed = errors.New("optimization: job failed")
	ErrMaxPolls  = errors.New("optimization: job did not finish within max polls")
)

// Scheduler is the part of schedule.Manager used by the runner.
type Scheduler interface {
	ClearAllSchedules() int
	UpdateControlSignals(ctx context.Context, apiKey string, signals []model.ControlSignal) schedule.Result
}

// Outcome is the optimization result of a finished job.
type Outcome struct {
	Time           []string              `json:"time"`
	ControlSignals []model.ControlSignal `json:"controlSignals"`
}

// JobStatus is one poll response.
type JobStatus struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// Hooks lets callers follow the workflow. Every field is optional.
type Hooks struct {
	OnJobID   func(id int)
	OnStatus  func(JobStatus)
	OnOutcome func(Outcome)
}

// Report summarizes a run.
type Report struct {
	RunID  string
	JobID  int
	State  string
	Result schedule.Result
}

// Runner executes the save/start/poll/outcome/schedule workflow.
type Runner struct {
	client *Client
	sched  Scheduler
	cfg    Config
	log    logger.Logger
	hooks  Hooks
	sleep  func(context.Context, time.Duration) error
}

// NewRunner builds a runner. When cfg.Auth is enabled requests carry an
// OAuth2 client-credentials token.
func NewRunner(ctx context.Context, cfg Config, sched Scheduler, log logger.Logger) (*Runner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, errors.New("optimization: scheduler is required")
	}
	if log == nil {
		return nil, errors.New("optimization: logger is required")
	}
	hc := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	if cfg.Auth.Enabled() {
		hc = auth.NewClientCred(cfg.Auth).Client(ctx)
		hc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Runner{
		client: NewClient(cfg.Endpoint, hc),
		sched:  sched,
		cfg:    cfg,
		log:    log,
		sleep:  sleepCtx,
	}, nil
}

// SetHooks installs progress callbacks.
func (r *Runner) SetHooks(h Hooks) { r.hooks = h }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run clears the current schedules, runs one optimization job and installs
// its control signals. A FAILED job returns ErrJobFailed with an empty
// result; existing schedules stay cleared.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString()}
	n := r.sched.ClearAllSchedules()
	r.log.Infof("[optimization %s] cleared %d schedules", rep.RunID, n)

	var saved struct {
		SaveModel struct {
			Message string `json:"message"`
		} `json:"saveModel"`
	}
	if err := r.client.Do(ctx, saveModelMutation, nil, &saved); err != nil {
		return rep, r.fail(rep, "save_model", fmt.Errorf("save model: %w", err))
	}
	r.log.Debugf("[optimization %s] save model: %s", rep.RunID, saved.SaveModel.Message)

	var started struct {
		StartOptimization *json.Number `json:"startOptimization"`
	}
	if err := r.client.Do(ctx, startOptimizationMutation, nil, &started); err != nil {
		return rep, r.fail(rep, "start", fmt.Errorf("start optimization: %w", err))
	}
	if started.StartOptimization == nil {
		return rep, r.fail(rep, "start", ErrNoJobID)
	}
	id, err := started.StartOptimization.Int64()
	if err != nil {
		return rep, r.fail(rep, "start", fmt.Errorf("start optimization: job id %q: %w", started.StartOptimization.String(), err))
	}
	rep.JobID = int(id)
	if r.hooks.OnJobID != nil {
		r.hooks.OnJobID(rep.JobID)
	}
	r.log.Infof("[optimization %s] started job %d", rep.RunID, rep.JobID)

	st, err := r.poll(ctx, rep.JobID)
	rep.State = st.State
	if err != nil {
		return rep, r.fail(rep, "poll", err)
	}
	if st.State != StateFinished {
		r.log.Warnf("[optimization %s] job %d failed: %s", rep.RunID, rep.JobID, st.Message)
		return rep, fmt.Errorf("%w: %s", ErrJobFailed, st.Message)
	}

	var res struct {
		JobOutcome *Outcome `json:"jobOutcome"`
	}
	if err := r.client.Do(ctx, jobOutcomeQuery, map[string]any{"jobId": rep.JobID}, &res); err != nil {
		return rep, r.fail(rep, "outcome", fmt.Errorf("job outcome: %w", err))
	}
	if res.JobOutcome == nil {
		r.log.Warnf("[optimization %s] job %d returned no outcome", rep.RunID, rep.JobID)
		return rep, nil
	}
	if r.hooks.OnOutcome != nil {
		r.hooks.OnOutcome(*res.JobOutcome)
	}

	rep.Result = r.sched.UpdateControlSignals(ctx, r.cfg.APIKey, res.JobOutcome.ControlSignals)
	r.log.Infof("[optimization %s] job %d scheduled %d devices, skipped %d", rep.RunID, rep.JobID, len(rep.Result.Applied), len(rep.Result.Skipped))
	return rep, nil
}

func (r *Runner) poll(ctx context.Context, jobID int) (JobStatus, error) {
	for i := 0; ; i++ {
		var res struct {
			JobStatus JobStatus `json:"jobStatus"`
		}
		if err := r.client.Do(ctx, jobStatusQuery, map[string]any{"jobId": jobID}, &res); err != nil {
			return JobStatus{}, fmt.Errorf("job status: %w", err)
		}
		if r.hooks.OnStatus != nil {
			r.hooks.OnStatus(res.JobStatus)
		}
		switch res.JobStatus.State {
		case StateFinished, StateFailed:
			return res.JobStatus, nil
		}
		if r.cfg.MaxPolls > 0 && i+1 >= r.cfg.MaxPolls {
			return res.JobStatus, ErrMaxPolls
		}
		if err := r.sleep(ctx, r.cfg.PollInterval()); err != nil {
			return res.JobStatus, err
		}
	}
}

func (r *Runner) fail(rep Report, step string, err error) error {
	r.log.Errorf("[optimization %s] %s: %v", rep.RunID, step, err)
	monitoring.CaptureException(err, map[string]string{"module": "optimization", "step": step})
	return err
}

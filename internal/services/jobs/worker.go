package jobs

import (
	"context"
	"errors"
	"time"

	"schedd/internal/eventbus"
	"schedd/internal/storage"
	logx "schedd/pkg/logx"
)

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}, queue <-chan *job) {
	for {
		// Fast-exit check so a closed stopCh wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case j := <-queue:
			s.execOne(ctx, j)
		}
	}
}

func (s *Service) execOne(ctx context.Context, j *job) {
	start := time.Now()

	s.jobsMu.Lock()
	if j.cancelRequested || j.status.Terminal() {
		s.jobsMu.Unlock()
		return
	}
	j.status = StatusRunning
	j.started = start
	var runCtx context.Context
	var cancel context.CancelFunc
	if j.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, j.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	j.cancel = cancel
	s.jobsMu.Unlock()

	s.publish(eventbus.JobStarted, JobEvent{ID: j.id, Status: StatusRunning, Started: start})

	resp, err := s.solver.Solve(runCtx, j.req)
	cancel()
	dur := time.Since(start)

	s.jobsMu.Lock()
	j.finished = time.Now()
	j.cancel = nil
	switch {
	case j.cancelRequested || errors.Is(err, context.Canceled):
		j.status = StatusCancelled
		j.errText = "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		j.status = StatusFailed
		j.errText = "time limit exceeded"
	case err != nil:
		j.status = StatusFailed
		j.errText = err.Error()
	default:
		j.status = StatusFinished
		j.resp = resp
	}
	view := j.view()
	s.jobsMu.Unlock()

	switch view.Status {
	case StatusCancelled:
		s.log.Info("job cancelled", logx.String("job", j.id), logx.Duration("dur", dur))
		s.publish(eventbus.JobCancelled, JobEvent{ID: j.id, Status: StatusCancelled, Started: start, Duration: dur})
	case StatusFailed:
		s.log.Warn("job failed", logx.String("job", j.id), logx.String("err", view.Error), logx.Duration("dur", dur))
		s.publish(eventbus.JobFailed, JobEvent{ID: j.id, Status: StatusFailed, Started: start, Duration: dur, Error: view.Error})
	default:
		if dur >= 750*time.Millisecond {
			s.log.Info("job finished",
				logx.String("job", j.id),
				logx.Int("tasks", view.Tasks),
				logx.Int("lateness", view.Lateness),
				logx.Duration("dur", dur))
		} else {
			s.log.Debug("job finished",
				logx.String("job", j.id),
				logx.Int("tasks", view.Tasks),
				logx.Int("lateness", view.Lateness),
				logx.Duration("dur", dur))
		}
		s.publish(eventbus.JobFinished, JobEvent{ID: j.id, Status: StatusFinished, Started: start, Duration: dur})
	}

	s.recordRun(view, dur)
}

// recordRun appends the finished job to the run history store, best effort.
func (s *Service) recordRun(v View, dur time.Duration) {
	if s.store == nil {
		return
	}
	rec := storage.RunRecord{
		ID:          v.ID,
		SubmittedAt: v.SubmittedAt,
		Status:      string(v.Status),
		StatusText:  v.StatusText,
		Tasks:       v.Tasks,
		Lateness:    v.Lateness,
		Error:       v.Error,
		TookMS:      dur.Milliseconds(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.AppendRun(ctx, rec); err != nil {
		s.log.Warn("run record append failed", logx.String("job", v.ID), logx.Err(err))
	}
}

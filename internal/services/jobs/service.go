package jobs

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"schedd/internal/eventbus"
	"schedd/internal/planning"
	"schedd/internal/storage"
	logx "schedd/pkg/logx"
)

// Service runs solve jobs from a queue using a worker pool.
//
// It is panic-safe (worker goroutines recover), and cooperates with shutdown
// via Start/Stop.
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	bus    eventbus.Bus
	solver planning.Solver
	store  storage.Store
	cfg    Config

	queue     chan *job
	stopCh    chan struct{}
	stopDone  chan struct{}
	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup

	jobsMu sync.Mutex
	jobs   map[string]*job
	order  []string // submission order, for history trimming

	// Counters (lifetime) for operator diagnostics.
	dropped uint64
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus, solver planning.Solver, store storage.Store) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, bus: bus, solver: solver, store: store, jobs: map[string]*job{}}
}

// Enabled reports the current config flag. (Thread-safe; Apply() may run concurrently.)
func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	// Note: live pool resizing is out of scope; restart the service to apply.
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	cur := s.cfg
	s.mu.Unlock()
	s.log.Debug("start requested",
		logx.Bool("enabled", cur.Enabled),
		logx.Int("workers", cur.Workers),
		logx.Int("queue_size", cur.QueueSize))

	// If a Stop() is in progress, wait for it to complete (prevents double worker pools).
	for {
		s.mu.Lock()
		if s.stopCh == nil {
			break
		}
		done := s.stopDone
		if done == nil {
			// already running
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		select {
		case <-done:
			// loop
		case <-ctx.Done():
			return
		}
	}
	defer s.mu.Unlock()

	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	qs := s.cfg.QueueSize
	if qs <= 0 {
		qs = 64
	}
	// Fresh queue per run to avoid executing stale jobs after a stop/start toggle.
	s.queue = make(chan *job, qs)

	runCtx := s.runCtx
	stopCh := s.stopCh
	queue := s.queue

	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in jobs worker",
						logx.Int("worker", idx),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())))
				}
			}()
			s.log.Debug("worker started", logx.Int("worker", idx))
			s.worker(runCtx, stopCh, queue)
			s.log.Debug("worker stopped", logx.Int("worker", idx))
		}()
	}

	s.log.Info("service started", logx.Int("workers", workers), logx.Int("queue_size", qs))
}

func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}

	done := make(chan struct{})
	s.stopDone = done
	stopCh := s.stopCh
	cancel := s.runCancel
	s.runCancel = nil
	s.mu.Unlock()

	close(stopCh)
	if cancel != nil {
		cancel()
	}

	go func() {
		s.workerWG.Wait()
		s.mu.Lock()
		s.stopCh = nil
		s.runCtx = nil
		s.queue = nil
		s.stopDone = nil
		s.mu.Unlock()
		close(done)
		s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		// stop continues in background
		return
	}
}

// Submit queues a solve request and returns the job id.
//
// It is non-blocking: if the queue is full it returns ErrQueueFull and drops
// the job.
func (s *Service) Submit(req planning.Request) (string, error) {
	s.mu.Lock()
	cfg := s.cfg
	q := s.queue
	s.mu.Unlock()

	if !cfg.Enabled {
		return "", ErrDisabled
	}
	if q == nil {
		return "", ErrStopped
	}

	timeout := cfg.DefaultTimeout
	if req.TimeLimit > 0 {
		timeout = time.Duration(req.TimeLimit) * time.Second
	}

	j := &job{
		id:        uuid.NewString(),
		req:       req,
		submitted: time.Now(),
		timeout:   timeout,
		status:    StatusQueued,
	}

	s.jobsMu.Lock()
	s.jobs[j.id] = j
	s.order = append(s.order, j.id)
	s.trimLocked(cfg.HistorySize)
	s.jobsMu.Unlock()

	select {
	case q <- j:
		s.publish(eventbus.JobQueued, JobEvent{ID: j.id, Status: StatusQueued})
		s.log.Debug("job queued", logx.String("job", j.id), logx.Int("queue_len", len(q)))
		return j.id, nil
	default:
		s.jobsMu.Lock()
		delete(s.jobs, j.id)
		if n := len(s.order); n > 0 && s.order[n-1] == j.id {
			s.order = s.order[:n-1]
		}
		s.jobsMu.Unlock()
		atomic.AddUint64(&s.dropped, 1)
		s.log.Warn("jobs queue full; dropping job",
			logx.String("job", j.id),
			logx.Int("queue_len", len(q)),
			logx.Int("queue_cap", cap(q)))
		s.publish(eventbus.JobDropped, JobEvent{ID: j.id, Status: StatusQueued, Error: "queue_full"})
		return "", ErrQueueFull
	}
}

// Status returns the current view of a job.
func (s *Service) Status(id string) (View, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return View{}, ErrUnknownJob
	}
	return j.view(), nil
}

// Result returns the finished job's response along with its view.
func (s *Service) Result(id string) (Result, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Result{}, ErrUnknownJob
	}
	return Result{View: j.view(), Response: j.resp}, nil
}

// Cancel asks a job to stop. A queued job is cancelled in place; a running
// job gets its context cancelled and reports back through the worker.
func (s *Service) Cancel(id string) error {
	s.jobsMu.Lock()
	j, ok := s.jobs[id]
	if !ok {
		s.jobsMu.Unlock()
		return ErrUnknownJob
	}
	if j.status.Terminal() {
		s.jobsMu.Unlock()
		return nil
	}
	j.cancelRequested = true
	cancel := j.cancel
	var cancelledNow bool
	if j.status == StatusQueued {
		j.status = StatusCancelled
		j.finished = time.Now()
		cancelledNow = true
	}
	s.jobsMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cancelledNow {
		s.publish(eventbus.JobCancelled, JobEvent{ID: id, Status: StatusCancelled})
		s.log.Info("job cancelled before start", logx.String("job", id))
	}
	return nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	enabled := s.cfg.Enabled
	workers := s.cfg.Workers
	ql, qc := 0, 0
	if s.queue != nil {
		ql = len(s.queue)
		qc = cap(s.queue)
	}
	s.mu.Unlock()

	if workers <= 0 {
		workers = 2
	}

	s.jobsMu.Lock()
	views := make([]View, 0, len(s.order))
	for _, id := range s.order {
		if j, ok := s.jobs[id]; ok {
			views = append(views, j.view())
		}
	}
	s.jobsMu.Unlock()

	return Snapshot{
		Enabled:  enabled,
		Workers:  workers,
		QueueLen: ql,
		QueueCap: qc,
		Dropped:  atomic.LoadUint64(&s.dropped),
		Jobs:     views,
	}
}

// trimLocked drops the oldest terminal jobs beyond the history size.
// Requires jobsMu.
func (s *Service) trimLocked(historySize int) {
	if historySize <= 0 {
		historySize = 200
	}
	for len(s.order) > historySize {
		trimmed := false
		for i, id := range s.order {
			j, ok := s.jobs[id]
			if !ok || j.status.Terminal() {
				delete(s.jobs, id)
				s.order = append(s.order[:i], s.order[i+1:]...)
				trimmed = true
				break
			}
		}
		if !trimmed {
			return
		}
	}
}

func (s *Service) publish(eventType string, data JobEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: eventType, Time: time.Now(), Data: data})
}

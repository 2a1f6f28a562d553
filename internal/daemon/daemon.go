package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"schedd/internal/config"
	"schedd/internal/eventbus"
	"schedd/internal/planning"
	"schedd/internal/sequence"
	"schedd/internal/services/debughttp"
	"schedd/internal/services/jobs"
	"schedd/internal/storage"
	logx "schedd/pkg/logx"
)

// Options are the command line knobs.
type Options struct {
	ConfigPath   string
	ScenarioPath string
	OutPath      string
}

// Daemon wires the sequencing engine, the solve job runner and their
// supporting services together.
type Daemon struct {
	opts Options

	logSvc *logx.Service
	log    logx.Logger

	manager *config.Manager
	bus     eventbus.Bus
	store   storage.Store
	solver  *planning.Sequencer
	runner  *jobs.Service
	debug   *debughttp.Service

	cfgMu sync.Mutex
	cfg   *config.Config

	cronMu   sync.Mutex
	cron     *cron.Cron
	cronSpec string

	outMu sync.Mutex
}

func New(opts Options) (*Daemon, error) {
	d := &Daemon{opts: opts, bus: eventbus.New()}

	cfg := defaultConfig()
	if opts.ConfigPath != "" {
		d.manager = config.NewManager(opts.ConfigPath)
		loaded, err := d.manager.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	d.cfg = cfg

	logCfg, err := logxConfig(cfg.Logging)
	if err != nil {
		return nil, err
	}
	d.logSvc, d.log = logx.New(logCfg)
	d.log = d.log.With(logx.String("comp", "daemon"))
	sequence.SetTrace(d.logSvc.Logger().With(logx.String("comp", "engine")))

	if d.manager != nil {
		d.manager.SetLogger(d.logSvc.Logger().With(logx.String("comp", "config")))
		d.manager.SetValidator(validateConfig)
	}

	storeCfg, err := storageConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	d.store, err = storage.Open(storeCfg, d.logSvc.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	d.solver = planning.NewSequencer(d.logSvc.Logger().With(logx.String("comp", "solver")))
	d.solver.SetMaxImprovePasses(cfg.Engine.MaxImprovePasses)

	jobsCfg, err := jobsConfig(cfg.Jobs)
	if err != nil {
		return nil, err
	}
	d.runner = jobs.New(jobsCfg, d.logSvc.Logger().With(logx.String("comp", "jobs")), d.bus, d.solver, d.store)

	debugCfg, err := debugConfig(cfg.Debug)
	if err != nil {
		return nil, err
	}
	d.debug = debughttp.New(debugCfg, d.logSvc.Logger().With(logx.String("comp", "debug")), d.runner, d.store)

	return d, nil
}

func (d *Daemon) Close() error {
	d.cronMu.Lock()
	if d.cron != nil {
		d.cron.Stop()
		d.cron = nil
	}
	d.cronMu.Unlock()

	var first error
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			first = err
		}
	}
	if d.logSvc != nil {
		if err := d.logSvc.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RunOnce solves the scenario synchronously and writes the response.
func (d *Daemon) RunOnce(ctx context.Context) (planning.Response, error) {
	req, err := planning.LoadRequest(d.opts.ScenarioPath)
	if err != nil {
		return planning.Response{}, err
	}
	if req.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeLimit)*time.Second)
		defer cancel()
	}
	resp, err := d.solver.Solve(ctx, req)
	if err != nil {
		return resp, err
	}
	return resp, d.writeResponse(resp)
}

// Run starts watch mode: the scenario is re-solved whenever its file changes,
// on the configured cron schedule, and once at startup. Run blocks until the
// context ends.
func (d *Daemon) Run(ctx context.Context) error {
	d.runner.Start(ctx)
	d.debug.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		d.runner.Stop(stopCtx)
		d.debug.Stop(stopCtx)
	}()

	// Result sink: every finished job's response lands in the output file.
	events, unsub := d.bus.Subscribe(16, eventbus.JobFinished, eventbus.JobFailed)
	defer unsub()
	go d.consumeResults(ctx, events)

	if d.manager != nil {
		go func() { _ = d.manager.Watch(ctx) }()
		updates := d.manager.Subscribe(4)
		defer d.manager.Unsubscribe(updates)
		go d.consumeConfig(ctx, updates)
	}

	d.cfgMu.Lock()
	resolve := d.cfg.Resolve
	d.cfgMu.Unlock()
	if resolve != nil {
		d.applyCron(resolve.Cron)
	}

	go d.watchScenario(ctx)

	d.submit()

	<-ctx.Done()
	return nil
}

// submit loads the scenario and queues a solve job.
func (d *Daemon) submit() {
	req, err := planning.LoadRequest(d.opts.ScenarioPath)
	if err != nil {
		d.log.Warn("scenario load failed", logx.String("path", d.opts.ScenarioPath), logx.Err(err))
		return
	}
	id, err := d.runner.Submit(req)
	if err != nil {
		d.log.Warn("submit failed", logx.Err(err))
		return
	}
	d.log.Info("solve submitted", logx.String("job", id))
}

func (d *Daemon) consumeResults(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			je, ok := e.Data.(jobs.JobEvent)
			if !ok {
				continue
			}
			if e.Type == eventbus.JobFailed {
				d.log.Warn("solve failed", logx.String("job", je.ID), logx.String("err", je.Error))
				continue
			}
			res, err := d.runner.Result(je.ID)
			if err != nil {
				d.log.Warn("result lookup failed", logx.String("job", je.ID), logx.Err(err))
				continue
			}
			if err := d.writeResponse(res.Response); err != nil {
				d.log.Warn("result write failed", logx.String("job", je.ID), logx.Err(err))
				continue
			}
			d.log.Info("solution written",
				logx.String("job", je.ID),
				logx.Int("tasks", res.View.Tasks),
				logx.Int("lateness", res.View.Lateness),
				logx.String("status", res.View.StatusText))
		}
	}
}

func (d *Daemon) consumeConfig(ctx context.Context, updates <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			d.applyConfig(cfg)
		}
	}
}

func (d *Daemon) applyConfig(cfg *config.Config) {
	d.cfgMu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.cfgMu.Unlock()

	changed, attrs := config.SummarizeConfigChange(old, cfg)
	if len(changed) == 0 {
		return
	}
	d.log.Info("config applied", append(attrs, logx.String("sections", strings.Join(changed, ",")))...)

	if logCfg, err := logxConfig(cfg.Logging); err == nil {
		d.logSvc.Apply(logCfg)
	} else {
		d.log.Warn("logging config invalid", logx.Err(err))
	}
	d.solver.SetMaxImprovePasses(cfg.Engine.MaxImprovePasses)
	if jc, err := jobsConfig(cfg.Jobs); err == nil {
		d.runner.Apply(jc)
	} else {
		d.log.Warn("jobs config invalid", logx.Err(err))
	}

	if dc, err := debugConfig(cfg.Debug); err == nil {
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		d.debug.Reconfigure(rctx, dc)
		cancel()
	} else {
		d.log.Warn("debug config invalid", logx.Err(err))
	}

	// Storage driver changes need a restart; say so instead of half-applying.
	for _, section := range changed {
		if section == "storage" {
			d.log.Warn("storage config changed; restart to apply")
		}
	}

	spec := ""
	if cfg.Resolve != nil {
		spec = strings.TrimSpace(cfg.Resolve.Cron)
	}
	d.applyCron(spec)
}

// applyCron swaps the periodic re-solve schedule.
func (d *Daemon) applyCron(spec string) {
	spec = strings.TrimSpace(spec)
	d.cronMu.Lock()
	defer d.cronMu.Unlock()
	if spec == d.cronSpec && d.cron != nil {
		return
	}
	if d.cron != nil {
		d.cron.Stop()
		d.cron = nil
	}
	d.cronSpec = spec
	if spec == "" {
		return
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, d.submit); err != nil {
		d.log.Warn("resolve cron invalid", logx.String("spec", spec), logx.Err(err))
		return
	}
	c.Start()
	d.cron = c
	d.log.Info("resolve schedule active", logx.String("spec", spec))
}

func (d *Daemon) writeResponse(resp planning.Response) error {
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	d.outMu.Lock()
	defer d.outMu.Unlock()
	out := strings.TrimSpace(d.opts.OutPath)
	if out == "" || out == "-" {
		_, err = logx.Stdout().Write(b)
		return err
	}
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, out)
}

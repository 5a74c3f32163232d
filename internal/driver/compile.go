package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"tycodec/internal/codegen"
	"tycodec/internal/config"
	"tycodec/internal/diag"
	"tycodec/internal/observ"
	"tycodec/internal/output"
	"tycodec/internal/pipeline"
	"tycodec/internal/schema"
	"tycodec/internal/sema"
	"tycodec/internal/source"
	"tycodec/internal/trace"
	"tycodec/internal/types"
)

// Options configure a run over several units.
type Options struct {
	Config         *config.Config
	MaxDiagnostics int
	// Jobs limits how many units compile at once; 0 means GOMAXPROCS.
	Jobs int
	// CheckOnly stops every unit after the semantic passes.
	CheckOnly bool
	// Write stores each generated file under Config.OutputDir.
	Write    bool
	Cache    *DiskCache
	Progress pipeline.ProgressSink
	Observer PhaseObserver
	Tracer   trace.Tracer
	// Timings appends a timing report to the diagnostics of every unit.
	Timings bool
}

// UnitResult is the outcome of one unit.
type UnitResult struct {
	Unit    Unit
	FileSet *source.FileSet
	Bag     *diag.Bag
	// Sema is nil when the unit failed to load or came from the cache.
	Sema        *sema.Result
	Output      []byte
	Descriptors []string
	// Path is where Output was written, empty when it was not.
	Path    string
	Cached  bool
	Key     Digest
	Timings pipeline.Timings
	Report  observ.Report
}

// Failed reports whether the unit produced errors.
func (r *UnitResult) Failed() bool {
	return r == nil || r.Bag.HasErrors()
}

// CompileUnits runs every unit through the pipeline in parallel. Diagnostics stay in the
// per-unit bags; the returned error is reserved for cancellation and internal errors,
// which abort the whole run.
func CompileUnits(ctx context.Context, units []Unit, opts Options) ([]*UnitResult, error) {
	if opts.Config == nil {
		opts.Config = config.Default(".")
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*UnitResult, len(units))
	if len(units) == 0 {
		return results, nil
	}
	for _, u := range units {
		pipeline.Emit(opts.Progress, pipeline.Event{Unit: u.Name, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued})
	}

	sp := trace.Begin(opts.Tracer, trace.ScopeDriver, "compile", 0)
	defer sp.End(fmt.Sprintf("%d units", len(units)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))
	for i, u := range units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// индекс i уникален для каждой горутины, мьютекс не нужен
			res, err := compileUnit(gctx, u, opts, sp.ID())
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	return results, err
}

type unitRun struct {
	ctx   context.Context
	opts  Options
	res   *UnitResult
	timer *observ.Timer
	span  uint64
}

func compileUnit(ctx context.Context, u Unit, opts Options, parent uint64) (res *UnitResult, err error) {
	res = &UnitResult{Unit: u, FileSet: source.NewFileSet(), Bag: diag.NewBag(opts.MaxDiagnostics)}
	r := &unitRun{ctx: ctx, opts: opts, res: res, timer: observ.NewTimer()}

	sp := trace.Begin(opts.Tracer, trace.ScopeUnit, u.Name, parent)
	r.span = sp.ID()
	defer func() {
		if err != nil {
			pipeline.Emit(opts.Progress, pipeline.Event{Unit: u.Name, Status: pipeline.StatusError, Err: err})
		}
		sp.End("")
	}()
	defer diag.RecoverFatal(&err)

	err = r.run()
	res.Report = r.timer.Report()
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: "unit", Path: u.Name, TotalMS: res.Report.TotalMS, Phases: res.Report.Phases})
	}
	return res, err
}

func (r *unitRun) run() error {
	var (
		reg    *types.Registry
		loader *schema.Loader
		ids    []source.FileID
	)
	cfg := r.opts.Config

	ok, err := r.stage(pipeline.StageLoad, func() (bool, error) {
		for _, path := range r.res.Unit.Files {
			id, err := r.res.FileSet.Load(path)
			if err != nil {
				r.report(diag.IOLoadFileError, source.NoSpan, "failed to load file: %v", err)
				return false, nil
			}
			ids = append(ids, id)
		}
		r.res.Key = unitKey(cfg, r.res.FileSet, ids)
		if !r.opts.CheckOnly && r.fromCache() {
			return true, nil
		}
		reg = types.NewRegistry()
		loader = schema.NewLoader(r.res.FileSet, reg)
		for _, id := range ids {
			if err := loader.Declare(id); err != nil {
				r.loadError(err)
				return false, nil
			}
		}
		if err := loader.Finish(); err != nil {
			r.loadError(err)
			return false, nil
		}
		return true, nil
	})
	if err != nil || !ok || r.res.Cached {
		return err
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	ok, err = r.stage(pipeline.StageCheck, func() (bool, error) {
		r.res.Sema = sema.Check(reg, sema.Options{
			Reporter: diag.BagReporter{Bag: r.res.Bag},
			Tracer:   r.opts.Tracer,
			Parent:   r.span,
		})
		return !r.res.Bag.HasErrors(), nil
	})
	if err != nil || !ok || r.opts.CheckOnly {
		return err
	}

	acc := output.New(r.res.Unit.Name)
	backend := output.NewGoText(cfg.Package, "", cfg.Split)
	ok, err = r.stage(pipeline.StageGenerate, func() (bool, error) {
		codegen.New(r.res.Sema, acc, backend, codegen.Options{
			Formats:         cfg.Formats,
			Layout:          cfg.Layout,
			MetainfoUnbound: cfg.MetainfoUnbound,
			Reporter:        diag.BagReporter{Bag: r.res.Bag},
			Tracer:          r.opts.Tracer,
			Parent:          r.span,
		}).Generate()
		return !r.res.Bag.HasErrors(), nil
	})
	if err != nil || !ok {
		return err
	}

	_, err = r.stage(pipeline.StageWrite, func() (bool, error) {
		r.res.Output = backend.File(acc)
		for _, d := range acc.Table.All() {
			r.res.Descriptors = append(r.res.Descriptors, d.Name)
		}
		if r.opts.Cache != nil {
			payload := &DiskPayload{Unit: r.res.Unit.Name, Files: r.res.Unit.Files, Output: acc.Snapshot(), Created: time.Now()}
			if err := r.opts.Cache.Put(r.res.Key, payload); err != nil {
				r.warn(diag.IOCacheError, "descriptor cache not updated: %v", err)
			}
		}
		return r.write()
	})
	return err
}

// fromCache fills the result from a cached payload.
func (r *unitRun) fromCache() bool {
	if r.opts.Cache == nil {
		return false
	}
	var payload DiskPayload
	hit, err := r.opts.Cache.Get(r.res.Key, &payload)
	if err != nil {
		r.warn(diag.IOCacheError, "descriptor cache ignored: %v", err)
		return false
	}
	if !hit {
		return false
	}
	cfg := r.opts.Config
	acc := payload.Output.Restore()
	r.res.Cached = true
	r.res.Output = output.NewGoText(cfg.Package, "", cfg.Split).File(acc)
	r.res.Descriptors = payload.Output.Descriptors
	if _, err := r.write(); err != nil {
		r.report(diag.IOLoadFileError, source.NoSpan, "failed to write output: %v", err)
	}
	pipeline.Emit(r.opts.Progress, pipeline.Event{Unit: r.res.Unit.Name, Stage: pipeline.StageWrite, Status: pipeline.StatusCached})
	return true
}

func (r *unitRun) write() (bool, error) {
	if !r.opts.Write {
		return true, nil
	}
	dir := r.opts.Config.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("output directory: %w", err)
	}
	path := filepath.Join(dir, r.res.Unit.Name+".go")
	if err := os.WriteFile(path, r.res.Output, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	r.res.Path = path
	return true, nil
}

// stage runs fn as one pipeline stage: progress events, phase observer, timer and trace.
func (r *unitRun) stage(st pipeline.Stage, fn func() (bool, error)) (bool, error) {
	unit := r.res.Unit.Name
	pipeline.Emit(r.opts.Progress, pipeline.Event{Unit: unit, Stage: st, Status: pipeline.StatusWorking})
	r.observe(PhaseEvent{Name: string(st), Status: PhaseStart})
	sp := trace.Begin(r.opts.Tracer, trace.ScopePass, string(st), r.span)
	idx := r.timer.Begin(string(st))
	start := time.Now()

	ok, err := fn()

	elapsed := time.Since(start)
	note := ""
	if r.res.Cached {
		note = "cached"
	}
	r.timer.End(idx, note)
	sp.End(note)
	r.res.Timings.Add(st, elapsed)
	r.observe(PhaseEvent{Name: string(st), Status: PhaseEnd, Elapsed: elapsed})

	status := pipeline.StatusDone
	if err != nil || !ok {
		status = pipeline.StatusError
	}
	pipeline.Emit(r.opts.Progress, pipeline.Event{Unit: unit, Stage: st, Status: status, Err: err, Elapsed: elapsed})
	return ok, err
}

func (r *unitRun) observe(evt PhaseEvent) {
	if r.opts.Observer != nil {
		evt.Unit = r.res.Unit.Name
		r.opts.Observer(evt)
	}
}

func (r *unitRun) report(code diag.Code, sp source.Span, format string, args ...any) {
	r.res.Bag.Add(diag.NewError(code, sp, fmt.Sprintf(format, args...)))
}

func (r *unitRun) warn(code diag.Code, format string, args ...any) {
	r.res.Bag.Add(diag.New(diag.SevWarning, code, source.NoSpan, fmt.Sprintf(format, args...)))
}

func (r *unitRun) loadError(err error) {
	var le *schema.LoadError
	if !errors.As(err, &le) {
		r.report(diag.IOBadSchema, source.NoSpan, "%v", err)
		return
	}
	code := diag.IOBadSchema
	if errors.Is(err, fs.ErrNotExist) {
		code = diag.IOLoadFileError
	}
	msg := le.Msg
	if le.Err != nil {
		msg += ": " + le.Err.Error()
	}
	r.report(code, le.Span, "%s", msg)
}

package merge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/klauern/dirmerge/internal/logging"
	"github.com/klauern/dirmerge/internal/validation"
)

// Options configures merge behavior.
type Options struct {
	// Workers bounds the number of concurrent per-path workers.
	// Values outside [1, MaxWorkers] fall back to DefaultWorkers.
	Workers int

	// Algorithm selects the content digest function (default: sha256).
	Algorithm Algorithm

	// DryRun classifies and reports without writing anything.
	DryRun bool

	// Verbose logs each classification decision at info level.
	Verbose bool

	// Progress, when set, is called once per completed path. Callers use
	// it to drive a progress bar; it must be safe for concurrent use or
	// cheap enough to serialize (the merger calls it under its own lock).
	Progress func(completed int)

	// ProgressTotal, when set, is called once after the diff with the
	// number of paths the pass will process, before any Progress call.
	ProgressTotal func(total int)
}

const (
	// DefaultWorkers is the worker pool size when none is configured.
	DefaultWorkers = 8
	// MaxWorkers caps the configurable pool size.
	MaxWorkers = 64
)

// DefaultOptions returns the default merge options.
func DefaultOptions() Options {
	return Options{
		Workers:   DefaultWorkers,
		Algorithm: AlgorithmSHA256,
	}
}

// Merger drives an end-to-end merge pass: diff the trees, copy new files,
// resolve collisions, quarantine divergent content.
type Merger struct {
	opts       Options
	resolver   Resolver
	relocator  Relocator
	progressMu sync.Mutex
}

// New creates a Merger with the given options.
func New(opts Options) *Merger {
	if opts.Workers < 1 || opts.Workers > MaxWorkers {
		opts.Workers = DefaultWorkers
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmSHA256
	}
	return &Merger{
		opts:      opts,
		resolver:  Resolver{Hasher: Hasher{Algorithm: opts.Algorithm}},
		relocator: Relocator{},
	}
}

// task is one unit of per-path work. Exactly one of the two shapes is set:
// a new path (rel only) or a collision.
type task struct {
	rel       string
	collision *Collision
}

// Run performs one merge pass of sourceRoot into destRoot, quarantining
// divergent collisions into inspectRoot. All three roots must already
// exist with the required permissions; that precondition is the only fatal
// failure. Per-path I/O errors, including unreadable subtrees found during
// the walk, are recorded on the Result and the pass continues.
// Cancellation stops scheduling new paths; in-flight copies
// finish or abort without leaving partial destination files, and Run
// returns the partial Result alongside ctx.Err().
func (m *Merger) Run(ctx context.Context, sourceRoot, destRoot, inspectRoot string) (*Result, error) {
	defer logging.Timer("merge")()

	if err := validation.Roots(sourceRoot, destRoot, inspectRoot, !m.opts.DryRun); err != nil {
		return nil, err
	}

	logging.Debug("starting merge pass",
		logging.Operation("merge"),
		slog.String("source", sourceRoot),
		slog.String("destination", destRoot),
		slog.String("inspection", inspectRoot),
		slog.Int("workers", m.opts.Workers),
		slog.String(logging.KeyAlgorithm, string(m.opts.Algorithm)),
		slog.Bool("dry_run", m.opts.DryRun),
	)

	diff, err := Diff(ctx, sourceRoot, destRoot)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &Result{DryRun: m.opts.DryRun}, err
		}
		return nil, err
	}

	result := &Result{
		SkippedNonRegular: diff.SkippedNonRegular,
		Errors:            diff.WalkErrors,
		DryRun:            m.opts.DryRun,
	}

	if m.opts.ProgressTotal != nil {
		m.opts.ProgressTotal(len(diff.New) + len(diff.Existing))
	}

	tasks := make(chan task)
	var wg sync.WaitGroup
	for range m.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				m.process(ctx, tk, sourceRoot, destRoot, inspectRoot, result)
				m.tick()
			}
		}()
	}

	// Paths are disjoint by construction, so scheduling order is
	// irrelevant to the outcome. Stop handing out work on cancellation.
feed:
	for _, rel := range diff.New {
		select {
		case tasks <- task{rel: rel}:
		case <-ctx.Done():
			break feed
		}
	}
	if ctx.Err() == nil {
	feedExisting:
		for i := range diff.Existing {
			select {
			case tasks <- task{collision: &diff.Existing[i]}:
			case <-ctx.Done():
				break feedExisting
			}
		}
	}
	close(tasks)
	wg.Wait()

	logging.Debug("merge pass completed",
		logging.Operation("merge"),
		logging.Count(result.TotalProcessed()),
	)

	return result, ctx.Err()
}

func (m *Merger) tick() {
	if m.opts.Progress == nil {
		return
	}
	m.progressMu.Lock()
	defer m.progressMu.Unlock()
	m.opts.Progress(1)
}

// process classifies and handles a single path.
func (m *Merger) process(ctx context.Context, tk task, sourceRoot, destRoot, inspectRoot string, result *Result) {
	if tk.collision == nil {
		m.processNew(ctx, tk.rel, sourceRoot, destRoot, result)
		return
	}
	m.processCollision(ctx, *tk.collision, sourceRoot, destRoot, inspectRoot, result)
}

func (m *Merger) processNew(ctx context.Context, rel, sourceRoot, destRoot string, result *Result) {
	if m.opts.Verbose {
		logging.Info("new file",
			logging.Path(rel),
			logging.Operation("copy_new"),
		)
	}

	if m.opts.DryRun {
		result.addCopiedNew(0)
		return
	}

	n, err := m.relocator.CopyNew(ctx, sourceRoot, destRoot, rel)
	if err != nil {
		result.addError(&PathError{Op: "copy_new", Path: rel, Err: err})
		logging.Error("failed to copy new file",
			logging.Path(rel),
			logging.Err(err),
		)
		return
	}
	result.addCopiedNew(n)
}

func (m *Merger) processCollision(ctx context.Context, c Collision, sourceRoot, destRoot, inspectRoot string, result *Result) {
	outcome, err := m.resolver.Resolve(ctx, sourceRoot, destRoot, c)
	if err != nil {
		result.addError(&PathError{Op: "resolve", Path: c.Rel, Err: err})
		logging.Error("failed to resolve collision",
			logging.Path(c.Rel),
			logging.Err(err),
		)
		return
	}

	if !outcome.Divergent {
		if m.opts.Verbose {
			logging.Info("identical content, skipping",
				logging.Path(c.Rel),
				logging.Operation("resolve"),
			)
		}
		result.addIdentical()
		return
	}

	if m.opts.Verbose {
		logging.Info("divergent content, quarantining",
			logging.Path(c.Rel),
			logging.Operation("quarantine"),
			logging.Digest(string(outcome.SourceDigest)),
		)
	}

	if m.opts.DryRun {
		result.addQuarantined(0)
		return
	}

	n, err := m.relocator.Quarantine(ctx, sourceRoot, inspectRoot, c.Rel, outcome.SourceDigest)
	if errors.Is(err, ErrQuarantineExists) {
		// Same divergent content already captured by an earlier pass.
		result.addQuarantineExists()
		logging.Warn("quarantine target already exists, source left untouched",
			logging.Path(c.Rel),
			logging.Digest(string(outcome.SourceDigest)),
		)
		return
	}
	if err != nil {
		result.addError(&PathError{Op: "quarantine", Path: c.Rel, Err: err})
		logging.Error("failed to quarantine divergent file",
			logging.Path(c.Rel),
			logging.Err(err),
		)
		return
	}
	result.addQuarantined(n)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/dirmerge/internal/config"
	"github.com/klauern/dirmerge/internal/logging"
	"github.com/klauern/dirmerge/internal/merge"
	"github.com/klauern/dirmerge/internal/progress"
	"github.com/klauern/dirmerge/internal/ui"
)

// runMerge is the root action: one merge pass, or the built-in self-test.
func runMerge(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("version") {
		printVersion()
		return nil
	}

	source := cmd.String("source")
	if source == "" {
		return &UsageError{Message: "missing required --source directory"}
	}

	cfg, err := config.LoadFrom(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Output.NoColor {
		ui.DisableColors()
	}

	opts := merge.DefaultOptions()
	opts.Workers = cfg.Merge.Workers
	opts.Algorithm = cfg.Algorithm()
	opts.DryRun = cmd.Bool("dry-run")
	opts.Verbose = cmd.Bool("verbose") || cmd.Bool("debug") || cfg.Output.Verbose

	if cmd.IsSet("workers") {
		opts.Workers = int(cmd.Int("workers"))
		if opts.Workers < 1 || opts.Workers > merge.MaxWorkers {
			return &UsageError{Message: fmt.Sprintf("--workers must be between 1 and %d", merge.MaxWorkers)}
		}
	}
	if cmd.IsSet("algorithm") {
		algo, err := merge.ParseAlgorithm(cmd.String("algorithm"))
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		opts.Algorithm = algo
	}

	if cmd.Bool("test") {
		return runSelfTest(ctx, source, opts)
	}

	dest := cmd.String("destination")
	inspect := cmd.String("inspection")
	if dest == "" {
		return &UsageError{Message: "missing required --destination directory"}
	}
	if inspect == "" {
		return &UsageError{Message: "missing required --inspection directory"}
	}

	// The bar is built once the diff reports how many paths the pass
	// will touch, so the count and elapsed-time rendering are real.
	var bar *progress.Bar
	opts.ProgressTotal = func(total int) {
		bar = progress.Simple(int64(total), "Merging")
	}
	opts.Progress = func(n int) {
		if bar != nil {
			_ = bar.Add(n)
		}
	}

	m := merge.New(opts)
	result, err := m.Run(ctx, source, dest, inspect)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Print(result.Summary())
	if result.Success() {
		fmt.Println(ui.StatusSuccess("merge pass complete"))
	} else {
		// Per-path errors are reported but never change the exit status.
		fmt.Println(ui.StatusWarning(fmt.Sprintf("merge pass completed with %d error(s)", result.ErrorCount())))
	}
	return nil
}

// runSelfTest runs the built-in checks in a sandbox seeded from the source
// tree. The destination and inspection directories named on the command
// line are never touched.
func runSelfTest(ctx context.Context, seedRoot string, opts merge.Options) error {
	if _, err := os.Stat(seedRoot); err != nil {
		return &UsageError{Message: fmt.Sprintf("invalid --source seed tree: %v", err)}
	}

	logging.Debug("running self-test", logging.Path(seedRoot))

	failed, err := merge.SelfTest(ctx, seedRoot, opts, os.Stdout)
	if err != nil {
		return fmt.Errorf("self-test aborted: %w", err)
	}
	if failed {
		return errors.New("self-test failed")
	}
	fmt.Println(ui.StatusSuccess("self-test passed"))
	return nil
}

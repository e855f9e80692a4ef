package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/hashcache"
	"github.com/matzehuels/lockbridge/pkg/lock"
	"github.com/matzehuels/lockbridge/pkg/project"
	"github.com/matzehuels/lockbridge/pkg/uv"
)

// lockOpts holds the command-line flags for the lock command.
type lockOpts struct {
	uvPath         string   // resolver executable
	interpreter    string   // python interpreter passed to the resolver
	updateStrategy string   // "reuse" or "all"
	tracked        []string // packages targeted by a partial update
	keepSelf       bool     // keep the project's own entry
	lowestDirect   bool     // resolve direct deps to their lowest versions
	noCache        bool     // disable the resolver cache for this run
	excludeNewer   string   // RFC 3339 freshness cutoff
	projectDir     string   // project root (default: working directory)
}

// newLockCmd creates the lock command. It builds the resolver argument
// list from the project configuration, runs the resolver, translates
// its lock output, and writes the lockbridge lock document.
func newLockCmd() *cobra.Command {
	opts := lockOpts{uvPath: "uv", updateStrategy: uv.UpdateReuse}

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve dependencies with uv and write the lock file",
		Long: `Resolve project dependencies through the external uv resolver.

The command reads pyproject.toml, builds a deterministic uv lock
invocation from the configured sources and policies, runs it in the
project root, and translates the resulting uv.lock into ` + lock.FileName + `.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runLock(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.uvPath, "uv", opts.uvPath, "uv executable to invoke")
	cmd.Flags().StringVarP(&opts.interpreter, "python", "p", "", "python interpreter for the resolver")
	cmd.Flags().StringVar(&opts.updateStrategy, "update-strategy", opts.updateStrategy, "update strategy (reuse|all)")
	cmd.Flags().StringArrayVarP(&opts.tracked, "update", "P", nil, "restrict updates to the given package (repeatable)")
	cmd.Flags().BoolVar(&opts.keepSelf, "keep-self", false, "keep the project's own entry in the lock file")
	cmd.Flags().BoolVar(&opts.lowestDirect, "lowest-direct", false, "resolve direct dependencies to their lowest compatible versions")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the resolver cache for this run")
	cmd.Flags().StringVar(&opts.excludeNewer, "exclude-newer", "", "ignore distributions published after this RFC 3339 timestamp")
	cmd.Flags().StringVarP(&opts.projectDir, "project", "C", "", "project root (default: current directory)")

	return cmd
}

func runLock(ctx context.Context, opts *lockOpts) error {
	logger := loggerFromContext(ctx)

	root := opts.projectDir
	if root == "" {
		var err error
		if root, err = os.Getwd(); err != nil {
			return err
		}
	}
	cfg, err := project.Load(root)
	if err != nil {
		return err
	}
	if opts.noCache {
		cfg.NoCache = true
	}

	var excludeNewer time.Time
	if opts.excludeNewer != "" {
		if excludeNewer, err = time.Parse(time.RFC3339, opts.excludeNewer); err != nil {
			return errors.New(errors.ErrCodeUsage, "invalid --exclude-newer value %q, expected RFC 3339 timestamp", opts.excludeNewer)
		}
	}
	if opts.updateStrategy != uv.UpdateReuse && opts.updateStrategy != uv.UpdateAll {
		return errors.New(errors.ErrCodeUsage, "invalid --update-strategy %q (expected reuse or all)", opts.updateStrategy)
	}

	args := uv.BuildLockCommand(cfg, uv.LockOptions{
		Command:        []string{opts.uvPath},
		Interpreter:    opts.interpreter,
		Verbosity:      verbosity(logger),
		UpdateStrategy: opts.updateStrategy,
		TrackedNames:   opts.tracked,
		KeepSelf:       opts.keepSelf,
		LowestDirect:   opts.lowestDirect,
		ExcludeNewer:   excludeNewer,
	})

	logger.Infof("Locking dependencies for %s", cfg.Name)
	runner := &uv.Runner{Root: root, Logger: logger}
	if err := runner.Run(ctx, args); err != nil {
		return err
	}

	hc, err := hashcache.New("")
	if err != nil {
		logger.Warnf("Hash cache unavailable: %v", err)
		hc = nil
	}

	prog := newProgress(logger)
	spin := newSpinner(ctx, "Translating lock output")
	spin.start()
	res, err := uv.ParseLock(ctx, filepath.Join(root, uv.LockFileName), uv.ParseOptions{
		ProjectName: cfg.Name,
		KeepSelf:    opts.keepSelf,
		Hashes:      hc,
	})
	spin.stop()
	if err != nil {
		return err
	}

	lock.InheritMetadata(res, cfg.GroupRoots())

	strategy := []string{lock.StrategyInheritMetadata}
	if opts.lowestDirect {
		strategy = append(strategy, lock.StrategyDirectMinimalVersions)
	}
	lf := &lock.Lockfile{
		Strategy:       strategy,
		Groups:         res.Groups,
		RequiresPython: cfg.RequiresPython,
		Resolution:     res,
	}
	if err := lock.Write(filepath.Join(root, lock.FileName), lf); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Locked %d packages", len(res.Packages)))
	printSuccess("Wrote %s", lock.FileName)
	return nil
}

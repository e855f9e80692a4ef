package uv

import (
	"sort"
	"time"

	"github.com/matzehuels/lockbridge/pkg/project"
)

// allSentinel in a no-binary/only-binary list applies the policy to
// every package instead of naming them individually.
const allSentinel = ":all:"

// Update strategies accepted by the lock command.
const (
	UpdateReuse = "reuse"
	UpdateAll   = "all"
)

// LockOptions carries the per-invocation knobs for one lock run, on
// top of the project configuration.
type LockOptions struct {
	Command        []string  // resolver executable and leading args, default {"uv"}
	Interpreter    string    // python interpreter path, default "python3"
	Verbosity      int       // > 0 adds --verbose
	UpdateStrategy string    // UpdateReuse or UpdateAll
	TrackedNames   []string  // packages targeted by a partial update
	KeepSelf       bool      // keep the project's own entry when parsing
	LowestDirect   bool      // direct-minimal-versions resolution
	ExcludeNewer   time.Time // freshness cutoff override, zero = use config
}

// BuildLockCommand deterministically builds the ordered argument list
// for the external resolver from the project configuration. Nothing is
// executed. Identical configuration yields a byte-identical argument
// sequence.
func BuildLockCommand(cfg *project.Config, opts LockOptions) []Arg {
	exe := opts.Command
	if len(exe) == 0 {
		exe = []string{"uv"}
	}
	interpreter := opts.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}

	var cmd []Arg
	for _, part := range exe {
		cmd = append(cmd, Plain(part))
	}
	cmd = append(cmd, Plain("lock"), Plain("-p"), Plain(interpreter))

	if opts.Verbosity > 0 {
		cmd = append(cmd, Plain("--verbose"))
	}
	if cfg.NoCache {
		cmd = append(cmd, Plain("--no-cache"))
	}

	firstIndex := true
	for i := range cfg.Sources {
		real, display := cfg.Sources[i].URLWithCredentials()
		arg := Plain(real)
		if real != display {
			arg = Secret(real, display)
		}
		switch {
		case cfg.Sources[i].Type == "find_links":
			cmd = append(cmd, Plain("--find-links"), arg)
		case firstIndex:
			cmd = append(cmd, Plain("--index-url"), arg)
			firstIndex = false
		default:
			cmd = append(cmd, Plain("--extra-index-url"), arg)
		}
	}
	if cfg.Resolution.RespectSourceOrder {
		cmd = append(cmd, Plain("--index-strategy=unsafe-first-match"))
	} else {
		cmd = append(cmd, Plain("--index-strategy=unsafe-best-match"))
	}

	if opts.UpdateStrategy != UpdateAll {
		for _, name := range opts.TrackedNames {
			cmd = append(cmd, Plain("-P"), Plain(name))
		}
	}
	if cfg.Resolution.AllowPrereleases {
		cmd = append(cmd, Plain("--prerelease=allow"))
	}

	if contains(cfg.Resolution.NoBinary, allSentinel) {
		cmd = append(cmd, Plain("--no-binary"))
	} else {
		for _, pkg := range cfg.Resolution.NoBinary {
			cmd = append(cmd, Plain("--no-binary-package"), Plain(pkg))
		}
	}
	if contains(cfg.Resolution.OnlyBinary, allSentinel) {
		cmd = append(cmd, Plain("--no-build"))
	} else {
		for _, pkg := range cfg.Resolution.OnlyBinary {
			cmd = append(cmd, Plain("--no-build-package"), Plain(pkg))
		}
	}

	if cfg.NoBuildIsolation {
		cmd = append(cmd, Plain("--no-build-isolation"))
	}

	// Map iteration order is random; sort for reproducible argv.
	keys := make([]string, 0, len(cfg.ConfigSettings))
	for k := range cfg.ConfigSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd = append(cmd, Plain("--config-setting"), Plain(k+"="+cfg.ConfigSettings[k]))
	}

	if opts.LowestDirect {
		cmd = append(cmd, Plain("--resolution=lowest-direct"))
	}

	if !opts.ExcludeNewer.IsZero() {
		cmd = append(cmd, Plain("--exclude-newer"), Plain(opts.ExcludeNewer.Format(time.RFC3339)))
	} else if cfg.Resolution.ExcludeNewer != "" {
		cmd = append(cmd, Plain("--exclude-newer"), Plain(cfg.Resolution.ExcludeNewer))
	}

	return cmd
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

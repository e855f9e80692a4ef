// Package export selects, deduplicates, and serializes a resolved
// package set into distributable formats.
//
// Two input modes exist: lock-derived (evaluated candidates from the
// lock document) and declared-only (plain requirements read straight
// from the project declarations, bypassing the lock). The lock-derived
// mode requires a lock document produced with the inherit-metadata
// strategy, because without propagated group and marker data the
// filter cannot be accurate.
package export

import (
	"sort"
	"strings"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/lock"
)

// Formats supported by the renderer.
const (
	FormatRequirements = "requirements"
	FormatPylock       = "pylock"
)

// Options controls filtering and rendering.
type Options struct {
	Format       string
	Groups       []string // requested dependency groups
	Hashes       bool     // include per-artifact hash annotations
	Markers      bool     // keep environment markers (deprecated toggle)
	Extras       bool     // keep extras variants
	ExpandVars   bool     // expand environment variables in output
	Self         bool     // include the project itself
	EditableSelf bool     // include the project itself as editable

	// Logger receives warnings about suspicious but non-fatal input,
	// such as an extras variant whose base entry is missing.
	Logger func(msg string, args ...any)
}

func (o *Options) warnf(msg string, args ...any) {
	if o.Logger != nil {
		o.Logger(msg, args...)
	}
}

// Candidates evaluates the lock document against the requested groups
// and returns the filtered, deduplicated candidate list in render
// order. The lock-derived packages are never mutated; marker stripping
// operates on copies in the returned list only.
func Candidates(lf *lock.Lockfile, opts Options) ([]*lock.Candidate, error) {
	if !lf.HasStrategy(lock.StrategyInheritMetadata) {
		return nil, errors.New(errors.ErrCodeLockStrategy,
			"can't export a lock file without environment markers, please re-generate the lock file with the %s strategy", lock.StrategyInheritMetadata)
	}
	requested := make(map[string]bool, len(opts.Groups))
	for _, g := range opts.Groups {
		if !containsGroup(lf.Groups, g) {
			return nil, errors.New(errors.ErrCodeUnknownGroup, "group %q is not locked (locked groups: %s)", g, strings.Join(lf.Groups, ", "))
		}
		requested[g] = true
	}

	baseSeen := make(map[string]bool)
	hasExtras := make(map[string]bool)
	var cands []*lock.Candidate
	for _, p := range lf.Resolution.Packages {
		if !selected(p.Groups, requested) {
			continue
		}
		if len(p.Candidate.Req.Extras) == 0 {
			baseSeen[p.Candidate.Key()] = true
		} else {
			hasExtras[p.Candidate.Key()] = true
		}
		cands = append(cands, p.Candidate)
	}

	// Base candidates sort before extras variants; the tie-break is
	// stable so document order survives within each half.
	sort.SliceStable(cands, func(i, j int) bool {
		return len(cands[i].Req.Extras) == 0 && len(cands[j].Req.Extras) > 0
	})

	var kept []*lock.Candidate
	for _, cand := range cands {
		key := cand.Key()
		if opts.Extras {
			if len(cand.Req.Extras) == 0 {
				// The extras variant carries an exact pin back to this
				// entry, so the plain line would be redundant.
				if hasExtras[key] {
					continue
				}
			} else if !baseSeen[key] {
				opts.warnf("extras variant %s has no base entry in the lock document; its version pin is dangling", cand.Req.AsLine())
			}
		} else if len(cand.Req.Extras) > 0 {
			continue
		}
		if !opts.Markers && cand.Req.Marker != "" {
			cand = cand.CopyWith(cand.Req.WithoutMarker())
		}
		kept = append(kept, cand)
	}
	return kept, nil
}

// selected reports whether a package belonging to groups matches the
// requested set. A package with no recorded groups is reachable from
// no root and is never selected.
func selected(groups []string, requested map[string]bool) bool {
	for _, g := range groups {
		if requested[g] {
			return true
		}
	}
	return false
}

func containsGroup(groups []string, g string) bool {
	for _, have := range groups {
		if have == g {
			return true
		}
	}
	return false
}

// Package lock models a resolved dependency set and its persisted form.
//
// The model mirrors the lock graph one level above raw requirement
// lines: a [Candidate] binds a requirement to a concrete resolved
// version and its artifact hashes, a [Package] is one resolvable unit
// (candidate, dependency lines, summary), and a [Resolution] is the
// full ordered package sequence produced by one resolver run.
//
// A Resolution is built linearly by a single caller and handed off
// immutably; export filtering always operates on derived lists.
package lock

import (
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

// Strategy flags recorded in the lock document. Export refuses lock
// documents missing StrategyInheritMetadata because per-package group
// and marker data is only available when it was propagated at lock
// time.
const (
	StrategyInheritMetadata       = "inherit_metadata"
	StrategyDirectMinimalVersions = "direct_minimal_versions"
)

// DefaultGroup is the dependency group holding [project.dependencies].
const DefaultGroup = "default"

// FileHash records one artifact's provenance and content hash.
type FileHash struct {
	URL  string `toml:"url"`
	File string `toml:"file"`
	Hash string `toml:"hash"`
}

// Candidate is a requirement bound to a concrete resolved name and
// version, carrying the ordered artifact hash records. A candidate is
// owned by its Package; sharing across entries happens only through
// [Candidate.CopyWith].
type Candidate struct {
	Req     *reqs.Requirement
	Name    string
	Version string
	Hashes  []FileHash
}

// NewCandidate binds req to the declared name and version.
func NewCandidate(req *reqs.Requirement, name, version string) *Candidate {
	return &Candidate{Req: req, Name: name, Version: version}
}

// CopyWith returns a copy of c bound to a different requirement. The
// hash records are shared read-only between the copies.
func (c *Candidate) CopyWith(req *reqs.Requirement) *Candidate {
	clone := *c
	clone.Req = req
	return &clone
}

// Key returns the normalized package key of the candidate.
func (c *Candidate) Key() string {
	return reqs.NormalizeName(c.Name)
}

// Package is one resolvable unit in the lock graph: a candidate plus
// its declared dependency requirement lines and a free-text summary.
// Groups lists the dependency groups that pull this package in; it is
// populated by [InheritMetadata] after parsing.
type Package struct {
	Candidate    *Candidate
	Dependencies []string // canonical requirement lines
	Summary      string
	Groups       []string
}

// Resolution is the ordered sequence of packages produced by one
// resolver run, plus the set of requested dependency groups.
type Resolution struct {
	Packages []*Package
	Groups   []string
}

// Add appends a package entry. Entries are only ever appended during
// parsing, never removed.
func (r *Resolution) Add(p *Package) {
	r.Packages = append(r.Packages, p)
}

package lock

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

// FileName is the lock document written next to pyproject.toml.
const FileName = "lockbridge.lock"

// lockVersion is the document schema version.
const lockVersion = "1.0"

// Lockfile is the persisted form of a Resolution plus the strategy
// flags and requested groups it was produced with.
type Lockfile struct {
	Strategy       []string
	Groups         []string
	RequiresPython string
	Resolution     *Resolution
}

// HasStrategy reports whether the lock document records the given
// strategy flag.
func (lf *Lockfile) HasStrategy(flag string) bool {
	for _, s := range lf.Strategy {
		if s == flag {
			return true
		}
	}
	return false
}

// lockDoc is the TOML shape of the lock document.
type lockDoc struct {
	LockVersion    string        `toml:"lock-version"`
	CreatedBy      string        `toml:"created-by"`
	Strategy       []string      `toml:"strategy"`
	Groups         []string      `toml:"groups"`
	RequiresPython string        `toml:"requires-python,omitempty"`
	Package        []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name         string     `toml:"name"`
	Version      string     `toml:"version"`
	Requirement  string     `toml:"requirement"`
	Ref          string     `toml:"ref,omitempty"`
	Revision     string     `toml:"revision,omitempty"`
	Summary      string     `toml:"summary,omitempty"`
	Groups       []string   `toml:"groups,omitempty"`
	Dependencies []string   `toml:"dependencies,omitempty"`
	Files        []FileHash `toml:"files,omitempty"`
}

// Write persists the lockfile at path. The document is assembled fully
// in memory and written in a single call, so a failed write never
// leaves a partial lock document behind.
func Write(path string, lf *Lockfile) error {
	doc := lockDoc{
		LockVersion:    lockVersion,
		CreatedBy:      "lockbridge",
		Strategy:       lf.Strategy,
		Groups:         lf.Groups,
		RequiresPython: lf.RequiresPython,
	}
	for _, p := range lf.Resolution.Packages {
		doc.Package = append(doc.Package, lockPackage{
			Name:         p.Candidate.Name,
			Version:      p.Candidate.Version,
			Requirement:  p.Candidate.Req.AsLine(),
			Ref:          p.Candidate.Req.Ref,
			Revision:     p.Candidate.Req.Revision,
			Summary:      p.Summary,
			Groups:       p.Groups,
			Dependencies: p.Dependencies,
			Files:        p.Candidate.Hashes,
		})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode lock document")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// Read loads a lock document from path. A missing file is a usage
// error instructing the operator to lock first; an unparsable document
// is fatal with no partial result.
func Read(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNoLockfile, "no lock file found, please run `lockbridge lock` first")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	var doc lockDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "unparsable lock document %s", path)
	}

	res := &Resolution{Groups: doc.Groups}
	for _, p := range doc.Package {
		req, err := reqs.Parse(p.Requirement)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "lock entry %s", p.Name)
		}
		// The canonical line renders only the resolved revision; the
		// requested ref and revision travel as explicit fields.
		if p.Revision != "" {
			req.Ref = p.Ref
			req.Revision = p.Revision
		}
		cand := NewCandidate(req, p.Name, p.Version)
		cand.Hashes = p.Files
		res.Add(&Package{
			Candidate:    cand,
			Dependencies: p.Dependencies,
			Summary:      p.Summary,
			Groups:       p.Groups,
		})
	}
	return &Lockfile{
		Strategy:       doc.Strategy,
		Groups:         doc.Groups,
		RequiresPython: doc.RequiresPython,
		Resolution:     res,
	}, nil
}

package export

import (
	"bytes"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/lock"
	"github.com/matzehuels/lockbridge/pkg/project"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

// pylockVersion is the structured lock schema version we emit.
const pylockVersion = "1.0"

// pylockDoc mirrors the standardized structured lock layout: a flat
// package list with explicit version, source provenance, artifact
// hashes, and dependency back-references, ordered for deterministic
// diffing.
type pylockDoc struct {
	LockVersion    string      `toml:"lock-version"`
	CreatedBy      string      `toml:"created-by"`
	RequiresPython string      `toml:"requires-python,omitempty"`
	Packages       []pylockPkg `toml:"packages"`
}

type pylockPkg struct {
	Name         string       `toml:"name"`
	Version      string       `toml:"version,omitempty"`
	Marker       string       `toml:"marker,omitempty"`
	Index        string       `toml:"index,omitempty"`
	VCS          *pylockVCS   `toml:"vcs,omitempty"`
	Directory    *pylockDir   `toml:"directory,omitempty"`
	ArchiveURL   string       `toml:"archive-url,omitempty"`
	Dependencies []pylockDep  `toml:"dependencies,omitempty"`
	Files        []pylockFile `toml:"files,omitempty"`
}

type pylockVCS struct {
	Type              string `toml:"type"`
	URL               string `toml:"url"`
	RequestedRevision string `toml:"requested-revision,omitempty"`
	CommitID          string `toml:"commit-id,omitempty"`
}

type pylockDir struct {
	Path     string `toml:"path"`
	Editable bool   `toml:"editable,omitempty"`
}

type pylockDep struct {
	Name string `toml:"name"`
}

type pylockFile struct {
	Name string `toml:"name"`
	URL  string `toml:"url,omitempty"`
	Hash string `toml:"hash"`
}

// RenderPylock serializes the lock document in the structured lock
// format. Extras variants collapse into their base entry (their pins
// are back-references, not standalone packages). When self-inclusion
// is requested, the project itself is synthesized as an additional
// entry; this is the only serializer that supports it.
func RenderPylock(lf *lock.Lockfile, cfg *project.Config, opts Options) (string, error) {
	doc := pylockDoc{
		LockVersion:    pylockVersion,
		CreatedBy:      "lockbridge",
		RequiresPython: lf.RequiresPython,
	}

	if opts.Self || opts.EditableSelf {
		if cfg == nil || cfg.Name == "" {
			return "", errors.New(errors.ErrCodeInvalidProject, "cannot include the project itself: no project name configured")
		}
		doc.Packages = append(doc.Packages, pylockPkg{
			Name:      cfg.NormalizedName(),
			Version:   cfg.Version,
			Directory: &pylockDir{Path: ".", Editable: opts.EditableSelf},
		})
	}

	for _, p := range lf.Resolution.Packages {
		if len(p.Candidate.Req.Extras) > 0 {
			continue
		}
		doc.Packages = append(doc.Packages, pylockEntry(p))
	}
	sort.SliceStable(doc.Packages, func(i, j int) bool {
		return doc.Packages[i].Name < doc.Packages[j].Name
	})

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode structured lock")
	}
	return buf.String(), nil
}

func pylockEntry(p *lock.Package) pylockPkg {
	req := p.Candidate.Req
	entry := pylockPkg{
		Name:    p.Candidate.Key(),
		Version: p.Candidate.Version,
		Marker:  req.Marker,
	}
	switch req.Kind {
	case reqs.KindVCS:
		vcsType, repo := splitVCSURL(req.URL)
		entry.VCS = &pylockVCS{
			Type:              vcsType,
			URL:               repo,
			RequestedRevision: req.Ref,
			CommitID:          req.Revision,
		}
	case reqs.KindFile:
		if req.Path != "" {
			entry.Directory = &pylockDir{Path: req.Path, Editable: req.Editable}
		} else {
			entry.ArchiveURL = req.URL
		}
	}
	for _, dep := range p.Dependencies {
		r, err := reqs.Parse(dep)
		if err != nil || r.Key() == "" {
			continue
		}
		entry.Dependencies = append(entry.Dependencies, pylockDep{Name: r.Key()})
	}
	for _, fh := range p.Candidate.Hashes {
		entry.Files = append(entry.Files, pylockFile{Name: fh.File, URL: fh.URL, Hash: fh.Hash})
	}
	return entry
}

// splitVCSURL separates the "<vcs>+" scheme prefix from a VCS
// requirement URL, so the entry records the type once and the URL stays
// a plain transport URL.
func splitVCSURL(url string) (vcsType, repo string) {
	if scheme, rest, ok := strings.Cut(url, "+"); ok && strings.Contains(rest, "://") {
		return scheme, rest
	}
	return "git", url
}

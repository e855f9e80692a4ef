package uv

import (
	"context"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/hashcache"
	"github.com/matzehuels/lockbridge/pkg/lock"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

// LockFileName is the document the resolver writes into the project root.
const LockFileName = "uv.lock"

// uvLock mirrors the uv.lock package table. The source descriptor is
// open-ended: exactly one of its fields is present per record, and each
// field maps to one requirement constructor.
type uvLock struct {
	Package []uvPackage `toml:"package"`
}

type uvPackage struct {
	Name         string             `toml:"name"`
	Version      string             `toml:"version"`
	Source       uvSource           `toml:"source"`
	Dependencies []uvDep            `toml:"dependencies"`
	OptionalDeps map[string][]uvDep `toml:"optional-dependencies"`
	Wheels       []uvArtifact       `toml:"wheels"`
	Sdist        *uvArtifact        `toml:"sdist"`
}

type uvSource struct {
	Registry string `toml:"registry"`
	URL      string `toml:"url"`
	Git      string `toml:"git"`
	Editable string `toml:"editable"`
	Path     string `toml:"path"`
	Virtual  string `toml:"virtual"`
}

type uvDep struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Marker  string   `toml:"marker"`
	Extra   []string `toml:"extra"`
}

type uvArtifact struct {
	URL  string `toml:"url"`
	Hash string `toml:"hash"`
}

// ParseOptions controls lock document translation.
type ParseOptions struct {
	ProjectName string           // skip this package's own record (normalized match)
	KeepSelf    bool             // keep the project's entry when its source is concrete
	Hashes      *hashcache.Cache // fallback for artifacts without a recorded hash
}

// ParseLock reads the resolver's lock document and reconstructs the
// full package sequence. Parsing is all-or-nothing: a malformed VCS
// reference or failed hash lookup aborts with no partial resolution.
func ParseLock(ctx context.Context, lockPath string, opts ParseOptions) (*lock.Resolution, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "read %s", lockPath)
	}
	var doc uvLock
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "unparsable lock document %s", lockPath)
	}

	selfKey := reqs.NormalizeName(opts.ProjectName)
	res := &lock.Resolution{}
	for i := range doc.Package {
		pkg := &doc.Package[i]
		if selfKey != "" && reqs.NormalizeName(pkg.Name) == selfKey &&
			(!opts.KeepSelf || pkg.Source.Virtual != "") {
			continue
		}

		req, err := sourceRequirement(pkg)
		if err != nil {
			return nil, err
		}
		cand := lock.NewCandidate(req, pkg.Name, pkg.Version)

		artifacts := pkg.Wheels
		if pkg.Sdist != nil {
			artifacts = append(artifacts, *pkg.Sdist)
		}
		for _, a := range artifacts {
			fh, err := makeHash(ctx, a, opts.Hashes)
			if err != nil {
				return nil, err
			}
			cand.Hashes = append(cand.Hashes, fh)
		}

		deps := make([]string, 0, len(pkg.Dependencies))
		for _, dep := range pkg.Dependencies {
			line, err := depLine(dep)
			if err != nil {
				return nil, err
			}
			deps = append(deps, line)
		}
		res.Add(&lock.Package{Candidate: cand, Dependencies: deps})

		// Each extras group yields a synthetic entry pinned back to the
		// base candidate's exact version.
		groups := make([]string, 0, len(pkg.OptionalDeps))
		for group := range pkg.OptionalDeps {
			groups = append(groups, group)
		}
		sort.Strings(groups)
		for _, group := range groups {
			extraDeps := []string{req.Key() + "==" + cand.Version}
			for _, dep := range pkg.OptionalDeps[group] {
				line, err := depLine(dep)
				if err != nil {
					return nil, err
				}
				extraDeps = append(extraDeps, line)
			}
			res.Add(&lock.Package{
				Candidate:    cand.CopyWith(req.WithExtras(group)),
				Dependencies: extraDeps,
			})
		}
	}
	return res, nil
}

// sourceRequirement maps a lock record's source descriptor to the
// matching requirement variant.
func sourceRequirement(pkg *uvPackage) (*reqs.Requirement, error) {
	src := pkg.Source
	switch {
	case src.URL != "":
		return reqs.FromURL(src.URL, pkg.Name)
	case src.Git != "":
		ref, err := reqs.ParseVCSRef(src.Git)
		if err != nil {
			return nil, err
		}
		repo := ref.Repo
		if !strings.Contains(repo[:strings.Index(repo, "://")], "+") {
			repo = "git+" + repo
		}
		req, err := reqs.FromURL(repo, pkg.Name)
		if err != nil {
			return nil, err
		}
		req.Ref = ref.Ref
		req.Revision = ref.Revision
		return req, nil
	case src.Editable != "":
		return reqs.FromPath(src.Editable, pkg.Name, true), nil
	case src.Path != "":
		return reqs.FromPath(src.Path, pkg.Name, false), nil
	default:
		return reqs.Pinned(pkg.Name, pkg.Version)
	}
}

// depLine renders an inter-package dependency record as a canonical
// requirement line.
func depLine(dep uvDep) (string, error) {
	var req *reqs.Requirement
	var err error
	if dep.Version != "" {
		req, err = reqs.Pinned(dep.Name, dep.Version)
	} else {
		req, err = reqs.Named(dep.Name, "")
	}
	if err != nil {
		return "", err
	}
	if len(dep.Extra) > 0 {
		req = req.WithExtras(dep.Extra...)
	}
	req.Marker = dep.Marker
	return req.AsLine(), nil
}

// makeHash resolves one artifact's hash record, trusting the recorded
// hash and falling back to the hash cache when the document omits it.
func makeHash(ctx context.Context, a uvArtifact, cache *hashcache.Cache) (lock.FileHash, error) {
	hash := a.Hash
	if hash == "" {
		if cache == nil {
			return lock.FileHash{}, errors.New(errors.ErrCodeHashResolution, "no hash recorded for %s and no hash cache available", a.URL)
		}
		var err error
		hash, err = cache.Get(ctx, a.URL)
		if err != nil {
			return lock.FileHash{}, err
		}
	}
	return lock.FileHash{URL: a.URL, File: artifactFilename(a.URL), Hash: hash}, nil
}

// artifactFilename extracts the filename from an artifact URL,
// stripping query and fragment parts.
func artifactFilename(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(raw)
}

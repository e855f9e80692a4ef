// Package reqs models Python dependency specifiers.
//
// A [Requirement] is a typed representation of one dependency line: a
// package by name and version constraint, a local file or archive URL,
// or a VCS reference. Requirements render to a canonical single-line
// textual form via [Requirement.AsLine], and [Parse] reconstructs an
// equivalent Requirement from that form.
//
// Package names are normalized following PEP 503 (lowercase, runs of
// ".", "-", "_" collapsed to a single hyphen) via [NormalizeName].
package reqs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/matzehuels/lockbridge/pkg/errors"
)

// Kind selects the requirement variant. Exactly one of the variant
// field sets {Specifier}, {Path or archive URL}, {VCS URL} is populated
// per instance.
type Kind int

const (
	// KindNamed is a registry package selected by name and version specifier.
	KindNamed Kind = iota
	// KindFile is a local path or direct archive URL.
	KindFile
	// KindVCS is a version-control reference (git, hg, svn, bzr).
	KindVCS
)

var (
	normalizeRE = regexp.MustCompile(`[-_.]+`)

	// versionRE accepts PEP 440 release forms with optional pre/post/dev
	// segments and local version labels.
	versionRE = regexp.MustCompile(`^v?\d+(\.\d+)*((a|b|c|rc)\d+)?(\.post\d+)?(\.dev\d+)?(\+[a-zA-Z0-9]+(\.[a-zA-Z0-9]+)*)?$`)

	// clauseRE matches one comparison clause of a version specifier.
	clauseRE = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)\s*[a-zA-Z0-9*+!.\-]+$`)

	nameRE = regexp.MustCompile(`^([a-zA-Z0-9][a-zA-Z0-9._-]*)(?:\[([^\]]*)\])?$`)

	namedLineRE = regexp.MustCompile(`^([a-zA-Z0-9][a-zA-Z0-9._-]*)(?:\[([^\]]*)\])?\s*([^;]*?)\s*(?:;\s*(.+))?$`)
)

// vcsSchemes lists the version-control prefixes recognized in URLs
// of the form "<vcs>+<transport>://...".
var vcsSchemes = []string{"git", "hg", "svn", "bzr"}

// NormalizeName returns the PEP 503 normalized form of a package name.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRE.ReplaceAllString(name, "-"))
}

// Requirement is a single dependency specifier.
//
// The zero value is not useful; construct instances with [Named],
// [Pinned], [FromURL], [FromPath] or [Parse]. Requirements are treated
// as immutable after construction: derive modified instances with
// [Requirement.WithExtras] and [Requirement.WithoutMarker] instead of
// assigning fields on a shared value.
type Requirement struct {
	Kind      Kind
	Name      string
	Extras    []string // sorted, may be nil
	Specifier string   // version constraint, e.g. "==2.31.0" (KindNamed)
	Marker    string   // environment marker expression, opaque
	URL       string   // archive URL (KindFile) or "<vcs>+<url>" without ref (KindVCS)
	Ref       string   // requested VCS ref (branch, tag)
	Revision  string   // resolved VCS revision
	Path      string   // local path (KindFile)
	Editable  bool
}

// Key returns the normalized package key used for deduplication and
// cross-references. Empty when the name is unknown (anonymous editable
// paths).
func (r *Requirement) Key() string {
	return NormalizeName(r.Name)
}

// Named creates a registry requirement with an optional version
// specifier such as ">=1.2,<2". An empty specifier means any version.
func Named(name, specifier string) (*Requirement, error) {
	specifier = strings.TrimSpace(specifier)
	if specifier != "" {
		for _, clause := range strings.Split(specifier, ",") {
			if !clauseRE.MatchString(strings.TrimSpace(clause)) {
				return nil, errors.New(errors.ErrCodeInvalidSpecifier, "invalid version specifier %q for %s", specifier, name)
			}
		}
	}
	return &Requirement{Kind: KindNamed, Name: name, Specifier: specifier}, nil
}

// Pinned creates a registry requirement pinned to an exact version.
// The version must be a valid release form; anything else fails with
// an INVALID_SPECIFIER error.
func Pinned(name, version string) (*Requirement, error) {
	if !versionRE.MatchString(version) {
		return nil, errors.New(errors.ErrCodeInvalidSpecifier, "invalid exact pin %q for %s", version, name)
	}
	return &Requirement{Kind: KindNamed, Name: name, Specifier: "==" + version}, nil
}

// FromURL creates a requirement from a direct URL. VCS-prefixed URLs
// ("git+https://...", optionally with a trailing "@ref") produce a VCS
// requirement; anything else is treated as a plain archive URL.
func FromURL(url, name string) (*Requirement, error) {
	if scheme, rest, ok := strings.Cut(url, "+"); ok && isVCSScheme(scheme) && strings.Contains(rest, "://") {
		repo, ref := splitRef(url)
		return &Requirement{Kind: KindVCS, Name: name, URL: repo, Ref: ref}, nil
	}
	return &Requirement{Kind: KindFile, Name: name, URL: url}, nil
}

// FromPath creates a requirement for a local file or directory.
func FromPath(path, name string, editable bool) *Requirement {
	return &Requirement{Kind: KindFile, Name: name, Path: path, Editable: editable}
}

// WithExtras returns a copy of r with the given extras attached,
// sorted. The receiver is not modified.
func (r *Requirement) WithExtras(extras ...string) *Requirement {
	clone := *r
	clone.Extras = append([]string(nil), extras...)
	sort.Strings(clone.Extras)
	return &clone
}

// WithoutMarker returns a copy of r with the marker cleared. The
// receiver is not modified; export filtering relies on this to avoid
// mutating the shared lock-derived requirement.
func (r *Requirement) WithoutMarker() *Requirement {
	clone := *r
	clone.Marker = ""
	return &clone
}

// AsLine renders the canonical single-line textual form. The rendering
// is deterministic: extras are sorted, separators are fixed, and the
// marker (if any) is appended as " ; marker".
func (r *Requirement) AsLine() string {
	var b strings.Builder
	switch r.Kind {
	case KindVCS:
		b.WriteString(r.Key())
		b.WriteString(extrasSuffix(r.Extras))
		b.WriteString(" @ ")
		b.WriteString(r.URL)
		if rev := r.pin(); rev != "" {
			b.WriteString("@")
			b.WriteString(rev)
		}
	case KindFile:
		if r.Editable {
			b.WriteString("-e ")
			if r.Path != "" {
				b.WriteString(r.Path)
			} else {
				b.WriteString(r.URL)
			}
			return b.String()
		}
		b.WriteString(r.Key())
		b.WriteString(extrasSuffix(r.Extras))
		b.WriteString(" @ ")
		if r.URL != "" {
			b.WriteString(r.URL)
		} else {
			b.WriteString(r.Path)
		}
	default:
		b.WriteString(r.Key())
		b.WriteString(extrasSuffix(r.Extras))
		b.WriteString(r.Specifier)
	}
	if r.Marker != "" {
		b.WriteString(" ; ")
		b.WriteString(r.Marker)
	}
	return b.String()
}

// pin returns the VCS revision to render: the resolved revision when
// known, otherwise the requested ref.
func (r *Requirement) pin() string {
	if r.Revision != "" {
		return r.Revision
	}
	return r.Ref
}

// Equivalent reports whether two requirements denote the same
// dependency: same key, specifier (ignoring whitespace), extras set,
// marker, and source location.
func (r *Requirement) Equivalent(o *Requirement) bool {
	if r.Kind != o.Kind || r.Key() != o.Key() || r.Marker != o.Marker {
		return false
	}
	if stripSpace(r.Specifier) != stripSpace(o.Specifier) {
		return false
	}
	if len(r.Extras) != len(o.Extras) {
		return false
	}
	for i := range r.Extras {
		if r.Extras[i] != o.Extras[i] {
			return false
		}
	}
	return r.URL == o.URL && r.Path == o.Path && r.Editable == o.Editable
}

// Parse reconstructs a Requirement from its canonical line form. It
// accepts named requirements ("name[extras]spec ; marker"), direct
// references ("name @ url ; marker") and editable installs ("-e path").
func Parse(line string) (*Requirement, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, errors.New(errors.ErrCodeInvalidLine, "empty requirement line")
	}

	if rest, ok := strings.CutPrefix(line, "-e "); ok {
		return FromPath(strings.TrimSpace(rest), "", true), nil
	}

	if namePart, refPart, ok := strings.Cut(line, " @ "); ok {
		return parseDirect(namePart, refPart)
	}

	m := namedLineRE.FindStringSubmatch(line)
	if m == nil {
		return nil, errors.New(errors.ErrCodeInvalidLine, "unparsable requirement line %q", line)
	}
	req, err := Named(m[1], m[3])
	if err != nil {
		return nil, err
	}
	if m[2] != "" {
		req = req.WithExtras(splitExtras(m[2])...)
	}
	req.Marker = strings.TrimSpace(m[4])
	return req, nil
}

// parseDirect handles "name[extras] @ url-or-path [; marker]" lines.
func parseDirect(namePart, refPart string) (*Requirement, error) {
	marker := ""
	if ref, m, ok := strings.Cut(refPart, " ; "); ok {
		refPart, marker = strings.TrimSpace(ref), strings.TrimSpace(m)
	}
	nm := nameRE.FindStringSubmatch(strings.TrimSpace(namePart))
	if nm == nil {
		return nil, errors.New(errors.ErrCodeInvalidLine, "invalid requirement name %q", namePart)
	}

	var req *Requirement
	var err error
	if strings.Contains(refPart, "://") {
		req, err = FromURL(refPart, nm[1])
		if err != nil {
			return nil, err
		}
	} else {
		req = FromPath(refPart, nm[1], false)
	}
	if nm[2] != "" {
		req = req.WithExtras(splitExtras(nm[2])...)
	}
	req.Marker = marker
	return req, nil
}

func isVCSScheme(s string) bool {
	for _, v := range vcsSchemes {
		if s == v {
			return true
		}
	}
	return false
}

// splitRef separates a trailing "@ref" from a VCS URL. Only an "@"
// after the last path separator counts, so user-info in the authority
// part is left alone.
func splitRef(url string) (repo, ref string) {
	slash := strings.LastIndex(url, "/")
	if at := strings.LastIndex(url, "@"); at > slash {
		return url[:at], url[at+1:]
	}
	return url, ""
}

func extrasSuffix(extras []string) string {
	if len(extras) == 0 {
		return ""
	}
	sorted := append([]string(nil), extras...)
	sort.Strings(sorted)
	return fmt.Sprintf("[%s]", strings.Join(sorted, ","))
}

func splitExtras(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripSpace(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

package reqs

import (
	"regexp"

	"github.com/matzehuels/lockbridge/pkg/errors"
)

// vcsRefRE matches the combined "repo?rev=REF#REVISION" form emitted by
// the external resolver's lock document. The trailing revision is a
// required lowercase hex string; a reference without it is malformed.
var vcsRefRE = regexp.MustCompile(`^([^:/]+://[^?#]+)(?:\?rev=([^#]+))?#([a-f0-9]+)$`)

// VCSRef is the decomposed form of a lock document VCS source string.
type VCSRef struct {
	Repo     string // repository URL, scheme included, no ref or revision
	Ref      string // requested ref (branch or tag), may be empty
	Revision string // resolved hex revision, never empty
}

// ParseVCSRef parses a combined URL+ref+revision string with a strict
// pattern. The expected shape is "scheme://host/path[?rev=REF]#REVISION"
// where REVISION is lowercase hex. A mismatch fails with an
// INVALID_VCS_REF error and is fatal for the enclosing parse.
func ParseVCSRef(raw string) (VCSRef, error) {
	m := vcsRefRE.FindStringSubmatch(raw)
	if m == nil {
		return VCSRef{}, errors.New(errors.ErrCodeInvalidVcsRef, "invalid VCS reference %q", raw)
	}
	return VCSRef{Repo: m[1], Ref: m[2], Revision: m[3]}, nil
}

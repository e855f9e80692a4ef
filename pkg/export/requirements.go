package export

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/matzehuels/lockbridge/pkg/lock"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

const requirementsHeader = "# This file is @generated by lockbridge.\n# Please do not edit it manually.\n\n"

// RenderRequirements serializes the filtered candidate list in
// requirements.txt form: one canonical requirement line per kept
// entry, optionally followed by a hash annotation per artifact.
func RenderRequirements(cands []*lock.Candidate, opts Options) string {
	expand := expander(opts)
	var b strings.Builder
	b.WriteString(requirementsHeader)
	for _, cand := range cands {
		b.WriteString(expand(cand.Req.AsLine()))
		if opts.Hashes {
			for _, fh := range cand.Hashes {
				b.WriteString(" \\\n    --hash=")
				b.WriteString(fh.Hash)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderDeclared serializes plain requirements drawn directly from the
// project declarations (declared-only mode). Hashes are not available
// in this mode; markers still honor the marker toggle.
func RenderDeclared(rs []*reqs.Requirement, opts Options) string {
	expand := expander(opts)
	var b strings.Builder
	b.WriteString(requirementsHeader)
	for _, r := range rs {
		if !opts.Markers && r.Marker != "" {
			r = r.WithoutMarker()
		}
		b.WriteString(expand(r.AsLine()))
		b.WriteString("\n")
	}
	return b.String()
}

// expander returns the line transformation for the expandvars toggle.
// Variables from a project .env file are loaded into the environment
// first, so ${VAR} references in requirement URLs resolve the same way
// they would at install time.
func expander(opts Options) func(string) string {
	if !opts.ExpandVars {
		return func(s string) string { return s }
	}
	_ = godotenv.Load() // best effort; a missing .env is fine
	return os.ExpandEnv
}

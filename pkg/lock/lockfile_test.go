package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

func mustPinned(t *testing.T, name, version string) *reqs.Requirement {
	t.Helper()
	req, err := reqs.Pinned(name, version)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestWriteReadRoundTrip(t *testing.T) {
	res := &Resolution{}
	cand := NewCandidate(mustPinned(t, "requests", "2.31.0"), "requests", "2.31.0")
	cand.Hashes = []FileHash{{
		URL:  "https://files.example.com/requests-2.31.0-py3-none-any.whl",
		File: "requests-2.31.0-py3-none-any.whl",
		Hash: "sha256:abc123",
	}}
	res.Add(&Package{
		Candidate:    cand,
		Dependencies: []string{"urllib3==2.1.0"},
		Summary:      "HTTP for humans",
		Groups:       []string{DefaultGroup},
	})
	extra := cand.CopyWith(cand.Req.WithExtras("socks"))
	res.Add(&Package{
		Candidate:    extra,
		Dependencies: []string{"requests==2.31.0", "pysocks==1.7.1"},
		Groups:       []string{DefaultGroup},
	})

	path := filepath.Join(t.TempDir(), FileName)
	in := &Lockfile{
		Strategy:       []string{StrategyInheritMetadata},
		Groups:         []string{DefaultGroup},
		RequiresPython: ">=3.9",
		Resolution:     res,
	}
	if err := Write(path, in); err != nil {
		t.Fatal(err)
	}

	out, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasStrategy(StrategyInheritMetadata) {
		t.Error("strategy flag lost in round trip")
	}
	if out.RequiresPython != ">=3.9" {
		t.Errorf("requires-python = %q", out.RequiresPython)
	}
	if len(out.Resolution.Packages) != 2 {
		t.Fatalf("packages = %d, want 2", len(out.Resolution.Packages))
	}
	got := out.Resolution.Packages[0]
	if !got.Candidate.Req.Equivalent(cand.Req) {
		t.Errorf("requirement changed: %q", got.Candidate.Req.AsLine())
	}
	if got.Summary != "HTTP for humans" {
		t.Errorf("summary = %q", got.Summary)
	}
	if len(got.Candidate.Hashes) != 1 || got.Candidate.Hashes[0].Hash != "sha256:abc123" {
		t.Errorf("hashes = %+v", got.Candidate.Hashes)
	}
	if line := out.Resolution.Packages[1].Candidate.Req.AsLine(); line != "requests[socks]==2.31.0" {
		t.Errorf("extras entry = %q", line)
	}
}

func TestWriteReadRoundTrip_VCS(t *testing.T) {
	req, err := reqs.FromURL("git+https://example.com/mylib.git", "mylib")
	if err != nil {
		t.Fatal(err)
	}
	req.Ref = "main"
	req.Revision = "abcdef1234567890"

	res := &Resolution{}
	res.Add(&Package{
		Candidate: NewCandidate(req, "mylib", "0.2.0"),
		Groups:    []string{DefaultGroup},
	})
	path := filepath.Join(t.TempDir(), FileName)
	in := &Lockfile{
		Strategy:   []string{StrategyInheritMetadata},
		Groups:     []string{DefaultGroup},
		Resolution: res,
	}
	if err := Write(path, in); err != nil {
		t.Fatal(err)
	}

	out, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	got := out.Resolution.Packages[0].Candidate.Req
	if got.Kind != reqs.KindVCS || got.URL != "git+https://example.com/mylib.git" {
		t.Errorf("requirement = %+v", got)
	}
	if got.Ref != "main" {
		t.Errorf("Ref = %q, want the requested branch", got.Ref)
	}
	if got.Revision != "abcdef1234567890" {
		t.Errorf("Revision = %q, want the resolved commit", got.Revision)
	}
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, errors.ErrCodeNoLockfile) {
		t.Fatalf("err = %v, want USAGE_NO_LOCKFILE", err)
	}
}

func TestRead_Unparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path)
	if !errors.Is(err, errors.ErrCodeInvalidLockfile) {
		t.Fatalf("err = %v, want INVALID_LOCKFILE", err)
	}
}

func TestHasStrategy(t *testing.T) {
	lf := &Lockfile{Strategy: []string{StrategyDirectMinimalVersions}}
	if lf.HasStrategy(StrategyInheritMetadata) {
		t.Error("unexpected strategy flag")
	}
	if !lf.HasStrategy(StrategyDirectMinimalVersions) {
		t.Error("missing recorded strategy flag")
	}
}

package uv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

func writeLock(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), LockFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseLock_Registry(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "requests"
version = "2.31.0"
source = { registry = "https://pypi.org/simple" }
dependencies = [
    { name = "urllib3", version = "2.1.0" },
    { name = "idna", version = "3.6", marker = "python_version >= \"3.8\"" },
]
wheels = [
    { url = "https://files.example.com/requests-2.31.0-py3-none-any.whl", hash = "sha256:abc123" },
]
sdist = { url = "https://files.example.com/requests-2.31.0.tar.gz", hash = "sha256:def456" }

[[package]]
name = "urllib3"
version = "2.1.0"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "idna"
version = "3.6"
source = { registry = "https://pypi.org/simple" }
`)
	res, err := ParseLock(context.Background(), path, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Packages) != 3 {
		t.Fatalf("packages = %d, want 3", len(res.Packages))
	}

	req := res.Packages[0]
	if got := req.Candidate.Req.AsLine(); got != "requests==2.31.0" {
		t.Errorf("candidate line = %q", got)
	}
	wantDeps := []string{
		"urllib3==2.1.0",
		`idna==3.6 ; python_version >= "3.8"`,
	}
	for i, want := range wantDeps {
		if req.Dependencies[i] != want {
			t.Errorf("dep[%d] = %q, want %q", i, req.Dependencies[i], want)
		}
	}
	if len(req.Candidate.Hashes) != 2 {
		t.Fatalf("hashes = %d, want 2", len(req.Candidate.Hashes))
	}
	wheel := req.Candidate.Hashes[0]
	if wheel.File != "requests-2.31.0-py3-none-any.whl" || wheel.Hash != "sha256:abc123" {
		t.Errorf("wheel hash record = %+v", wheel)
	}
	if sdist := req.Candidate.Hashes[1]; sdist.File != "requests-2.31.0.tar.gz" {
		t.Errorf("sdist filename = %q", sdist.File)
	}
}

func TestParseLock_ExtrasOrdering(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "pkg"
version = "1.0"
source = { registry = "https://pypi.org/simple" }
dependencies = [{ name = "core", version = "0.1" }]

[package.optional-dependencies]
foo = [{ name = "bar", version = "2.0" }]

[[package]]
name = "bar"
version = "2.0"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "core"
version = "0.1"
source = { registry = "https://pypi.org/simple" }
`)
	res, err := ParseLock(context.Background(), path, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}

	base := res.Packages[0]
	extra := res.Packages[1]
	if got := base.Candidate.Req.AsLine(); got != "pkg==1.0" {
		t.Fatalf("base entry = %q, want the plain package first", got)
	}
	if got := extra.Candidate.Req.AsLine(); got != "pkg[foo]==1.0" {
		t.Fatalf("extras entry = %q, want it directly after its base", got)
	}
	wantDeps := []string{"pkg==1.0", "bar==2.0"}
	if len(extra.Dependencies) != len(wantDeps) {
		t.Fatalf("extras deps = %v", extra.Dependencies)
	}
	for i, want := range wantDeps {
		if extra.Dependencies[i] != want {
			t.Errorf("extras dep[%d] = %q, want %q", i, extra.Dependencies[i], want)
		}
	}
	if extra.Candidate.Version != base.Candidate.Version {
		t.Error("extras variant must share the base version")
	}
}

func TestParseLock_SelfSkip(t *testing.T) {
	content := `
[[package]]
name = "my-app"
version = "0.1.0"
source = { virtual = "." }
dependencies = [{ name = "requests", version = "2.31.0" }]

[[package]]
name = "requests"
version = "2.31.0"
source = { registry = "https://pypi.org/simple" }
`
	for _, tt := range []struct {
		name     string
		keepSelf bool
	}{
		{"dropped by default", false},
		{"virtual dropped even when kept", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLock(t, content)
			res, err := ParseLock(context.Background(), path, ParseOptions{
				ProjectName: "My_App",
				KeepSelf:    tt.keepSelf,
			})
			if err != nil {
				t.Fatal(err)
			}
			for _, p := range res.Packages {
				if p.Candidate.Key() == "my-app" {
					t.Error("project's own virtual entry must be skipped")
				}
			}
		})
	}
}

func TestParseLock_KeepSelfConcrete(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "my-app"
version = "0.1.0"
source = { editable = "." }
`)
	res, err := ParseLock(context.Background(), path, ParseOptions{ProjectName: "my-app", KeepSelf: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Packages) != 1 {
		t.Fatal("concrete self entry must survive when requested")
	}
	req := res.Packages[0].Candidate.Req
	if !req.Editable || req.Path != "." {
		t.Errorf("self requirement = %+v, want editable path", req)
	}
}

func TestParseLock_VCSSource(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "mylib"
version = "0.2.0"
source = { git = "https://example.com/repo.git?rev=main#abcdef1234567890" }
`)
	res, err := ParseLock(context.Background(), path, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	req := res.Packages[0].Candidate.Req
	if req.Kind != reqs.KindVCS {
		t.Fatalf("kind = %v, want VCS", req.Kind)
	}
	if req.URL != "git+https://example.com/repo.git" {
		t.Errorf("URL = %q", req.URL)
	}
	if req.Ref != "main" || req.Revision != "abcdef1234567890" {
		t.Errorf("ref/revision = %q/%q", req.Ref, req.Revision)
	}
	if got := req.AsLine(); got != "mylib @ git+https://example.com/repo.git@abcdef1234567890" {
		t.Errorf("line = %q", got)
	}
}

func TestParseLock_VCSMissingRevision(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "mylib"
version = "0.2.0"
source = { git = "https://example.com/repo.git" }
`)
	_, err := ParseLock(context.Background(), path, ParseOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidVcsRef) {
		t.Fatalf("err = %v, want INVALID_VCS_REF", err)
	}
}

func TestParseLock_MissingHashNoCache(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "pkg"
version = "1.0"
source = { registry = "https://pypi.org/simple" }
wheels = [{ url = "https://files.example.com/pkg-1.0-py3-none-any.whl" }]
`)
	_, err := ParseLock(context.Background(), path, ParseOptions{})
	if !errors.Is(err, errors.ErrCodeHashResolution) {
		t.Fatalf("err = %v, want HASH_RESOLUTION", err)
	}
}

func TestParseLock_DirectURLSource(t *testing.T) {
	path := writeLock(t, `
[[package]]
name = "archived"
version = "3.0"
source = { url = "https://example.com/archived-3.0.tar.gz" }
`)
	res, err := ParseLock(context.Background(), path, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	req := res.Packages[0].Candidate.Req
	if req.Kind != reqs.KindFile || req.URL != "https://example.com/archived-3.0.tar.gz" {
		t.Errorf("requirement = %+v", req)
	}
}

func TestParseLock_MissingFile(t *testing.T) {
	_, err := ParseLock(context.Background(), filepath.Join(t.TempDir(), LockFileName), ParseOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidLockfile) {
		t.Fatalf("err = %v, want INVALID_LOCKFILE", err)
	}
}

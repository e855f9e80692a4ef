package uv

import (
	"crypto/sha256"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/lockbridge/pkg/project"
)

func testConfig() *project.Config {
	cfg := &project.Config{
		Name: "myapp",
		Sources: []project.Source{
			{Name: "pypi", URL: "https://pypi.org/simple", Type: "index"},
			{Name: "internal", URL: "https://pkgs.example.com/simple", Type: "index"},
			{Name: "wheelhouse", URL: "./wheels", Type: "find_links"},
		},
		ConfigSettings: map[string]string{
			"editable_mode": "compat",
			"build_ext":     "-j4",
		},
	}
	cfg.Resolution.AllowPrereleases = true
	cfg.Resolution.NoBinary = []string{"numpy", "scipy"}
	cfg.Resolution.OnlyBinary = []string{":all:"}
	cfg.NoBuildIsolation = true
	return cfg
}

func TestBuildLockCommand_Order(t *testing.T) {
	cfg := testConfig()
	args := BuildLockCommand(cfg, LockOptions{
		Interpreter:    "/usr/bin/python3.12",
		Verbosity:      1,
		UpdateStrategy: UpdateReuse,
		TrackedNames:   []string{"requests"},
		LowestDirect:   true,
		ExcludeNewer:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	want := []string{
		"uv", "lock", "-p", "/usr/bin/python3.12",
		"--verbose",
		"--index-url", "https://pypi.org/simple",
		"--extra-index-url", "https://pkgs.example.com/simple",
		"--find-links", "./wheels",
		"--index-strategy=unsafe-best-match",
		"-P", "requests",
		"--prerelease=allow",
		"--no-binary-package", "numpy",
		"--no-binary-package", "scipy",
		"--no-build",
		"--no-build-isolation",
		"--config-setting", "build_ext=-j4",
		"--config-setting", "editable_mode=compat",
		"--resolution=lowest-direct",
		"--exclude-newer", "2026-01-02T03:04:05Z",
	}
	got := Values(args)
	if len(got) != len(want) {
		t.Fatalf("argv length = %d, want %d\ngot: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildLockCommand_Idempotent(t *testing.T) {
	cfg := testConfig()
	opts := LockOptions{
		Interpreter:    "python3",
		UpdateStrategy: UpdateReuse,
		TrackedNames:   []string{"requests", "flask"},
	}
	digest := func() [32]byte {
		return sha256.Sum256([]byte(strings.Join(Values(BuildLockCommand(cfg, opts)), "\x00")))
	}
	if digest() != digest() {
		t.Error("identical configuration must produce byte-identical argument sequences")
	}
}

func TestBuildLockCommand_UpdateAllSkipsTracked(t *testing.T) {
	cfg := &project.Config{}
	args := BuildLockCommand(cfg, LockOptions{
		UpdateStrategy: UpdateAll,
		TrackedNames:   []string{"requests"},
	})
	for _, v := range Values(args) {
		if v == "-P" {
			t.Error("tracked names must not be pinned when updating everything")
		}
	}
}

func TestBuildLockCommand_RespectSourceOrder(t *testing.T) {
	cfg := &project.Config{}
	cfg.Resolution.RespectSourceOrder = true
	got := strings.Join(Values(BuildLockCommand(cfg, LockOptions{})), " ")
	if !strings.Contains(got, "--index-strategy=unsafe-first-match") {
		t.Errorf("missing first-match index strategy: %s", got)
	}
}

func TestBuildLockCommand_NoBinaryAll(t *testing.T) {
	cfg := &project.Config{}
	cfg.Resolution.NoBinary = []string{":all:"}
	got := Values(BuildLockCommand(cfg, LockOptions{}))
	found := false
	for _, v := range got {
		if v == "--no-binary" {
			found = true
		}
		if v == "--no-binary-package" {
			t.Error("blanket no-binary must not expand per package")
		}
	}
	if !found {
		t.Error("expected blanket --no-binary flag")
	}
}

func TestBuildLockCommand_SecretRedaction(t *testing.T) {
	t.Setenv("PKGS_PASSWORD", "hunter2")
	cfg := &project.Config{
		Sources: []project.Source{{
			Name:     "internal",
			URL:      "https://pkgs.example.com/simple",
			Type:     "index",
			Username: "deploy",
			Password: "${PKGS_PASSWORD}",
		}},
	}
	args := BuildLockCommand(cfg, LockOptions{})

	display := Display(args)
	if strings.Contains(display, "hunter2") {
		t.Errorf("redacted display leaks the secret: %s", display)
	}
	if !strings.Contains(display, "***") {
		t.Errorf("display should carry the redacted credential form: %s", display)
	}

	values := strings.Join(Values(args), " ")
	if !strings.Contains(values, "hunter2") {
		t.Error("real argv must carry the actual credential")
	}
}
